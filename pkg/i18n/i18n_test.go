package i18n

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageassist/localstore/pkg/errors"
)

func TestLang(t *testing.T) {
	l := NewLocalizer("zh-CN", "en")
	assert.Equal(t, "Migration completed with 3 errors", l.GetWithData("en", MESSAGE_MIGRATION_PARTIAL, map[string]interface{}{
		"count": 3,
	}))
	assert.Equal(t, "记录不存在", l.Get("zh-CN", ERROR_NOT_FOUND))
	assert.Equal(t, ERROR_NOT_FOUND, l.Get("fr", ERROR_NOT_FOUND))
}

func TestLocalizeError(t *testing.T) {
	l := NewLocalizer("en")
	err := errors.New("ChatLogic.Branch", ERROR_BRANCH_OUT_OF_RANGE, nil)
	assert.Equal(t, "Branch position is out of range", l.Error("en", err))
	assert.Equal(t, "boom", l.Error("en", stderrors.New("boom")))
}

func TestMatch(t *testing.T) {
	l := NewLocalizer(LANGUAGES...)
	assert.Equal(t, "zh-CN", l.Match("zh-CN"))
	assert.Equal(t, "zh-CN", l.Match("zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "en", l.Match("en-US,en;q=0.9"))
	assert.Equal(t, DEFAULT_LANG, l.Match("fr"))
	assert.Equal(t, DEFAULT_LANG, l.Match(""))
	assert.Equal(t, "", NewLocalizer().Match("en"))
}
