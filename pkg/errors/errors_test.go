package errors

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("query: %w", sql.ErrNoRows)))
	assert.Equal(t, KindStorageUnavailable, KindOf(stderrors.New("sql: database is closed")))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("boom")))

	err := New("Logic.Get", "error.internal", stderrors.New("boom")).WithKind(KindWriteFailed)
	assert.Equal(t, KindWriteFailed, KindOf(Trace("Handler.Get", err)))
	assert.Equal(t, KindWriteFailed, KindOf(fmt.Errorf("outer: %w", err)))
}

func TestStorage(t *testing.T) {
	err := Storage("Store.Put", "error.write_failed", stderrors.New("constraint failed"), true)
	assert.Equal(t, KindWriteFailed, err.Kind())
	assert.Equal(t, http.StatusInternalServerError, err.GetCode())

	err = Storage("Store.Get", "error.storage_unavailable", sql.ErrConnDone, false)
	assert.True(t, IsStorageUnavailable(err))
	assert.Equal(t, http.StatusServiceUnavailable, err.GetCode())
	assert.True(t, Is(err, sql.ErrConnDone))
}

func TestWrapKeepsKind(t *testing.T) {
	inner := New("KV.Get", "error.notfound", nil).WithKind(KindNotFound)
	outer := Wrap(inner, "Legacy.Prompts", "error.internal")
	assert.Equal(t, KindNotFound, outer.Kind())
	assert.Equal(t, http.StatusNotFound, outer.GetCode())
	assert.Contains(t, outer.Error(), "Legacy.Prompts")
}
