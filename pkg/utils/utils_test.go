package utils

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenUniqIDStr(t *testing.T) {
	SetupIDWorker(1)

	a, b := GenUniqIDStr(), GenUniqIDStr()
	assert.NotEqual(t, a, b)
	t.Log(a, len(a))
}

func TestGenPatternID(t *testing.T) {
	cases := map[string]*regexp.Regexp{
		GenID():          regexp.MustCompile(`^pa_[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{3}-[0-9a-f]{4}$`),
		GenKnowledgeID(): regexp.MustCompile(`^pa_knowledge_[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{3}-[0-9a-f]{4}$`),
		GenDocumentID():  regexp.MustCompile(`^pa_document_[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{3}-[0-9a-f]{4}$`),
		GenOpenAIID():    regexp.MustCompile(`^openai-[0-9a-f]{4}-[0-9a-f]{3}-[0-9a-f]{4}$`),
		GenModelID():     regexp.MustCompile(`^model-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{3}-[0-9a-f]{4}$`),
		GenUserID():      regexp.MustCompile(`^user_[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{4}$`),
	}
	for id, re := range cases {
		assert.Regexp(t, re, id)
	}

	// 长 pattern 需要多个 uuid 拼接
	long := GenPatternID("xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")
	assert.Len(t, long, 50)
	assert.NotEqual(t, GenID(), GenID())
}

func TestCompress(t *testing.T) {
	raw := []byte(`{"pageContent":"hello world","metadata":{"source":"a.pdf"}}`)

	encoded, err := CompressToBase64(raw)
	require.NoError(t, err)
	assert.NotEqual(t, string(raw), encoded)

	decoded, err := DecompressFromBase64(encoded)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)

	_, err = DecompressFromBase64("not base64!")
	assert.Error(t, err)
}

func TestDayBoundaries(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	today, yesterday, lastWeek := DayBoundaries(now)

	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), today)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), yesterday)
	assert.Equal(t, time.Date(2024, 2, 23, 0, 0, 0, 0, time.UTC), lastWeek)
}

func TestCleanURL(t *testing.T) {
	assert.Equal(t, "http://localhost:11434/v1", CleanURL(" http://localhost:11434/v1// "))
	assert.Equal(t, "", CleanURL(""))
}

func TestMD5(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", MD5("hello"))
}

func TestRandom(t *testing.T) {
	assert.Equal(t, 3, Random(3, 3))
	assert.Equal(t, 0, Random(0, -1))
	for range 50 {
		n := Random(0, 2)
		assert.True(t, n >= 0 && n <= 2)
	}
}
