package safe

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDo(t *testing.T) {
	err := Do("test", func() error {
		panic("boom")
	})
	assert.ErrorContains(t, err, "test panic: boom")

	want := errors.New("plain")
	assert.Equal(t, want, Do("test", func() error { return want }))
	assert.NoError(t, Do("test", func() error { return nil }))
}

func TestRun(t *testing.T) {
	assert.NotPanics(t, func() {
		Run(func() { panic("recovered") })
	})
}

func TestStackTrace(t *testing.T) {
	trace := stackTrace()
	assert.True(t, len(trace) > 0)
	assert.Contains(t, trace, "Stack trace:")
	assert.LessOrEqual(t, len(strings.Split(trace, "\n")), maxStackLines+2)
}
