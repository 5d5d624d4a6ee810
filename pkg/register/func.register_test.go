package register

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type testKey struct{}

func TestResolveFuncHandlers(t *testing.T) {
	var calls []string
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "a") })
	RegisterFunc[*[]string](testKey{}, func(s *[]string) { *s = append(*s, "b") })
	RegisterFunc[int](testKey{}, func(int) { calls = append(calls, "int") })

	for _, h := range ResolveFuncHandlers[*[]string](testKey{}) {
		h(&calls)
	}
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Len(t, ResolveFuncHandlers[int](testKey{}), 1)
	assert.Empty(t, ResolveFuncHandlers[string](testKey{}))
}
