package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		query string
		want  bool
	}{
		{"empty query", "hello", "", true},
		{"empty both", "", "", true},
		{"empty text", "", "x", false},
		{"substring", "Quarterly Report Draft", "quart", true},
		{"case insensitive", "Quarterly Report Draft", "REPORT dr", true},
		{"tokens below coverage", "Quarterly Report Draft", "qrtly rpt", false},
		{"all tokens", "Quarterly Report Draft", "draft quarterly", true},
		{"three of four tokens", "golang channel select timeout", "golang select timeout mutex", true},
		{"two of four tokens", "golang channel select timeout", "golang select rust mutex", false},
		{"typo single word", "Meeting notes about kubernetes", "kubernetse", true},
		{"length too far", "Meeting notes about kubernetes", "kubernetesclusters", false},
		{"short query no fuzzy", "abc def", "xyz", false},
		{"short tokens ignored", "go is fun", "go xy", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.text, tt.query))
		})
	}
}
