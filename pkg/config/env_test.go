package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvGetters(t *testing.T) {
	t.Setenv("TEST_ENV_STR", "value")
	t.Setenv("TEST_ENV_BOOL", "true")
	t.Setenv("TEST_ENV_INT", "bad")
	t.Setenv("TEST_ENV_FLOAT", "1.5")
	t.Setenv("TEST_ENV_LIST", "a, ,b")

	assert.Equal(t, "value", GetEnv("TEST_ENV_STR", "x"))
	assert.Equal(t, "x", GetEnv("TEST_ENV_MISSING", "x"))
	assert.True(t, GetEnvBool("TEST_ENV_BOOL", false))
	assert.Equal(t, 3, GetEnvInt("TEST_ENV_INT", 3))
	assert.Equal(t, 1.5, GetEnvFloat("TEST_ENV_FLOAT", 0))
	assert.Equal(t, []string{"a", "b"}, GetEnvList("TEST_ENV_LIST"))
	assert.Nil(t, GetEnvList("TEST_ENV_MISSING"))
}

func TestLoadEnvFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_ENV_FROM_FILE=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TEST_ENV_FROM_FILE") })

	require.NoError(t, LoadEnvFiles("", path))
	assert.Equal(t, "loaded", os.Getenv("TEST_ENV_FROM_FILE"))

	assert.NoError(t, LoadEnvFiles())
	assert.Error(t, LoadEnvFiles(filepath.Join(t.TempDir(), "missing.env")))
}

func TestToEnvFile(t *testing.T) {
	out := ToEnvFile(
		EnvSection{Title: "store", Entries: []EnvEntry{{Key: "A", Value: "1"}}},
		EnvSection{Entries: []EnvEntry{{Key: "B", Value: ""}}},
	)
	assert.Equal(t, "# store\nA=1\n\nB=\n", out)
}
