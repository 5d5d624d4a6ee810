package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/pkg/sqlstore"
)

func TestSetupConfigFromEnv(t *testing.T) {
	addr := "localhost:11111"
	t.Setenv("PAGEASSIST_SERVICE_ADDRESS", addr)
	t.Setenv("PAGEASSIST_LEGACY_READ_QPS", "20")
	t.Setenv("PAGEASSIST_MIRROR_ENABLED", "true")
	t.Setenv("PAGEASSIST_STORE_REPLICAS", "file:a.db, file:b.db")

	cfg := LoadBaseConfigFromENV()

	assert.Equal(t, addr, cfg.Addr)
	assert.Equal(t, float64(20), cfg.Legacy.ReadQPS)
	assert.True(t, cfg.Mirror.Enabled)
	assert.Equal(t, sqlstore.DRIVER_SQLITE, cfg.Store.DriverName())
	assert.Len(t, cfg.Store.ReplicaConfigs(), 2)
	assert.Equal(t, "@every 1h", cfg.Reconcile.Spec)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr = "0.0.0.0:8080"

[log]
level = "info"

[store]
driver = "postgres"
dsn = "postgres://localhost/pageassist"

[legacy]
driver = "redis"
namespace = "chrome"

[reconcile]
spec = "-"
`), 0o600))

	cfg := MustLoadBaseConfig(path)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "postgres://localhost/pageassist", cfg.Store.FormatDSN())
	assert.Equal(t, LEGACY_DRIVER_REDIS, cfg.Legacy.Driver)
	assert.Equal(t, "chrome", cfg.Legacy.Namespace)
	assert.True(t, cfg.Reconcile.Disabled())
	assert.Equal(t, "pageassist", cfg.Metrics.Namespace)
}

func TestConfigEnvFile(t *testing.T) {
	cfg := LoadBaseConfigFromENV()
	out := cfg.EnvFile()
	assert.Contains(t, out, "PAGEASSIST_SERVICE_ADDRESS=127.0.0.1:33789\n")
	assert.Contains(t, out, "PAGEASSIST_STORE_DRIVER="+sqlstore.DRIVER_SQLITE+"\n")
	assert.Contains(t, out, "PAGEASSIST_RECONCILE_SPEC=@every 1h\n")
}
