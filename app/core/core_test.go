package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/pkg/sqlstore"
	"github.com/pageassist/localstore/pkg/testutils"
	"github.com/pageassist/localstore/pkg/types"
)

func newTestConfig(t *testing.T) CoreConfig {
	var cfg CoreConfig
	cfg.Store.Driver = sqlstore.DRIVER_SQLITE
	cfg.Store.DSN = testutils.SqliteMemoryDSN(t.Name())
	cfg.SetDefaults()
	return cfg
}

func TestSetupCore(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Mirror.Enabled = true

	core, err := NewCore(cfg)
	require.NoError(t, err)
	defer core.Close()

	assert.NotNil(t, core.Store())
	assert.NotNil(t, core.Legacy())
	assert.NotNil(t, core.Mirror())

	core.Metrics().MigratedAdd("prompts", 3)
	core.Metrics().ImportResultAdd(types.ImportResult{Kind: types.KIND_PROMPTS, Inserted: 1})
	families, err := core.Metrics().Manager().Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMirrorDisabled(t *testing.T) {
	core, err := NewCore(newTestConfig(t))
	require.NoError(t, err)
	defer core.Close()

	assert.Nil(t, core.Mirror())
}

func TestUnsupportedLegacyDriver(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Legacy.Driver = "chrome"

	_, err := NewCore(cfg)
	assert.Error(t, err)
}
