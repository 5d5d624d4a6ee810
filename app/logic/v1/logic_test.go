package v1_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/sqlstore"
	"github.com/pageassist/localstore/pkg/testutils"
)

var ctx = context.Background()

// NewCore 每个测试独立的内存 sqlite 与内存旧版存储, 默认开启镜像
func NewCore(t *testing.T) *core.Core {
	t.Helper()

	var cfg core.CoreConfig
	cfg.Store.Driver = sqlstore.DRIVER_SQLITE
	cfg.Store.DSN = testutils.SqliteMemoryDSN(strings.ReplaceAll(t.Name(), "/", "_"))
	cfg.Mirror.Enabled = true
	cfg.SetDefaults()

	c, err := core.NewCore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})
	return c
}
