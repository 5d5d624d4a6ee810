package sqlstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/pkg/testutils"
)

type conf struct {
	driver string
	dsn    string
}

func (c conf) DriverName() string { return c.driver }
func (c conf) FormatDSN() string  { return c.dsn }

func newTestProvider(t *testing.T) *SqlProvider {
	p, err := SetupProvider(conf{driver: DRIVER_SQLITE, dsn: testutils.SqliteMemoryDSN(t.Name())})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	_, err = p.GetMaster().Exec("CREATE TABLE t (id TEXT PRIMARY KEY)")
	require.NoError(t, err)
	return p
}

func count(t *testing.T, p *SqlProvider) int {
	var n int
	require.NoError(t, p.GetReplica().Get(&n, "SELECT COUNT(*) FROM t"))
	return n
}

func TestTransaction(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	err := p.Transaction(ctx, func(ctx context.Context) error {
		tx := p.GetTxFromCtx(ctx)
		require.NotNil(t, tx)
		_, err := tx.Exec(p.Rebind("INSERT INTO t (id) VALUES (?)"), "a")
		require.NoError(t, err)

		// 嵌套调用复用外层事务
		return p.Transaction(ctx, func(inner context.Context) error {
			assert.Equal(t, tx, p.GetTxFromCtx(inner))
			return errors.New("rollback")
		})
	})
	assert.EqualError(t, err, "rollback")
	assert.Equal(t, 0, count(t, p))

	err = p.Transaction(ctx, func(ctx context.Context) error {
		_, err := p.GetTxFromCtx(ctx).Exec(p.Rebind("INSERT INTO t (id) VALUES (?)"), "b")
		return err
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, count(t, p))
}

func TestTransactionPanic(t *testing.T) {
	p := newTestProvider(t)

	assert.Panics(t, func() {
		p.Transaction(context.Background(), func(ctx context.Context) error {
			p.GetTxFromCtx(ctx).Exec(p.Rebind("INSERT INTO t (id) VALUES (?)"), "c")
			panic("boom")
		})
	})
	assert.Equal(t, 0, count(t, p))
}

func TestRebind(t *testing.T) {
	p := &SqlProvider{driver: DRIVER_POSTGRES}
	assert.Equal(t, "SELECT * FROM t WHERE a = $1 AND b = $2", p.Rebind("SELECT * FROM t WHERE a = ? AND b = ?"))

	p.driver = DRIVER_SQLITE
	assert.Equal(t, "SELECT ?", p.Rebind("SELECT ?"))
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := SetupProvider(conf{driver: "mysql", dsn: "x"})
	assert.ErrorContains(t, err, "unsupported sql driver")
}
