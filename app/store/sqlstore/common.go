package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"github.com/pageassist/localstore/pkg/types"
)

func ErrorSqlBuild(err error) error {
	return fmt.Errorf("failed to build sql query, %w", err)
}

type SqlProviderAchieve interface {
	GetMaster() *sqlx.DB
	GetReplica() *sqlx.DB
	GetTxFromCtx(ctx context.Context) *sqlx.Tx
	DriverName() string
	Rebind(query string) string
}

type GetTableFunc func([]interface{}) string

// store 基础设置
type CommonFields struct {
	table        string
	getTableFunc GetTableFunc
	provider     SqlProviderAchieve
	allColumns   []string
}

func (c *CommonFields) GetTable(key ...interface{}) string {
	if c.getTableFunc != nil {
		return c.getTableFunc(key)
	}
	return c.table
}

func (c *CommonFields) SetAllColumns(str ...string) {
	c.allColumns = str
}

func (c *CommonFields) GetAllColumns() []string {
	return c.allColumns
}

func (c *CommonFields) SetTable(table types.TableName) {
	c.table = table.Name()
}

func (c *CommonFields) SetProvider(p SqlProviderAchieve) {
	c.provider = p
}

// ToSql 生成语句并按驱动转换占位符
func (c *CommonFields) ToSql(query sq.Sqlizer) (string, []interface{}, error) {
	queryString, args, err := query.ToSql()
	if err != nil {
		return "", nil, ErrorSqlBuild(err)
	}
	return c.provider.Rebind(queryString), args, nil
}

type Master interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func (c *CommonFields) GetMaster(ctx context.Context) Master {
	if ctx == nil {
		return c.provider.GetMaster()
	}

	tx := c.provider.GetTxFromCtx(ctx)
	if tx != nil {
		return &txWithContext{tx: tx, ctx: ctx}
	}

	return &dbWithContext{
		db:  c.provider.GetMaster(),
		ctx: ctx,
	}
}

type Replica interface {
	Get(dest interface{}, query string, args ...interface{}) error
	Select(dest interface{}, query string, args ...interface{}) error
	Queryx(query string, args ...interface{}) (*sqlx.Rows, error)
	QueryRowx(query string, args ...interface{}) *sqlx.Row
}

type dbWithContext struct {
	db  *sqlx.DB
	ctx context.Context
}

func (d *dbWithContext) Get(dest interface{}, query string, args ...interface{}) error {
	return d.db.GetContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return d.db.QueryxContext(d.ctx, query, args...)
}

func (d *dbWithContext) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return d.db.QueryRowxContext(d.ctx, query, args...)
}

func (d *dbWithContext) Select(dest interface{}, query string, args ...interface{}) error {
	return d.db.SelectContext(d.ctx, dest, query, args...)
}

func (d *dbWithContext) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.db.ExecContext(d.ctx, query, args...)
}

type txWithContext struct {
	tx  *sqlx.Tx
	ctx context.Context
}

func (d *txWithContext) Get(dest interface{}, query string, args ...interface{}) error {
	return d.tx.GetContext(d.ctx, dest, query, args...)
}

func (d *txWithContext) Queryx(query string, args ...interface{}) (*sqlx.Rows, error) {
	return d.tx.QueryxContext(d.ctx, query, args...)
}

func (d *txWithContext) QueryRowx(query string, args ...interface{}) *sqlx.Row {
	return d.tx.QueryRowxContext(d.ctx, query, args...)
}

func (d *txWithContext) Select(dest interface{}, query string, args ...interface{}) error {
	return d.tx.SelectContext(d.ctx, dest, query, args...)
}

func (d *txWithContext) Exec(query string, args ...interface{}) (sql.Result, error) {
	return d.tx.ExecContext(d.ctx, query, args...)
}

// GetReplica 事务内读取走事务连接, 保证读到本事务的写入
func (c *CommonFields) GetReplica(ctx context.Context) Replica {
	if ctx == nil {
		return c.provider.GetReplica()
	}

	tx := c.provider.GetTxFromCtx(ctx)
	if tx != nil {
		return &txWithContext{tx: tx, ctx: ctx}
	}

	return &dbWithContext{
		db:  c.provider.GetReplica(),
		ctx: ctx,
	}
}

// upsertSuffix 生成 ON CONFLICT 子句, sqlite 与 postgres 语法一致
func upsertSuffix(conflict string, columns ...string) string {
	var sets []string
	for _, v := range columns {
		if v == conflict {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", v, v))
	}
	if len(sets) == 0 {
		return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", conflict)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", conflict, strings.Join(sets, ", "))
}

func getOne[T any](ctx context.Context, c *CommonFields, where sq.Eq) (*T, error) {
	queryString, args, err := c.ToSql(sq.Select(c.GetAllColumns()...).From(c.GetTable()).Where(where).Limit(1))
	if err != nil {
		return nil, err
	}

	var res T
	if err = c.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func selectList[T any](ctx context.Context, c *CommonFields, query sq.SelectBuilder) ([]*T, error) {
	queryString, args, err := c.ToSql(query)
	if err != nil {
		return nil, err
	}

	var res []*T
	if err = c.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func selectCount(ctx context.Context, c *CommonFields, query sq.SelectBuilder) (uint64, error) {
	queryString, args, err := c.ToSql(query)
	if err != nil {
		return 0, err
	}

	var res uint64
	if err = c.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return 0, err
	}
	return res, nil
}

func execAffected(ctx context.Context, c *CommonFields, query sq.Sqlizer) (int64, error) {
	queryString, args, err := c.ToSql(query)
	if err != nil {
		return 0, err
	}

	res, err := c.GetMaster(ctx).Exec(queryString, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func exec(ctx context.Context, c *CommonFields, query sq.Sqlizer) error {
	_, err := execAffected(ctx, c, query)
	return err
}

func paginate(query sq.SelectBuilder, page, pageSize uint64) sq.SelectBuilder {
	if page != types.NO_PAGINATION && pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	return query
}
