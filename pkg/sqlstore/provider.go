package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/pageassist/localstore/pkg/utils"
)

const (
	DRIVER_POSTGRES = "postgres"
	DRIVER_SQLITE   = "sqlite"
)

func init() {
	sqlx.BindDriver(DRIVER_SQLITE, sqlx.QUESTION)
}

type SqlCommons interface {
	GetTable(...interface{}) string
}

type ConnectConfig interface {
	DriverName() string
	FormatDSN() string
}

type SqlProvider struct {
	driver   string
	master   *sqlx.DB
	replicas []*sqlx.DB
}

func (s *SqlProvider) GetTxFromCtx(ctx context.Context) *sqlx.Tx {
	if ctx == nil {
		return nil
	}
	if driver, ok := ctx.Value(TransactionKey{}).(*sqlx.Tx); ok {
		return driver
	}
	return nil
}

func (s *SqlProvider) GetMaster() *sqlx.DB {
	return s.master
}

func (s *SqlProvider) GetReplica() *sqlx.DB {
	return s.replicas[utils.Random(0, len(s.replicas)-1)]
}

func (s *SqlProvider) DriverName() string {
	return s.driver
}

// Rebind 将 ? 占位符转换为当前驱动的格式
func (s *SqlProvider) Rebind(query string) string {
	return sqlx.Rebind(sqlx.BindType(s.driver), query)
}

type TransactionKey struct{}

// Transaction 已处于事务中时直接复用外层事务
func (s *SqlProvider) Transaction(ctx context.Context, next func(ctx context.Context) error) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if s.GetTxFromCtx(ctx) != nil {
		return next(ctx)
	}

	tx, err := s.GetMaster().BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Transaction rollbacked", slog.Any("recover", r))
			_ = tx.Rollback()
			panic(r)
		}
		if err != nil {
			slog.Error("Transaction rollbacked", slog.String("error", err.Error()))
			_ = tx.Rollback()
		}
	}()

	if err = next(context.WithValue(ctx, TransactionKey{}, tx)); err != nil {
		return err
	}

	return tx.Commit()
}

// 建立数据库连接
func (s *SqlProvider) initConnection(conf ConnectConfig) (*sqlx.DB, error) {
	driver := conf.DriverName()
	switch driver {
	case DRIVER_POSTGRES, DRIVER_SQLITE:
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	engine, err := sqlx.Open(driver, conf.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DRIVER_SQLITE {
		// sqlite 单写者, 多连接在共享缓存模式下会出现 table is locked
		engine.SetMaxOpenConns(1)
	}

	if err = engine.Ping(); err != nil {
		engine.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return engine, nil
}

func SetupProvider(m ConnectConfig, s ...ConnectConfig) (*SqlProvider, error) {
	provider := &SqlProvider{driver: m.DriverName()}

	engine, err := provider.initConnection(m)
	if err != nil {
		return nil, err
	}
	provider.master = engine

	for _, v := range s {
		if v.DriverName() != provider.driver {
			provider.Close()
			return nil, fmt.Errorf("replica driver %s does not match master driver %s", v.DriverName(), provider.driver)
		}
		slave, err := provider.initConnection(v)
		if err != nil {
			provider.Close()
			return nil, err
		}
		provider.replicas = append(provider.replicas, slave)
	}

	if len(provider.replicas) == 0 {
		provider.replicas = append(provider.replicas, engine)
	}

	return provider, nil
}

func MustSetupProvider(m ConnectConfig, s ...ConnectConfig) *SqlProvider {
	provider, err := SetupProvider(m, s...)
	if err != nil {
		panic(err)
	}
	return provider
}

func (s *SqlProvider) Close() error {
	var errs []string
	for _, r := range s.replicas {
		if r == s.master {
			continue
		}
		if err := r.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if s.master != nil {
		if err := s.master.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close sql provider: %s", strings.Join(errs, "; "))
	}
	return nil
}
