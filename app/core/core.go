package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/app/store/legacy"
	"github.com/pageassist/localstore/app/store/sqlstore"
)

// Core 显式持有所有存储句柄, 不依赖任何全局状态
type Core struct {
	cfg CoreConfig

	stores     *sqlstore.Provider
	legacy     *legacy.Store
	httpEngine *gin.Engine

	metrics *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	setupLogger(cfg.Log)

	core, err := NewCore(cfg)
	if err != nil {
		panic(err)
	}
	return core
}

func setupLogger(cfg Log) {
	// stdout 留给命令行输出
	var writer io.Writer = os.Stderr
	if cfg.Path != "" {
		writer = &lumberjack.Logger{
			Filename:   cfg.Path,
			MaxSize:    500, // megabytes
			MaxBackups: 3,
			MaxAge:     28,   //days
			Compress:   true, // disabled by default
		}
	}
	l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(l)
}

// NewCore 建立主存储与旧版存储, 失败时释放已打开的连接
func NewCore(cfg CoreConfig) (*Core, error) {
	core := &Core{
		cfg:        cfg,
		metrics:    NewMetrics(cfg.Metrics.Namespace, "localstore"),
		httpEngine: gin.New(),
	}

	if err := setupSqlStore(core); err != nil {
		return nil, err
	}

	if err := setupLegacyStore(core); err != nil {
		core.stores.Close()
		return nil, err
	}

	return core, nil
}

func setupSqlStore(core *Core) error {
	stores, err := sqlstore.Setup(core.cfg.Store, core.cfg.Store.ReplicaConfigs()...)
	if err != nil {
		return fmt.Errorf("setup sql store: %w", err)
	}
	// 执行数据库表初始化
	if err = stores.Install(); err != nil {
		stores.Close()
		return fmt.Errorf("install sql store: %w", err)
	}
	core.stores = stores
	slog.Debug("setupSqlStore done", slog.String("driver", core.cfg.Store.Driver))
	return nil
}

func setupLegacyStore(core *Core) error {
	var kv legacy.KV
	switch core.cfg.Legacy.Driver {
	case LEGACY_DRIVER_REDIS:
		client := newRedisClient(core.cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return fmt.Errorf("ping redis: %w", err)
		}
		kv = legacy.NewRedisKV(client, core.cfg.Legacy.Namespace)
	case LEGACY_DRIVER_MEMORY, "":
		m, err := legacy.NewMemoryKV(core.cfg.Legacy.Path)
		if err != nil {
			return err
		}
		kv = m
	default:
		return fmt.Errorf("unsupported legacy driver %q", core.cfg.Legacy.Driver)
	}
	core.legacy = legacy.NewStore(kv, core.cfg.Legacy.ReadQPS)
	return nil
}

func newRedisClient(cfg RedisConfig) redis.UniversalClient {
	var (
		dial  = secondsOrZero(cfg.DialTimeout)
		read  = secondsOrZero(cfg.ReadTimeout)
		write = secondsOrZero(cfg.WriteTimeout)
	)
	if cfg.Cluster {
		return redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.ClusterAddrs,
			Password:     cfg.ClusterPasswd,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			MaxRetries:   cfg.MaxRetries,
			DialTimeout:  dial,
			ReadTimeout:  read,
			WriteTimeout: write,
		})
	}
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  dial,
		ReadTimeout:  read,
		WriteTimeout: write,
	})
}

func secondsOrZero(v int) time.Duration {
	if v <= 0 {
		return 0
	}
	return time.Duration(v) * time.Second
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores
}

func (s *Core) Legacy() *legacy.Store {
	return s.legacy
}

// Mirror 未启用镜像时返回 nil
func (s *Core) Mirror() store.Mirror {
	if !s.cfg.Mirror.Enabled {
		return nil
	}
	return s.legacy
}

func (s *Core) Close() error {
	return errors.Join(s.stores.Close(), s.legacy.Close())
}
