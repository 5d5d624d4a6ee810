package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/pageassist/localstore/pkg/config"
	"github.com/pageassist/localstore/pkg/sqlstore"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	conf.SetConfigBytes(raw)

	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}
	conf.SetDefaults()

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	c.SetDefaults()
	return c
}

type CoreConfig struct {
	Addr      string          `toml:"addr"`
	Log       Log             `toml:"log"`
	Store     StoreConfig     `toml:"store"`
	Redis     RedisConfig     `toml:"redis"`
	Legacy    LegacyConfig    `toml:"legacy"`
	Mirror    MirrorConfig    `toml:"mirror"`
	Reconcile ReconcileConfig `toml:"reconcile"`
	Metrics   MetricsConfig   `toml:"metrics"`

	bytes []byte `toml:"-"`
}

func (c *CoreConfig) SetConfigBytes(raw []byte) {
	c.bytes = raw
}

func (c *CoreConfig) FromENV() {
	c.Addr = config.GetEnv("PAGEASSIST_SERVICE_ADDRESS", "")
	c.Log.FromENV()
	c.Store.FromENV()
	c.Redis.FromENV()
	c.Legacy.FromENV()
	c.Mirror.Enabled = config.GetEnvBool("PAGEASSIST_MIRROR_ENABLED", false)
	c.Reconcile.Spec = config.GetEnv("PAGEASSIST_RECONCILE_SPEC", "")
	c.Metrics.Namespace = config.GetEnv("PAGEASSIST_METRICS_NAMESPACE", "")
}

func (c *CoreConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:33789"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = sqlstore.DRIVER_SQLITE
	}
	if c.Store.DSN == "" && c.Store.Driver == sqlstore.DRIVER_SQLITE {
		c.Store.DSN = "file:pageassist.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	if c.Legacy.Driver == "" {
		c.Legacy.Driver = LEGACY_DRIVER_MEMORY
	}
	if c.Legacy.Namespace == "" {
		c.Legacy.Namespace = "local"
	}
	if c.Reconcile.Spec == "" {
		c.Reconcile.Spec = "@every 1h"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "pageassist"
	}
}

// StoreConfig 主存储, driver 为 sqlite 或 postgres
type StoreConfig struct {
	Driver   string   `toml:"driver"`
	DSN      string   `toml:"dsn"`
	Replicas []string `toml:"replicas"`
}

func (s *StoreConfig) FromENV() {
	s.Driver = config.GetEnv("PAGEASSIST_STORE_DRIVER", "")
	s.DSN = config.GetEnv("PAGEASSIST_STORE_DSN", "")
	s.Replicas = config.GetEnvList("PAGEASSIST_STORE_REPLICAS")
}

func (s StoreConfig) DriverName() string {
	return s.Driver
}

func (s StoreConfig) FormatDSN() string {
	return s.DSN
}

// ReplicaConfigs 只读副本与主库使用同一个 driver
func (s StoreConfig) ReplicaConfigs() []sqlstore.ConnectConfig {
	var res []sqlstore.ConnectConfig
	for _, dsn := range s.Replicas {
		if dsn = strings.TrimSpace(dsn); dsn != "" {
			res = append(res, StoreConfig{Driver: s.Driver, DSN: dsn})
		}
	}
	return res
}

type RedisConfig struct {
	// 单机模式配置
	Addr     string `toml:"addr"`     // Redis地址，格式: host:port
	Password string `toml:"password"` // Redis密码
	DB       int    `toml:"db"`       // Redis数据库索引 (0-15)

	// 集群模式配置
	Cluster       bool     `toml:"cluster"`
	ClusterAddrs  []string `toml:"cluster_addrs"`
	ClusterPasswd string   `toml:"cluster_passwd"`

	// 连接池配置
	PoolSize     int `toml:"pool_size"`
	MinIdleConns int `toml:"min_idle_conns"`
	MaxRetries   int `toml:"max_retries"`
	DialTimeout  int `toml:"dial_timeout"`  // 秒
	ReadTimeout  int `toml:"read_timeout"`  // 秒
	WriteTimeout int `toml:"write_timeout"` // 秒
}

func (r *RedisConfig) FromENV() {
	r.Addr = config.GetEnv("PAGEASSIST_REDIS_ADDR", "")
	r.Password = config.GetEnv("PAGEASSIST_REDIS_PASSWORD", "")
	r.DB = config.GetEnvInt("PAGEASSIST_REDIS_DB", 0)
}

const (
	LEGACY_DRIVER_MEMORY = "memory"
	LEGACY_DRIVER_REDIS  = "redis"
)

// LegacyConfig 旧版扁平存储, memory 模式下 path 非空时持久化到文件
type LegacyConfig struct {
	Driver    string  `toml:"driver"`
	Path      string  `toml:"path"`
	Namespace string  `toml:"namespace"`
	ReadQPS   float64 `toml:"read_qps"`
}

func (l *LegacyConfig) FromENV() {
	l.Driver = config.GetEnv("PAGEASSIST_LEGACY_DRIVER", "")
	l.Path = config.GetEnv("PAGEASSIST_LEGACY_PATH", "")
	l.Namespace = config.GetEnv("PAGEASSIST_LEGACY_NAMESPACE", "")
	l.ReadQPS = config.GetEnvFloat("PAGEASSIST_LEGACY_READ_QPS", 0)
}

type MirrorConfig struct {
	Enabled bool `toml:"enabled"`
}

type ReconcileConfig struct {
	// Spec cron 表达式, 为 "-" 时不启用
	Spec string `toml:"spec"`
}

func (r ReconcileConfig) Disabled() bool {
	return r.Spec == "-"
}

type MetricsConfig struct {
	Namespace string `toml:"namespace"`
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = config.GetEnv("PAGEASSIST_LOG_LEVEL", "")
	l.Path = config.GetEnv("PAGEASSIST_LOG_PATH", "")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// EnvFile 以 PAGEASSIST_* 环境变量的形式输出当前配置
func (c CoreConfig) EnvFile() string {
	return config.ToEnvFile(
		config.EnvSection{Title: "service", Entries: []config.EnvEntry{
			{Key: "PAGEASSIST_SERVICE_ADDRESS", Value: c.Addr},
			{Key: "PAGEASSIST_LOG_LEVEL", Value: c.Log.Level},
			{Key: "PAGEASSIST_LOG_PATH", Value: c.Log.Path},
			{Key: "PAGEASSIST_METRICS_NAMESPACE", Value: c.Metrics.Namespace},
		}},
		config.EnvSection{Title: "store", Entries: []config.EnvEntry{
			{Key: "PAGEASSIST_STORE_DRIVER", Value: c.Store.Driver},
			{Key: "PAGEASSIST_STORE_DSN", Value: c.Store.DSN},
			{Key: "PAGEASSIST_STORE_REPLICAS", Value: strings.Join(c.Store.Replicas, ",")},
			{Key: "PAGEASSIST_MIRROR_ENABLED", Value: strconv.FormatBool(c.Mirror.Enabled)},
			{Key: "PAGEASSIST_RECONCILE_SPEC", Value: c.Reconcile.Spec},
		}},
		config.EnvSection{Title: "legacy", Entries: []config.EnvEntry{
			{Key: "PAGEASSIST_LEGACY_DRIVER", Value: c.Legacy.Driver},
			{Key: "PAGEASSIST_LEGACY_PATH", Value: c.Legacy.Path},
			{Key: "PAGEASSIST_LEGACY_NAMESPACE", Value: c.Legacy.Namespace},
			{Key: "PAGEASSIST_LEGACY_READ_QPS", Value: strconv.FormatFloat(c.Legacy.ReadQPS, 'f', -1, 64)},
		}},
		config.EnvSection{Title: "redis", Entries: []config.EnvEntry{
			{Key: "PAGEASSIST_REDIS_ADDR", Value: c.Redis.Addr},
			{Key: "PAGEASSIST_REDIS_DB", Value: strconv.Itoa(c.Redis.DB)},
		}},
	)
}
