package testutils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/joho/godotenv"
)

const (
	ENV_TEST_POSTGRES_DSN = "PAGEASSIST_TEST_POSTGRES_DSN"
	ENV_TEST_REDIS_ADDR   = "PAGEASSIST_TEST_REDIS_ADDR"
)

var (
	loadOnce sync.Once
	loadErr  error
)

// LoadEnv 读取项目根目录的 .env, 只执行一次, 文件不存在时忽略
func LoadEnv() error {
	loadOnce.Do(func() {
		_, filename, _, _ := runtime.Caller(0)
		envPath := filepath.Join(filepath.Dir(filename), "..", "..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			return
		}
		if err := godotenv.Load(envPath); err != nil {
			loadErr = fmt.Errorf("load %s: %w", envPath, err)
		}
	})
	return loadErr
}

// EnvOrSkip 外部依赖未配置时跳过当前测试
func EnvOrSkip(t testing.TB, key string) string {
	t.Helper()
	if err := LoadEnv(); err != nil {
		t.Fatal(err)
	}
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// PostgresDSN 返回配置的测试 postgres, 未配置时为空
func PostgresDSN(t testing.TB) string {
	t.Helper()
	if err := LoadEnv(); err != nil {
		t.Fatal(err)
	}
	return os.Getenv(ENV_TEST_POSTGRES_DSN)
}

// SqliteMemoryDSN 每个测试独占一个内存库, 同一连接池内共享
func SqliteMemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name)
}
