package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadEnvFiles 加载 .env 文件, 已存在的环境变量不会被覆盖
func LoadEnvFiles(files ...string) error {
	files = nonEmpty(files)
	if len(files) == 0 {
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files %v: %w", files, err)
	}
	return nil
}

func nonEmpty(list []string) []string {
	var res []string
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			res = append(res, v)
		}
	}
	return res
}

// GetEnv 获取环境变量，如果不存在则返回默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool 获取布尔类型环境变量
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvInt 获取整数类型环境变量
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// GetEnvList 逗号分隔, 忽略空项
func GetEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	return nonEmpty(strings.Split(value, ","))
}

type EnvEntry struct {
	Key   string
	Value string
}

// EnvSection 环境变量文件中的一段, Title 作为注释输出
type EnvSection struct {
	Title   string
	Entries []EnvEntry
}

// ToEnvFile 将配置导出为环境变量文件格式
func ToEnvFile(sections ...EnvSection) string {
	var builder strings.Builder
	for i, s := range sections {
		if i > 0 {
			builder.WriteString("\n")
		}
		if s.Title != "" {
			builder.WriteString(fmt.Sprintf("# %s\n", s.Title))
		}
		for _, e := range s.Entries {
			builder.WriteString(fmt.Sprintf("%s=%s\n", e.Key, e.Value))
		}
	}
	return builder.String()
}
