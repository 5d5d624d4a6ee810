package types

import (
	"database/sql/driver"
	"fmt"
)

const DB_TYPE_OPENAI = "openai"

type HTTPHeader struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type HTTPHeaders []HTTPHeader

func (h *HTTPHeaders) Scan(src any) error {
	return scanJSON(src, h)
}

func (h HTTPHeaders) Value() (driver.Value, error) {
	if h == nil {
		return valueJSON([]HTTPHeader{})
	}
	return valueJSON([]HTTPHeader(h))
}

// OpenAIModelConfig 兼容 OpenAI 协议的模型服务商配置
type OpenAIModelConfig struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	BaseURL   string      `db:"base_url" json:"baseUrl"`
	APIKey    string      `db:"api_key" json:"apiKey,omitempty"`
	Provider  string      `db:"provider" json:"provider,omitempty"`
	DBType    string      `db:"db_type" json:"db_type"`
	FixCors   bool        `db:"fix_cors" json:"fix_cors,omitempty"`
	Headers   HTTPHeaders `db:"headers" json:"headers,omitempty"`
	CreatedAt int64       `db:"created_at" json:"createdAt"`
}

func (c OpenAIModelConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("openai config id is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("openai config %s: baseUrl is required", c.ID)
	}
	return nil
}

type UpdateOpenAIConfigArgs struct {
	Name    string
	BaseURL string
	APIKey  string
	Headers []HTTPHeader
	FixCors *bool
}
