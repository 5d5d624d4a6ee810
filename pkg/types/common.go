package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const (
	NO_PAGINATION = 0

	// DEFAULT_PAGE_SIZE 会话列表默认分页大小
	DEFAULT_PAGE_SIZE = 30
)

// NowMilli returns the current unix time in milliseconds, the unit used by every created_at column.
func NowMilli() int64 {
	return time.Now().UnixMilli()
}

// scanJSON decodes a json text/blob column into dest, leaving dest untouched on NULL.
func scanJSON(src any, dest any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type: %T", src)
	}
}

// valueJSON encodes v as a json string; lib/pq would send []byte as bytea.
func valueJSON(v any) (driver.Value, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// RawJSON 原样保存的 json 字段，用于调用方定义结构的数据(sources, search, generationInfo 等)
type RawJSON json.RawMessage

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	if r == nil {
		return fmt.Errorf("types.RawJSON: UnmarshalJSON on nil pointer")
	}
	if string(data) == "null" {
		*r = nil
		return nil
	}
	*r = append((*r)[0:0], data...)
	return nil
}

func (r *RawJSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[0:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return fmt.Errorf("unsupported json column type: %T", src)
	}
	return nil
}

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

func (r RawJSON) String() string {
	return string(r)
}

// StringList 字符串数组，以 json 存储
type StringList []string

func (s *StringList) Scan(src any) error {
	return scanJSON(src, s)
}

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return valueJSON([]string{})
	}
	return valueJSON([]string(s))
}
