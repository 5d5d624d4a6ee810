package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pageassist/localstore/pkg/merge"
)

const ENVELOPE_VERSION = 2

type EntityKind string

const (
	KIND_CHAT_HISTORIES  EntityKind = "chat_histories"
	KIND_PROMPTS         EntityKind = "prompts"
	KIND_WEBSHARES       EntityKind = "webshares"
	KIND_SESSION_FILES   EntityKind = "session_files"
	KIND_USER_SETTINGS   EntityKind = "user_settings"
	KIND_KNOWLEDGE       EntityKind = "knowledge"
	KIND_DOCUMENTS       EntityKind = "documents"
	KIND_VECTORS         EntityKind = "vectors"
	KIND_OPENAI_CONFIGS  EntityKind = "openai_configs"
	KIND_CUSTOM_MODELS   EntityKind = "custom_models"
	KIND_MODEL_NICKNAMES EntityKind = "model_nicknames"
	KIND_MODEL_STATES    EntityKind = "model_states"
	KIND_PROVIDER_STATES EntityKind = "provider_states"
	KIND_MEMORIES        EntityKind = "memories"
	KIND_PROCESSED_MEDIA EntityKind = "processed_media"
)

// AllEntityKinds 导出顺序, 父实体在前
var AllEntityKinds = []EntityKind{
	KIND_USER_SETTINGS,
	KIND_CHAT_HISTORIES,
	KIND_SESSION_FILES,
	KIND_PROMPTS,
	KIND_WEBSHARES,
	KIND_KNOWLEDGE,
	KIND_DOCUMENTS,
	KIND_VECTORS,
	KIND_OPENAI_CONFIGS,
	KIND_CUSTOM_MODELS,
	KIND_MODEL_NICKNAMES,
	KIND_MODEL_STATES,
	KIND_PROVIDER_STATES,
	KIND_MEMORIES,
	KIND_PROCESSED_MEDIA,
}

func (k EntityKind) Valid() bool {
	for _, v := range AllEntityKinds {
		if v == k {
			return true
		}
	}
	return false
}

// ImportOptions 未显式给出时 mergeData 默认为 true
type ImportOptions struct {
	ReplaceExisting *bool `json:"replaceExisting,omitempty"`
	MergeData       *bool `json:"mergeData,omitempty"`
}

func (o ImportOptions) Resolve() merge.Options {
	opts := merge.DefaultOptions()
	if o.ReplaceExisting != nil {
		opts.ReplaceExisting = *o.ReplaceExisting
	}
	if o.MergeData != nil {
		opts.MergeData = *o.MergeData
	}
	return opts
}

func NewImportOptions(opts merge.Options) ImportOptions {
	return ImportOptions{
		ReplaceExisting: &opts.ReplaceExisting,
		MergeData:       &opts.MergeData,
	}
}

// ImportEnvelope 单个实体类型的导入载荷
type ImportEnvelope struct {
	Version int             `json:"version"`
	Kind    EntityKind      `json:"kind"`
	Options ImportOptions   `json:"options"`
	Items   json.RawMessage `json:"items"`
}

func NewImportEnvelope(kind EntityKind, opts merge.Options, items any) (*ImportEnvelope, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	// nil 切片编码为 null, 统一为空数组
	if bytes.Equal(raw, []byte("null")) {
		raw = []byte("[]")
	}
	return &ImportEnvelope{
		Version: ENVELOPE_VERSION,
		Kind:    kind,
		Options: NewImportOptions(opts),
		Items:   raw,
	}, nil
}

// Validate 只校验外层结构, 记录级校验在 Decode 中完成
func (e ImportEnvelope) Validate() error {
	if e.Version != ENVELOPE_VERSION {
		return fmt.Errorf("unsupported envelope version %d", e.Version)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("unknown entity kind %q", e.Kind)
	}
	trimmed := bytes.TrimSpace(e.Items)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%s: items must be a json array", e.Kind)
	}
	return nil
}

type validator interface {
	Validate() error
}

// DecodeItems 解码并逐条校验, 任一记录不合法即整体失败
func DecodeItems[T validator](e ImportEnvelope) ([]T, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	var items []T
	dec := json.NewDecoder(bytes.NewReader(e.Items))
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Kind, err)
	}
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", e.Kind, i, err)
		}
	}
	return items, nil
}

// ExportBundle 全量导出
type ExportBundle struct {
	Version    int               `json:"version"`
	ExportedAt int64             `json:"exportedAt"`
	Envelopes  []*ImportEnvelope `json:"envelopes"`
}

// ImportResult 单个实体类型的导入统计
type ImportResult struct {
	Kind     EntityKind `json:"kind"`
	Inserted int        `json:"inserted"`
	Replaced int        `json:"replaced"`
	Merged   int        `json:"merged"`
	Skipped  int        `json:"skipped"`
	Cleared  bool       `json:"cleared"`
}

func NewImportResult(kind EntityKind, r merge.Result) ImportResult {
	return ImportResult{
		Kind:     kind,
		Inserted: r.Inserted,
		Replaced: r.Replaced,
		Merged:   r.Merged,
		Skipped:  r.Skipped,
		Cleared:  r.Cleared,
	}
}

func (r ImportResult) Total() int {
	return r.Inserted + r.Replaced + r.Merged + r.Skipped
}
