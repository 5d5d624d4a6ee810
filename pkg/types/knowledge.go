package types

import (
	"database/sql/driver"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type KnowledgeStatus string

const (
	KNOWLEDGE_STATUS_PENDING    KnowledgeStatus = "pending"
	KNOWLEDGE_STATUS_PROCESSING KnowledgeStatus = "processing"
	KNOWLEDGE_STATUS_FINISHED   KnowledgeStatus = "finished"
)

var orderForKnowledgeStatus = map[KnowledgeStatus]int{
	KNOWLEDGE_STATUS_PENDING:    0,
	KNOWLEDGE_STATUS_PROCESSING: 1,
	KNOWLEDGE_STATUS_FINISHED:   2,
}

func (s KnowledgeStatus) Valid() bool {
	_, ok := orderForKnowledgeStatus[s]
	return ok
}

func (s KnowledgeStatus) String() string {
	return string(s)
}

// CanTransition 状态只能沿 pending -> processing -> finished 前进, 允许原地重复设置.
// 追加数据源强制回到 processing 的场景不经过这里.
func (s KnowledgeStatus) CanTransition(to KnowledgeStatus) bool {
	from, ok := orderForKnowledgeStatus[s]
	if !ok {
		return to.Valid()
	}
	next, ok := orderForKnowledgeStatus[to]
	if !ok {
		return false
	}
	return next >= from
}

type KnowledgeDBType string

const (
	DB_TYPE_KNOWLEDGE KnowledgeDBType = "knowledge"
	DB_TYPE_DOCUMENT  KnowledgeDBType = "document"
)

func (t KnowledgeDBType) Table() TableName {
	if t == DB_TYPE_DOCUMENT {
		return TABLE_DOCUMENT
	}
	return TABLE_KNOWLEDGE
}

type KnowledgeSource struct {
	SourceID string `json:"source_id"`
	Type     string `json:"type"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content,omitempty"`
}

type KnowledgeSources []KnowledgeSource

func (s *KnowledgeSources) Scan(src any) error {
	return scanJSON(src, s)
}

func (s KnowledgeSources) Value() (driver.Value, error) {
	if s == nil {
		return valueJSON([]KnowledgeSource{})
	}
	return valueJSON([]KnowledgeSource(s))
}

// StripContent 清空每个数据源的原文, 原切片不受影响
func (s KnowledgeSources) StripContent() KnowledgeSources {
	if s == nil {
		return nil
	}
	res := make(KnowledgeSources, len(s))
	for i, v := range s {
		v.Content = ""
		res[i] = v
	}
	return res
}

// Knowledge knowledge 与 document 两张表共用的结构, 以 DBType 区分
type Knowledge struct {
	ID             string           `db:"id" json:"id"`
	DBType         KnowledgeDBType  `db:"db_type" json:"db_type"`
	Title          string           `db:"title" json:"title"`
	Status         KnowledgeStatus  `db:"status" json:"status"`
	EmbeddingModel string           `db:"embedding_model" json:"embedding_model"`
	Source         KnowledgeSources `db:"source" json:"source"`
	Document       RawJSON          `db:"document" json:"document,omitempty"`
	SystemPrompt   string           `db:"system_prompt" json:"systemPrompt,omitempty"`
	FollowupPrompt string           `db:"followup_prompt" json:"followupPrompt,omitempty"`
	Version        int64            `db:"version" json:"-"`
	CreatedAt      int64            `db:"created_at" json:"createdAt"`
}

func (k Knowledge) Validate() error {
	if k.ID == "" {
		return fmt.Errorf("knowledge id is required")
	}
	if !k.Status.Valid() {
		return fmt.Errorf("knowledge %s: unknown status %q", k.ID, k.Status)
	}
	seen := make(map[string]struct{}, len(k.Source))
	for i, s := range k.Source {
		if s.SourceID == "" {
			return fmt.Errorf("knowledge %s: source[%d] source_id is required", k.ID, i)
		}
		if _, ok := seen[s.SourceID]; ok {
			return fmt.Errorf("knowledge %s: duplicate source_id %s", k.ID, s.SourceID)
		}
		seen[s.SourceID] = struct{}{}
	}
	return nil
}

type ListKnowledgeOptions struct {
	Status KnowledgeStatus
	IDs    []string
}

func (opts ListKnowledgeOptions) Apply(query *sq.SelectBuilder) {
	if opts.Status != "" {
		*query = query.Where(sq.Eq{"status": opts.Status})
	}
	if len(opts.IDs) > 0 {
		*query = query.Where(sq.Eq{"id": opts.IDs})
	}
}

type UpdateKnowledgebaseArgs struct {
	Title          string
	SystemPrompt   string
	FollowupPrompt string
}

type CreateKnowledgeArgs struct {
	Title          string
	EmbeddingModel string
	Source         []KnowledgeSource
	Document       RawJSON
}
