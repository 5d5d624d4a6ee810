package types

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"
)

const VECTOR_ID_PREFIX = "vector:"

// VectorIDFor 知识库对应的向量集合 id
func VectorIDFor(knowledgeID string) string {
	if strings.HasPrefix(knowledgeID, VECTOR_ID_PREFIX) {
		return knowledgeID
	}
	return VECTOR_ID_PREFIX + knowledgeID
}

// KnowledgeIDFromVectorID 反解向量集合所属的知识库 id
func KnowledgeIDFromVectorID(vectorID string) string {
	return strings.TrimPrefix(vectorID, VECTOR_ID_PREFIX)
}

// Embedding 以 pgvector 文本格式存储, postgres 下为 vector 列, sqlite 下为 TEXT
type Embedding []float32

func (e *Embedding) Scan(src any) error {
	if src == nil {
		*e = nil
		return nil
	}
	var v pgvector.Vector
	if err := v.Scan(src); err != nil {
		return err
	}
	*e = v.Slice()
	return nil
}

func (e Embedding) Value() (driver.Value, error) {
	if len(e) == 0 {
		return nil, nil
	}
	return pgvector.NewVector(e).Value()
}

// VectorMetadata 片段元数据, 结构由调用方决定
type VectorMetadata = RawJSON

type VectorFragment struct {
	VectorID    string         `db:"vector_id" json:"-"`
	Position    int64          `db:"position" json:"-"`
	FileID      string         `db:"file_id" json:"file_id"`
	Content     string         `db:"content" json:"content"`
	ContentHash string         `db:"content_hash" json:"-"`
	Embedding   Embedding      `db:"embedding" json:"embedding"`
	Metadata    VectorMetadata `db:"metadata" json:"metadata,omitempty"`
}

// DedupKey (file_id, content) 在一个向量集合内唯一
func (f VectorFragment) DedupKey() string {
	return f.FileID + "\x00" + f.Content
}

type VectorData struct {
	ID      string           `json:"id"`
	Vectors []VectorFragment `json:"vectors"`
}

func (v VectorData) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vector data id is required")
	}
	for i, f := range v.Vectors {
		if f.FileID == "" {
			return fmt.Errorf("vector %s: vectors[%d] file_id is required", v.ID, i)
		}
	}
	return nil
}
