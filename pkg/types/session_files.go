package types

import (
	"database/sql/driver"
	"fmt"
)

type UploadedFile struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	Size       int64     `json:"size"`
	UploadedAt int64     `json:"uploadedAt"`
	Embedding  []float64 `json:"embedding,omitempty"`
	Processed  bool      `json:"processed"`
}

type UploadedFiles []UploadedFile

func (s *UploadedFiles) Scan(src any) error {
	return scanJSON(src, s)
}

func (s UploadedFiles) Value() (driver.Value, error) {
	if s == nil {
		return valueJSON([]UploadedFile{})
	}
	return valueJSON([]UploadedFile(s))
}

type SessionFiles struct {
	SessionID        string        `db:"session_id" json:"sessionId"`
	Files            UploadedFiles `db:"files" json:"files"`
	RetrievalEnabled bool          `db:"retrieval_enabled" json:"retrievalEnabled"`
	CreatedAt        int64         `db:"created_at" json:"createdAt"`
}

func (s SessionFiles) Validate() error {
	if s.SessionID == "" {
		return fmt.Errorf("session files: sessionId is required")
	}
	for i, f := range s.Files {
		if f.ID == "" {
			return fmt.Errorf("session %s: files[%d] id is required", s.SessionID, i)
		}
	}
	return nil
}

type UpdateUploadedFileArgs struct {
	Filename  *string
	Content   *string
	Embedding []float64
	Processed *bool
}
