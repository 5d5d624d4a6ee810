package types

import "fmt"

type Prompt struct {
	ID        string `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Content   string `db:"content" json:"content"`
	IsSystem  bool   `db:"is_system" json:"is_system"`
	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt int64  `db:"created_at" json:"createdAt"`
}

func (p Prompt) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("prompt id is required")
	}
	return nil
}
