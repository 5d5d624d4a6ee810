package types

import "fmt"

type Memory struct {
	ID        string `db:"id" json:"id"`
	Content   string `db:"content" json:"content"`
	CreatedAt int64  `db:"created_at" json:"createdAt"`
	UpdatedAt int64  `db:"updated_at" json:"updatedAt"`
}

func (m Memory) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("memory id is required")
	}
	return nil
}
