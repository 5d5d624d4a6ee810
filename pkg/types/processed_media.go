package types

import "fmt"

// ProcessedMedia 本地处理过的媒体(网页、视频字幕等)记录, 只有简单的增删查
type ProcessedMedia struct {
	ID        string `db:"id" json:"id"`
	URL       string `db:"url" json:"url"`
	Title     string `db:"title" json:"title"`
	MediaType string `db:"media_type" json:"type"`
	Content   string `db:"content" json:"content"`
	CreatedAt int64  `db:"created_at" json:"createdAt"`
}

func (p ProcessedMedia) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("processed media id is required")
	}
	return nil
}
