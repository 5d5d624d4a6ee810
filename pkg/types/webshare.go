package types

import "fmt"

type Webshare struct {
	ID        string `db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	URL       string `db:"url" json:"url"`
	APIURL    string `db:"api_url" json:"api_url"`
	ShareID   string `db:"share_id" json:"share_id"`
	CreatedAt int64  `db:"created_at" json:"createdAt"`
}

func (w Webshare) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("webshare id is required")
	}
	return nil
}
