package types

import (
	"database/sql/driver"
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type MessageSource string

const (
	MESSAGE_SOURCE_COPILOT MessageSource = "copilot"
	MESSAGE_SOURCE_WEB_UI  MessageSource = "web-ui"
	MESSAGE_SOURCE_BRANCH  MessageSource = "branch"
)

func (s MessageSource) Valid() bool {
	switch s {
	case "", MESSAGE_SOURCE_COPILOT, MESSAGE_SOURCE_WEB_UI, MESSAGE_SOURCE_BRANCH:
		return true
	}
	return false
}

const DEFAULT_HISTORY_TITLE = "Untitled Chat"

// LastUsedPrompt 会话最近一次使用的系统提示词
type LastUsedPrompt struct {
	PromptID      string `json:"prompt_id,omitempty"`
	PromptContent string `json:"prompt_content,omitempty"`
}

func (p LastUsedPrompt) IsZero() bool {
	return p.PromptID == "" && p.PromptContent == ""
}

func (p *LastUsedPrompt) Scan(src any) error {
	return scanJSON(src, p)
}

func (p LastUsedPrompt) Value() (driver.Value, error) {
	if p.IsZero() {
		return nil, nil
	}
	return valueJSON(p)
}

type ChatHistory struct {
	ID             string         `db:"id" json:"id"`
	Title          string         `db:"title" json:"title"`
	IsRAG          bool           `db:"is_rag" json:"is_rag"`
	MessageSource  MessageSource  `db:"message_source" json:"message_source,omitempty"`
	IsPinned       bool           `db:"is_pinned" json:"is_pinned"`
	DocID          string         `db:"doc_id" json:"doc_id,omitempty"`
	LastUsedPrompt LastUsedPrompt `db:"last_used_prompt" json:"last_used_prompt"`
	ModelID        string         `db:"model_id" json:"model_id,omitempty"`
	CreatedAt      int64          `db:"created_at" json:"createdAt"`
}

func (h ChatHistory) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("chat history id is required")
	}
	if !h.MessageSource.Valid() {
		return fmt.Errorf("chat history %s: unknown message_source %q", h.ID, h.MessageSource)
	}
	return nil
}

// ChatHistoryBundle 导入导出时的会话单元: 会话本身及其全部消息
type ChatHistoryBundle struct {
	History  ChatHistory `json:"history"`
	Messages []Message   `json:"messages"`
}

func (b ChatHistoryBundle) Validate() error {
	if err := b.History.Validate(); err != nil {
		return err
	}
	for i, m := range b.Messages {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("messages[%d]: %w", i, err)
		}
	}
	return nil
}

type ListChatHistoriesOptions struct {
	MessageSource MessageSource
	Pinned        *bool
	// CreatedAfter/CreatedBefore 毫秒时间戳, 0 表示不限制
	CreatedAfter  int64
	CreatedBefore int64
}

func (opts ListChatHistoriesOptions) Apply(query *sq.SelectBuilder) {
	if opts.MessageSource != "" {
		*query = query.Where(sq.Eq{"message_source": opts.MessageSource})
	}
	if opts.Pinned != nil {
		*query = query.Where(sq.Eq{"is_pinned": *opts.Pinned})
	}
	if opts.CreatedAfter > 0 {
		*query = query.Where(sq.GtOrEq{"created_at": opts.CreatedAfter})
	}
	if opts.CreatedBefore > 0 {
		*query = query.Where(sq.Lt{"created_at": opts.CreatedBefore})
	}
}

// ChatHistoryPage 分页查询结果
type ChatHistoryPage struct {
	Histories  []*ChatHistory `json:"histories"`
	HasMore    bool           `json:"hasMore"`
	TotalCount uint64         `json:"totalCount"`
}

type UpdateChatHistoryArgs struct {
	Title          *string
	IsPinned       *bool
	ModelID        *string
	LastUsedPrompt *LastUsedPrompt
	CreatedAt      *int64
}

// DeleteRange 按时间段批量删除会话
type DeleteRange string

const (
	DELETE_RANGE_TODAY     DeleteRange = "today"
	DELETE_RANGE_YESTERDAY DeleteRange = "yesterday"
	DELETE_RANGE_LAST7DAYS DeleteRange = "last7Days"
	DELETE_RANGE_OLDER     DeleteRange = "older"
	DELETE_RANGE_PINNED    DeleteRange = "pinned"
)
