package types

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

type MessageRole string

const (
	MESSAGE_ROLE_USER      MessageRole = "user"
	MESSAGE_ROLE_ASSISTANT MessageRole = "assistant"
	MESSAGE_ROLE_SYSTEM    MessageRole = "system"
)

func (r MessageRole) Valid() bool {
	switch r {
	case MESSAGE_ROLE_USER, MESSAGE_ROLE_ASSISTANT, MESSAGE_ROLE_SYSTEM:
		return true
	}
	return false
}

type Message struct {
	ID                 string      `db:"id" json:"id"`
	HistoryID          string      `db:"history_id" json:"history_id"`
	Name               string      `db:"name" json:"name"`
	Role               MessageRole `db:"role" json:"role"`
	Content            string      `db:"content" json:"content"`
	Images             StringList  `db:"images" json:"images,omitempty"`
	Sources            RawJSON     `db:"sources" json:"sources,omitempty"`
	Search             RawJSON     `db:"search" json:"search,omitempty"`
	Documents          RawJSON     `db:"documents" json:"documents,omitempty"`
	MessageType        string      `db:"message_type" json:"messageType,omitempty"`
	GenerationInfo     RawJSON     `db:"generation_info" json:"generationInfo,omitempty"`
	ModelName          string      `db:"model_name" json:"modelName,omitempty"`
	ModelImage         string      `db:"model_image" json:"modelImage,omitempty"`
	ReasoningTimeTaken int64       `db:"reasoning_time_taken" json:"reasoning_time_taken,omitempty"`
	CreatedAt          int64       `db:"created_at" json:"createdAt"`
}

func (m Message) Validate() error {
	if m.ID == "" {
		return fmt.Errorf("message id is required")
	}
	if m.HistoryID == "" {
		return fmt.Errorf("message %s: history_id is required", m.ID)
	}
	if !m.Role.Valid() {
		return fmt.Errorf("message %s: unknown role %q", m.ID, m.Role)
	}
	return nil
}

type ListMessagesOptions struct {
	HistoryID  string
	HistoryIDs []string
	Role       MessageRole
}

func (opts ListMessagesOptions) Apply(query *sq.SelectBuilder) {
	if opts.HistoryID != "" {
		*query = query.Where(sq.Eq{"history_id": opts.HistoryID})
	}
	if len(opts.HistoryIDs) > 0 {
		*query = query.Where(sq.Eq{"history_id": opts.HistoryIDs})
	}
	if opts.Role != "" {
		*query = query.Where(sq.Eq{"role": opts.Role})
	}
}

// SaveMessageArgs 保存一轮对话消息所需的参数
type SaveMessageArgs struct {
	HistoryID          string
	Name               string
	Role               MessageRole
	Content            string
	Images             []string
	Sources            RawJSON
	Search             RawJSON
	Documents          RawJSON
	MessageType        string
	GenerationInfo     RawJSON
	ReasoningTimeTaken int64
	// TimeOffset 毫秒, 用于同一时刻连续写入的消息保持顺序
	TimeOffset int64
}

type UpdateMessageArgs struct {
	Content        *string
	Images         []string
	Sources        RawJSON
	GenerationInfo RawJSON
}

// ChatSearchResult 模糊搜索命中的会话
type ChatSearchResult struct {
	History      *ChatHistory `json:"history"`
	MatchedTitle bool         `json:"matchedTitle"`
	MessageID    string       `json:"messageId,omitempty"`
}
