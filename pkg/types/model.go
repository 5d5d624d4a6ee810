package types

import (
	"fmt"
	"regexp"

	sq "github.com/Masterminds/squirrel"
)

const DB_TYPE_OPENAI_MODEL = "openai_model"

type ModelType string

const (
	MODEL_TYPE_CHAT      ModelType = "chat"
	MODEL_TYPE_EMBEDDING ModelType = "embedding"
)

// Model 用户在服务商下注册的自定义模型
type Model struct {
	ID         string    `db:"id" json:"id"`
	ModelID    string    `db:"model_id" json:"model_id"`
	Name       string    `db:"name" json:"name"`
	ModelName  string    `db:"model_name" json:"model_name,omitempty"`
	ModelImage string    `db:"model_image" json:"model_image,omitempty"`
	ProviderID string    `db:"provider_id" json:"provider_id"`
	Lookup     string    `db:"lookup" json:"lookup"`
	ModelType  ModelType `db:"model_type" json:"model_type"`
	DBType     string    `db:"db_type" json:"db_type"`
}

func (m Model) Validate() error {
	if m.ID == "" || m.ModelID == "" || m.ProviderID == "" {
		return fmt.Errorf("model requires id, model_id and provider_id")
	}
	return nil
}

// ModelLookup 同一服务商下同一个 model_id 只能注册一次
func ModelLookup(modelID, providerID string) string {
	return fmt.Sprintf("%s_%s", modelID, providerID)
}

var accountModelPrefix = regexp.MustCompile(`^accounts/[^/]+/models/`)

// DisplayModelName 去掉 fireworks 风格的 accounts/<x>/models/ 前缀
func DisplayModelName(modelID string) string {
	return accountModelPrefix.ReplaceAllString(modelID, "")
}

type ListModelsOptions struct {
	ProviderID string
	ModelType  ModelType
}

func (opts ListModelsOptions) Apply(query *sq.SelectBuilder) {
	if opts.ProviderID != "" {
		*query = query.Where(sq.Eq{"provider_id": opts.ProviderID})
	}
	if opts.ModelType != "" {
		*query = query.Where(sq.Eq{"model_type": opts.ModelType})
	}
}

type CreateModelArgs struct {
	ModelID    string
	Name       string
	ProviderID string
	ModelType  ModelType
}

// ModelNickname 模型的展示名与头像
type ModelNickname struct {
	ID          string `db:"id" json:"id"`
	ModelID     string `db:"model_id" json:"model_id"`
	ModelName   string `db:"model_name" json:"model_name"`
	ModelAvatar string `db:"model_avatar" json:"model_avatar,omitempty"`
}

func (n ModelNickname) Validate() error {
	if n.ModelID == "" {
		return fmt.Errorf("model nickname: model_id is required")
	}
	return nil
}

// ModelState 模型启用状态, 未记录时视为启用
type ModelState struct {
	ID        string `db:"id" json:"id"`
	ModelID   string `db:"model_id" json:"model_id"`
	IsEnabled bool   `db:"is_enabled" json:"is_enabled"`
}

func (s ModelState) Validate() error {
	if s.ModelID == "" {
		return fmt.Errorf("model state: model_id is required")
	}
	return nil
}

// ProviderState 服务商启用状态, 未记录时视为启用
type ProviderState struct {
	ID         string `db:"id" json:"id"`
	ProviderID string `db:"provider_id" json:"provider_id"`
	IsEnabled  bool   `db:"is_enabled" json:"is_enabled"`
}

func (s ProviderState) Validate() error {
	if s.ProviderID == "" {
		return fmt.Errorf("provider state: provider_id is required")
	}
	return nil
}
