package store

import (
	"context"

	"github.com/pageassist/localstore/pkg/sqlstore"
	"github.com/pageassist/localstore/pkg/types"
)

type ChatHistoryStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.ChatHistory) error
	// Put 按 id 覆盖写入
	Put(ctx context.Context, data types.ChatHistory) error
	GetChatHistory(ctx context.Context, id string) (*types.ChatHistory, error)
	// ListChatHistories 按 created_at 倒序
	ListChatHistories(ctx context.Context, opts types.ListChatHistoriesOptions, page, pageSize uint64) ([]*types.ChatHistory, error)
	ListChatHistoryIDs(ctx context.Context, opts types.ListChatHistoriesOptions) ([]string, error)
	Total(ctx context.Context, opts types.ListChatHistoriesOptions) (uint64, error)
	Update(ctx context.Context, id string, args types.UpdateChatHistoryArgs) error
	Delete(ctx context.Context, id string) error
	BatchDelete(ctx context.Context, ids []string) error
	Clear(ctx context.Context) error
}

type MessageStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Message) error
	BatchCreate(ctx context.Context, datas []types.Message) error
	Put(ctx context.Context, data types.Message) error
	GetMessage(ctx context.Context, id string) (*types.Message, error)
	// ListMessages 按 created_at 正序
	ListMessages(ctx context.Context, opts types.ListMessagesOptions, page, pageSize uint64) ([]*types.Message, error)
	Total(ctx context.Context, opts types.ListMessagesOptions) (uint64, error)
	Update(ctx context.Context, id string, args types.UpdateMessageArgs) error
	Delete(ctx context.Context, id string) error
	BatchDelete(ctx context.Context, ids []string) error
	DeleteByHistoryIDs(ctx context.Context, historyIDs []string) (int64, error)
	// DeleteOrphans 删除所属会话已不存在的消息
	DeleteOrphans(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type SessionFilesStore interface {
	sqlstore.SqlCommons
	Put(ctx context.Context, data types.SessionFiles) error
	GetSessionFiles(ctx context.Context, sessionID string) (*types.SessionFiles, error)
	ListSessionFiles(ctx context.Context) ([]*types.SessionFiles, error)
	Delete(ctx context.Context, sessionID string) error
	DeleteBySessionIDs(ctx context.Context, sessionIDs []string) (int64, error)
	DeleteOrphans(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type PromptStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Prompt) error
	Put(ctx context.Context, data types.Prompt) error
	GetPrompt(ctx context.Context, id string) (*types.Prompt, error)
	ListPrompts(ctx context.Context) ([]*types.Prompt, error)
	Total(ctx context.Context) (uint64, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type WebshareStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Webshare) error
	Put(ctx context.Context, data types.Webshare) error
	GetWebshare(ctx context.Context, id string) (*types.Webshare, error)
	ListWebshares(ctx context.Context) ([]*types.Webshare, error)
	Total(ctx context.Context) (uint64, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type UserSettingStore interface {
	sqlstore.SqlCommons
	Put(ctx context.Context, data types.UserSetting) error
	GetUserSetting(ctx context.Context, id string) (*types.UserSetting, error)
	ListUserSettings(ctx context.Context) ([]*types.UserSetting, error)
	Clear(ctx context.Context) error
}

type MemoryStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Memory) error
	Put(ctx context.Context, data types.Memory) error
	GetMemory(ctx context.Context, id string) (*types.Memory, error)
	ListMemories(ctx context.Context) ([]*types.Memory, error)
	UpdateContent(ctx context.Context, id, content string) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type ProcessedMediaStore interface {
	sqlstore.SqlCommons
	Put(ctx context.Context, data types.ProcessedMedia) error
	GetProcessedMedia(ctx context.Context, id string) (*types.ProcessedMedia, error)
	ListProcessedMedia(ctx context.Context) ([]*types.ProcessedMedia, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// KnowledgeStore knowledge 与 document 两张表共用同一套实现
type KnowledgeStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Knowledge) error
	// Put 覆盖写入并递增 version
	Put(ctx context.Context, data types.Knowledge) error
	GetKnowledge(ctx context.Context, id string) (*types.Knowledge, error)
	ListKnowledges(ctx context.Context, opts types.ListKnowledgeOptions, page, pageSize uint64) ([]*types.Knowledge, error)
	ListKnowledgeIDs(ctx context.Context) ([]string, error)
	Total(ctx context.Context, opts types.ListKnowledgeOptions) (uint64, error)
	// UpdateWithVersion 仅当 version 未变化时写入, 返回是否命中
	UpdateWithVersion(ctx context.Context, id string, version int64, status types.KnowledgeStatus, source types.KnowledgeSources) (bool, error)
	UpdateKnowledgebase(ctx context.Context, id string, args types.UpdateKnowledgebaseArgs) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type VectorStore interface {
	sqlstore.SqlCommons
	// Append 追加到集合末尾, 不做去重
	Append(ctx context.Context, vectorID string, fragments []types.VectorFragment) error
	ListFragments(ctx context.Context, vectorID string) ([]types.VectorFragment, error)
	ListVectorIDs(ctx context.Context) ([]string, error)
	Count(ctx context.Context, vectorID string) (uint64, error)
	Delete(ctx context.Context, vectorID string) error
	DeleteByFileID(ctx context.Context, vectorID, fileID string) (int64, error)
	// DeleteOrphans 删除 knowledge 与 document 都已不存在的向量集合
	DeleteOrphans(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

type OpenAIConfigStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.OpenAIModelConfig) error
	Put(ctx context.Context, data types.OpenAIModelConfig) error
	GetOpenAIConfig(ctx context.Context, id string) (*types.OpenAIModelConfig, error)
	ListOpenAIConfigs(ctx context.Context) ([]*types.OpenAIModelConfig, error)
	Update(ctx context.Context, id string, args types.UpdateOpenAIConfigArgs) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

type CustomModelStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Model) error
	Put(ctx context.Context, data types.Model) error
	GetModel(ctx context.Context, id string) (*types.Model, error)
	GetModelByLookup(ctx context.Context, lookup string) (*types.Model, error)
	ListModels(ctx context.Context, opts types.ListModelsOptions) ([]*types.Model, error)
	Delete(ctx context.Context, id string) error
	DeleteByProviderID(ctx context.Context, providerID string) ([]string, error)
	// DeleteOrphans 删除服务商已不存在的模型, 返回被删除的 model_id
	DeleteOrphans(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
}

type ModelNicknameStore interface {
	sqlstore.SqlCommons
	Put(ctx context.Context, data types.ModelNickname) error
	GetNickname(ctx context.Context, modelID string) (*types.ModelNickname, error)
	ListNicknames(ctx context.Context) ([]*types.ModelNickname, error)
	Delete(ctx context.Context, modelID string) error
	Clear(ctx context.Context) error
}

type ModelStateStore interface {
	sqlstore.SqlCommons
	Put(ctx context.Context, data types.ModelState) error
	GetModelState(ctx context.Context, modelID string) (*types.ModelState, error)
	ListModelStates(ctx context.Context) ([]*types.ModelState, error)
	DeleteByModelIDs(ctx context.Context, modelIDs []string) error
	Clear(ctx context.Context) error
}

type ProviderStateStore interface {
	sqlstore.SqlCommons
	Put(ctx context.Context, data types.ProviderState) error
	GetProviderState(ctx context.Context, providerID string) (*types.ProviderState, error)
	ListProviderStates(ctx context.Context) ([]*types.ProviderState, error)
	Delete(ctx context.Context, providerID string) error
	Clear(ctx context.Context) error
}

// Mirror 旧版布局的镜像存储, 提示词与模型服务商配置写入主存储后同步一份, 主存储不可用时从这里读取
type Mirror interface {
	PutPrompt(ctx context.Context, data types.Prompt) error
	DeletePrompt(ctx context.Context, id string) error
	ListPrompts(ctx context.Context) ([]*types.Prompt, error)
	PutOpenAIConfig(ctx context.Context, data types.OpenAIModelConfig) error
	DeleteOpenAIConfig(ctx context.Context, id string) error
	ListOpenAIConfigs(ctx context.Context) ([]*types.OpenAIModelConfig, error)
	PutModel(ctx context.Context, data types.Model) error
	DeleteModel(ctx context.Context, id string) error
	ListModels(ctx context.Context) ([]*types.Model, error)
}
