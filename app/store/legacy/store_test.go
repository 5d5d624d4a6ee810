package legacy

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/testutils"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	kv, err := NewMemoryKV("")
	require.NoError(t, err)
	return NewStore(kv, 0)
}

func setRaw(t *testing.T, s *Store, key string, v any) {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, s.KV().Set(context.Background(), map[string]json.RawMessage{key: raw}))
}

func TestChatHistoriesAndMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	histories, err := s.ChatHistories(ctx)
	require.NoError(t, err)
	assert.Empty(t, histories)

	require.NoError(t, s.AddChatHistory(ctx, types.ChatHistory{ID: "h1", Title: "first", CreatedAt: 1}))
	require.NoError(t, s.AddChatHistory(ctx, types.ChatHistory{ID: "h2", Title: "second", CreatedAt: 2}))

	histories, err = s.ChatHistories(ctx)
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, "h2", histories[0].ID)

	require.NoError(t, s.AddMessage(ctx, types.Message{ID: "m1", HistoryID: "h1", Role: types.MESSAGE_ROLE_USER, Content: "hi"}))
	require.NoError(t, s.AddMessage(ctx, types.Message{ID: "m2", HistoryID: "h1", Role: types.MESSAGE_ROLE_ASSISTANT, Content: "hello"}))

	messages, err := s.Messages(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m2", messages[0].ID)

	require.NoError(t, s.SetLastUsed(ctx, "h1", "llama3", types.LastUsedPrompt{PromptID: "p1", PromptContent: "be brief"}))
	modelID, err := s.LastUsedModel(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "llama3", modelID)
	prompt, err := s.LastUsedPrompt(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "p1", prompt.PromptID)

	modelID, err = s.LastUsedModel(ctx, "h2")
	require.NoError(t, err)
	assert.Empty(t, modelID)

	// 只删除指定会话, 其余会话与消息保留
	require.NoError(t, s.DeleteChatHistories(ctx, "h2"))
	histories, err = s.ChatHistories(ctx)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	assert.Equal(t, "h1", histories[0].ID)
	messages, err = s.Messages(ctx, "h1")
	require.NoError(t, err)
	assert.NotEmpty(t, messages)
	require.NoError(t, s.DeleteChatHistories(ctx))

	require.NoError(t, s.DeleteAllChatHistory(ctx))
	histories, err = s.ChatHistories(ctx)
	require.NoError(t, err)
	assert.Empty(t, histories)
	messages, err = s.Messages(ctx, "h1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestListByDBType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutKnowledge(ctx, types.Knowledge{ID: "pa_knowledge_1", Title: "k1", Status: types.KNOWLEDGE_STATUS_FINISHED}))
	require.NoError(t, s.PutOpenAIConfig(ctx, types.OpenAIModelConfig{ID: "openai-1", Name: "local", BaseURL: "http://localhost:11434/v1"}))
	require.NoError(t, s.PutModel(ctx, types.Model{ID: "llama3_model-1", ModelID: "llama3", ProviderID: "openai-1"}))
	setRaw(t, s, "chatHistories", []types.ChatHistory{})
	setRaw(t, s, "user_id", "pa_user")

	knowledge, err := s.Knowledge(ctx)
	require.NoError(t, err)
	require.Len(t, knowledge, 1)
	assert.Equal(t, "k1", knowledge[0].Title)

	configs, err := s.ListOpenAIConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, types.DB_TYPE_OPENAI, configs[0].DBType)

	models, err := s.ListModels(ctx)
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "llama3", models[0].ModelID)

	require.NoError(t, s.DeleteModel(ctx, "llama3_model-1"))
	models, err = s.ListModels(ctx)
	require.NoError(t, err)
	assert.Empty(t, models)

	userID, err := s.UserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pa_user", userID)
}

func TestDocumentsAreDecompressed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := types.Knowledge{
		ID:     utils.GenDocumentID(),
		Title:  "notes.pdf",
		Status: types.KNOWLEDGE_STATUS_PROCESSING,
		Source: types.KnowledgeSources{{SourceID: "s1", Type: "pdf", Content: "long text"}},
	}
	require.NoError(t, s.PutDocument(ctx, doc))

	all, err := s.KV().GetAll(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(all[doc.ID]), "compressedContent")
	assert.NotContains(t, string(all[doc.ID]), "long text")

	docs, err := s.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, types.DB_TYPE_DOCUMENT, docs[0].DBType)
	assert.Equal(t, "long text", docs[0].Source[0].Content)
}

func TestVectorsNicknamesAndSessionFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutVector(ctx, types.VectorData{
		ID:      types.VectorIDFor("k1"),
		Vectors: []types.VectorFragment{{FileID: "f1", Content: "a", Embedding: types.Embedding{0.1, 0.2}}},
	}))
	vectors, err := s.Vectors(ctx)
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Equal(t, "vector:k1", vectors[0].ID)
	assert.Len(t, vectors[0].Vectors, 1)

	require.NoError(t, s.SaveNickname(ctx, types.ModelNickname{ModelID: "b", ModelName: "Bee"}))
	require.NoError(t, s.SaveNickname(ctx, types.ModelNickname{ModelID: "a", ModelName: "Ay", ModelAvatar: "a.png"}))
	nicknames, err := s.Nicknames(ctx)
	require.NoError(t, err)
	require.Len(t, nicknames, 2)
	assert.Equal(t, "a", nicknames[0].ModelID)
	assert.Equal(t, "a", nicknames[0].ID)

	setRaw(t, s, PREFIX_SESSION_FILES+"h1", map[string]any{
		"files":            []types.UploadedFile{{ID: "u1", Filename: "a.txt"}},
		"retrievalEnabled": true,
	})
	ids, err := s.SessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"h1"}, ids)

	files, err := s.SessionFiles(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, files)
	assert.Equal(t, "h1", files.SessionID)
	assert.True(t, files.RetrievalEnabled)

	files, err = s.SessionFiles(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, files)
}

func TestPromptMirror(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutPrompt(ctx, types.Prompt{ID: "p1", Title: "one"}))
	require.NoError(t, s.PutPrompt(ctx, types.Prompt{ID: "p2", Title: "two"}))
	require.NoError(t, s.PutPrompt(ctx, types.Prompt{ID: "p1", Title: "one v2"}))

	prompts, err := s.ListPrompts(ctx)
	require.NoError(t, err)
	require.Len(t, prompts, 2)
	assert.Equal(t, "p2", prompts[0].ID)
	assert.Equal(t, "one v2", prompts[1].Title)

	require.NoError(t, s.DeletePrompt(ctx, "p2"))
	counts, err := s.EntityCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Prompts)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	_, err := s.Prompts(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsStorageUnavailable(err))

	err = s.PutPrompt(context.Background(), types.Prompt{ID: "p1"})
	assert.True(t, errors.IsStorageUnavailable(err))
}

func TestMemoryKVPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy", "storage.json")
	kv, err := NewMemoryKV(path)
	require.NoError(t, err)
	s := NewStore(kv, 0)
	require.NoError(t, s.SetUserID(context.Background(), "pa_user"))

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := NewMemoryKV(path)
	require.NoError(t, err)
	userID, err := NewStore(reopened, 0).UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pa_user", userID)
}

func TestRedisKV(t *testing.T) {
	addr := testutils.EnvOrSkip(t, testutils.ENV_TEST_REDIS_ADDR)

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	kv := NewRedisKV(client, "test_"+utils.GenUniqIDStr())
	ctx := context.Background()
	t.Cleanup(func() {
		kv.Clear(ctx)
		kv.Close()
	})

	s := NewStore(kv, 100)
	require.NoError(t, s.AddChatHistory(ctx, types.ChatHistory{ID: "h1"}))
	require.NoError(t, s.PutModel(ctx, types.Model{ID: "m1", ModelID: "llama3", ProviderID: "openai-1"}))

	histories, err := s.ChatHistories(ctx)
	require.NoError(t, err)
	assert.Len(t, histories, 1)

	models, err := s.Models(ctx)
	require.NoError(t, err)
	assert.Len(t, models, 1)

	require.NoError(t, kv.Close())
	_, err = s.ChatHistories(ctx)
	assert.True(t, errors.IsStorageUnavailable(err))
}
