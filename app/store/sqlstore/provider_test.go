package sqlstore

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/pkg/sqlstore"
	"github.com/pageassist/localstore/pkg/testutils"
	"github.com/pageassist/localstore/pkg/types"
)

type testConnectConfig struct {
	driver string
	dsn    string
}

func (c testConnectConfig) DriverName() string { return c.driver }
func (c testConnectConfig) FormatDSN() string  { return c.dsn }

// setupTestProvider 默认使用内存 sqlite, 设置 PAGEASSIST_TEST_POSTGRES_DSN 后改为 postgres
func setupTestProvider(t *testing.T) *Provider {
	t.Helper()
	conf := testConnectConfig{
		driver: sqlstore.DRIVER_SQLITE,
		dsn:    testutils.SqliteMemoryDSN(strings.ReplaceAll(t.Name(), "/", "_")),
	}
	if dsn := testutils.PostgresDSN(t); dsn != "" {
		conf = testConnectConfig{driver: sqlstore.DRIVER_POSTGRES, dsn: dsn}
	}

	p, err := Setup(conf)
	require.NoError(t, err)
	require.NoError(t, p.Install())
	t.Cleanup(func() {
		ctx := context.Background()
		p.ChatHistoryStore().Clear(ctx)
		p.MessageStore().Clear(ctx)
		p.SessionFilesStore().Clear(ctx)
		p.KnowledgeStore().Clear(ctx)
		p.DocumentStore().Clear(ctx)
		p.VectorStore().Clear(ctx)
		p.OpenAIConfigStore().Clear(ctx)
		p.CustomModelStore().Clear(ctx)
		p.ModelStateStore().Clear(ctx)
		p.Close()
	})
	return p
}

func TestInstallIsIdempotent(t *testing.T) {
	p := setupTestProvider(t)
	assert.NoError(t, p.Install())

	var count int
	require.NoError(t, p.GetMaster().Get(&count, "SELECT COUNT(*) FROM "+types.TABLE_SCHEMA_MIGRATIONS.Name()))
	assert.GreaterOrEqual(t, count, 1)
}

func TestChatHistoryStore(t *testing.T) {
	p := setupTestProvider(t)
	ctx := context.Background()
	s := p.ChatHistoryStore()

	for i, id := range []string{"h1", "h2", "h3"} {
		require.NoError(t, s.Create(ctx, types.ChatHistory{
			ID:            id,
			Title:         "chat " + id,
			MessageSource: types.MESSAGE_SOURCE_WEB_UI,
			IsPinned:      i == 0,
			CreatedAt:     int64(1000 + i),
		}))
	}

	list, err := s.ListChatHistories(ctx, types.ListChatHistoriesOptions{}, 1, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "h3", list[0].ID)
	assert.Equal(t, "h2", list[1].ID)

	pinned := true
	total, err := s.Total(ctx, types.ListChatHistoriesOptions{Pinned: &pinned})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	title := "renamed"
	prompt := types.LastUsedPrompt{PromptID: "p1", PromptContent: "be brief"}
	require.NoError(t, s.Update(ctx, "h1", types.UpdateChatHistoryArgs{Title: &title, LastUsedPrompt: &prompt}))

	h1, err := s.GetChatHistory(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", h1.Title)
	assert.True(t, h1.IsPinned)
	assert.Equal(t, prompt, h1.LastUsedPrompt)

	// Put 覆盖已有记录
	h1.Title = "overwritten"
	require.NoError(t, s.Put(ctx, *h1))
	h1, err = s.GetChatHistory(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "overwritten", h1.Title)

	require.NoError(t, s.BatchDelete(ctx, []string{"h1", "h2"}))
	ids, err := s.ListChatHistoryIDs(ctx, types.ListChatHistoriesOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"h3"}, ids)
}

func TestMessageStore(t *testing.T) {
	p := setupTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.ChatHistoryStore().Create(ctx, types.ChatHistory{ID: "h1"}))
	require.NoError(t, p.MessageStore().BatchCreate(ctx, []types.Message{
		{ID: "m2", HistoryID: "h1", Role: types.MESSAGE_ROLE_ASSISTANT, Content: "hi", CreatedAt: 20, Sources: types.RawJSON(`[{"url":"a"}]`)},
		{ID: "m1", HistoryID: "h1", Role: types.MESSAGE_ROLE_USER, Content: "hello", CreatedAt: 10, Images: types.StringList{"data:image/png;base64,xx"}},
		{ID: "m3", HistoryID: "gone", Role: types.MESSAGE_ROLE_USER, Content: "orphan", CreatedAt: 30},
	}))

	list, err := p.MessageStore().ListMessages(ctx, types.ListMessagesOptions{HistoryID: "h1"}, types.NO_PAGINATION, types.NO_PAGINATION)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "m1", list[0].ID)
	assert.Equal(t, types.StringList{"data:image/png;base64,xx"}, list[0].Images)
	assert.JSONEq(t, `[{"url":"a"}]`, list[1].Sources.String())

	content := "edited"
	require.NoError(t, p.MessageStore().Update(ctx, "m2", types.UpdateMessageArgs{Content: &content}))
	m2, err := p.MessageStore().GetMessage(ctx, "m2")
	require.NoError(t, err)
	assert.Equal(t, "edited", m2.Content)

	n, err := p.MessageStore().DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = p.MessageStore().DeleteByHistoryIDs(ctx, []string{"h1"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestSessionFilesStore(t *testing.T) {
	p := setupTestProvider(t)
	ctx := context.Background()
	s := p.SessionFilesStore()

	require.NoError(t, s.Put(ctx, types.SessionFiles{
		SessionID: "h1",
		Files:     types.UploadedFiles{{ID: "f1", Filename: "a.txt", Size: 3, Processed: true}},
	}))
	require.NoError(t, s.Put(ctx, types.SessionFiles{
		SessionID:        "h1",
		Files:            types.UploadedFiles{{ID: "f1"}, {ID: "f2", Filename: "b.pdf"}},
		RetrievalEnabled: true,
	}))

	got, err := s.GetSessionFiles(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, got.RetrievalEnabled)
	assert.Len(t, got.Files, 2)

	n, err := s.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestKnowledgeStoreVersioning(t *testing.T) {
	p := setupTestProvider(t)
	ctx := context.Background()
	s := p.KnowledgeStore()

	require.NoError(t, s.Create(ctx, types.Knowledge{
		ID:     "pa_knowledge_1",
		Title:  "kb",
		Source: types.KnowledgeSources{{SourceID: "s1", Type: "pdf", Content: "raw"}},
	}))

	kb, err := s.GetKnowledge(ctx, "pa_knowledge_1")
	require.NoError(t, err)
	assert.Equal(t, types.DB_TYPE_KNOWLEDGE, kb.DBType)
	assert.Equal(t, types.KNOWLEDGE_STATUS_PENDING, kb.Status)
	assert.EqualValues(t, 0, kb.Version)

	ok, err := s.UpdateWithVersion(ctx, kb.ID, kb.Version, types.KNOWLEDGE_STATUS_PROCESSING, kb.Source)
	require.NoError(t, err)
	assert.True(t, ok)

	// 旧版本号写入失败
	ok, err = s.UpdateWithVersion(ctx, kb.ID, kb.Version, types.KNOWLEDGE_STATUS_FINISHED, kb.Source.StripContent())
	require.NoError(t, err)
	assert.False(t, ok)

	kb, err = s.GetKnowledge(ctx, "pa_knowledge_1")
	require.NoError(t, err)
	assert.Equal(t, types.KNOWLEDGE_STATUS_PROCESSING, kb.Status)
	assert.EqualValues(t, 1, kb.Version)
	assert.Equal(t, "raw", kb.Source[0].Content)

	require.NoError(t, s.Put(ctx, *kb))
	kb, err = s.GetKnowledge(ctx, "pa_knowledge_1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, kb.Version)

	// document 表相互独立
	require.NoError(t, p.DocumentStore().Create(ctx, types.Knowledge{ID: "pa_document_1"}))
	total, err := s.Total(ctx, types.ListKnowledgeOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	doc, err := p.KnowledgeStoreFor(types.DB_TYPE_DOCUMENT).GetKnowledge(ctx, "pa_document_1")
	require.NoError(t, err)
	assert.Equal(t, types.DB_TYPE_DOCUMENT, doc.DBType)
}

func TestVectorStore(t *testing.T) {
	p := setupTestProvider(t)
	ctx := context.Background()
	s := p.VectorStore()
	vectorID := types.VectorIDFor("pa_knowledge_1")

	require.NoError(t, p.KnowledgeStore().Create(ctx, types.Knowledge{ID: "pa_knowledge_1"}))
	require.NoError(t, s.Append(ctx, vectorID, []types.VectorFragment{
		{FileID: "s1", Content: "a", Embedding: types.Embedding{0.1, 0.2}},
		{FileID: "s2", Content: "b", Embedding: types.Embedding{0.3, 0.4}, Metadata: types.RawJSON(`{"page":1}`)},
	}))
	require.NoError(t, s.Append(ctx, vectorID, []types.VectorFragment{{FileID: "s1", Content: "a"}}))
	require.NoError(t, s.Append(ctx, "vector:gone", []types.VectorFragment{{FileID: "x", Content: "x"}}))

	list, err := s.ListFragments(ctx, vectorID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, v := range list {
		assert.EqualValues(t, i, v.Position)
	}
	assert.Equal(t, types.Embedding{0.3, 0.4}, list[1].Embedding)
	assert.Equal(t, "0cc175b9c0f1b6a831c399e269772661", list[0].ContentHash)

	n, err := s.DeleteByFileID(ctx, vectorID, "s1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = s.DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ids, err := s.ListVectorIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{vectorID}, ids)
}

func TestCustomModelStore(t *testing.T) {
	p := setupTestProvider(t)
	ctx := context.Background()

	require.NoError(t, p.OpenAIConfigStore().Create(ctx, types.OpenAIModelConfig{ID: "openai-1", Name: "local", BaseURL: "http://localhost:1234/v1"}))
	require.NoError(t, p.CustomModelStore().Create(ctx, types.Model{ID: "llama_model-1", ModelID: "llama", ProviderID: "openai-1"}))
	require.NoError(t, p.CustomModelStore().Create(ctx, types.Model{ID: "qwen_model-2", ModelID: "qwen", ProviderID: "openai-2"}))
	require.NoError(t, p.ModelStateStore().Put(ctx, types.ModelState{ModelID: "llama", IsEnabled: false}))

	m, err := p.CustomModelStore().GetModelByLookup(ctx, types.ModelLookup("llama", "openai-1"))
	require.NoError(t, err)
	assert.Equal(t, "llama_model-1", m.ID)
	assert.Equal(t, types.DB_TYPE_OPENAI_MODEL, m.DBType)

	orphans, err := p.CustomModelStore().DeleteOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen"}, orphans)

	deleted, err := p.CustomModelStore().DeleteByProviderID(ctx, "openai-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"llama"}, deleted)

	state, err := p.ModelStateStore().GetModelState(ctx, "llama")
	require.NoError(t, err)
	assert.False(t, state.IsEnabled)
	assert.Equal(t, "llama", state.ID)
}
