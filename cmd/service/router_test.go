package service

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/cmd/service/handler"
	"github.com/pageassist/localstore/pkg/sqlstore"
	"github.com/pageassist/localstore/pkg/testutils"
	"github.com/pageassist/localstore/pkg/types"
)

type testResponse struct {
	Meta struct {
		Code      int    `json:"code"`
		Kind      string `json:"kind"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"meta"`
	Data json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, name ...string) *handler.HttpSrv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var cfg core.CoreConfig
	cfg.Store.Driver = sqlstore.DRIVER_SQLITE
	cfg.Store.DSN = testutils.SqliteMemoryDSN(t.Name() + strings.Join(name, ""))
	cfg.Mirror.Enabled = true
	cfg.SetDefaults()

	c, err := core.NewCore(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		c.Close()
	})

	s := &handler.HttpSrv{Core: c, Engine: c.HttpEngine()}
	setupHttpRouter(s)
	return s
}

func doRequest(t *testing.T, s *handler.HttpSrv, method, path string, body any) (int, testResponse) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)

	var res testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return w.Code, res
}

func TestPromptRoutes(t *testing.T) {
	s := newTestServer(t)

	code, res := doRequest(t, s, http.MethodPost, "/api/v1/prompts", map[string]any{"title": "brief", "content": "be brief"})
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, res.Meta.RequestID)
	var prompt types.Prompt
	require.NoError(t, json.Unmarshal(res.Data, &prompt))
	assert.Equal(t, "be brief", prompt.Content)

	code, res = doRequest(t, s, http.MethodGet, "/api/v1/prompts", nil)
	require.Equal(t, http.StatusOK, code)
	var list []types.Prompt
	require.NoError(t, json.Unmarshal(res.Data, &list))
	assert.Len(t, list, 1)

	code, _ = doRequest(t, s, http.MethodDelete, "/api/v1/prompts/"+prompt.ID, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestChatRoutes(t *testing.T) {
	s := newTestServer(t)

	code, res := doRequest(t, s, http.MethodPost, "/api/v1/chat/histories", map[string]any{"title": "hello"})
	require.Equal(t, http.StatusOK, code)
	var history types.ChatHistory
	require.NoError(t, json.Unmarshal(res.Data, &history))

	base := "/api/v1/chat/histories/" + history.ID
	code, _ = doRequest(t, s, http.MethodPost, base+"/messages", map[string]any{"role": "user", "content": "hi"})
	require.Equal(t, http.StatusOK, code)
	code, _ = doRequest(t, s, http.MethodPost, base+"/messages", map[string]any{"role": "assistant", "content": "hello", "time_offset": 1})
	require.Equal(t, http.StatusOK, code)

	code, _ = doRequest(t, s, http.MethodPut, base+"/messages/1", map[string]any{"content": "hello there"})
	require.Equal(t, http.StatusOK, code)

	code, res = doRequest(t, s, http.MethodGet, base+"/messages", nil)
	require.Equal(t, http.StatusOK, code)
	var messages []types.Message
	require.NoError(t, json.Unmarshal(res.Data, &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "hello there", messages[1].Content)

	code, res = doRequest(t, s, http.MethodPost, base+"/messages", map[string]any{"content": "no role"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, http.StatusBadRequest, res.Meta.Code)
}

func TestChatHistoryPaging(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i <= types.DEFAULT_PAGE_SIZE; i++ {
		code, _ := doRequest(t, s, http.MethodPost, "/api/v1/chat/histories", map[string]any{"title": "h"})
		require.Equal(t, http.StatusOK, code)
	}

	code, res := doRequest(t, s, http.MethodGet, "/api/v1/chat/histories", nil)
	require.Equal(t, http.StatusOK, code)
	var page types.ChatHistoryPage
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Len(t, page.Histories, types.DEFAULT_PAGE_SIZE)
	assert.True(t, page.HasMore)
	assert.EqualValues(t, types.DEFAULT_PAGE_SIZE+1, page.TotalCount)

	code, res = doRequest(t, s, http.MethodGet, "/api/v1/chat/histories?page=2&pagesize=20", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(res.Data, &page))
	assert.Len(t, page.Histories, types.DEFAULT_PAGE_SIZE+1-20)
	assert.False(t, page.HasMore)
}

func TestKnowledgeRoutes(t *testing.T) {
	s := newTestServer(t)

	code, res := doRequest(t, s, http.MethodGet, "/api/v1/knowledge/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NotFound", res.Meta.Kind)

	code, res = doRequest(t, s, http.MethodPost, "/api/v1/documents", map[string]any{
		"title":  "doc",
		"source": []map[string]any{{"source_id": "s1", "type": "pdf", "content": "text"}},
	})
	require.Equal(t, http.StatusOK, code)
	var doc types.Knowledge
	require.NoError(t, json.Unmarshal(res.Data, &doc))
	assert.Equal(t, types.DB_TYPE_DOCUMENT, doc.DBType)

	// document 与 knowledge 分别存储
	code, res = doRequest(t, s, http.MethodGet, "/api/v1/knowledge", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(res.Data))

	path := "/api/v1/documents/" + doc.ID + "/status"
	code, _ = doRequest(t, s, http.MethodPut, path, map[string]any{"status": "finished"})
	require.Equal(t, http.StatusOK, code)

	code, res = doRequest(t, s, http.MethodPut, path, map[string]any{"status": "pending"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidArgument", res.Meta.Kind)
}

func TestDataRoutes(t *testing.T) {
	s := newTestServer(t)

	code, _ := doRequest(t, s, http.MethodPost, "/api/v1/prompts", map[string]any{"title": "brief", "content": "be brief"})
	require.Equal(t, http.StatusOK, code)

	code, res := doRequest(t, s, http.MethodGet, "/api/v1/data/export?kinds=prompts", nil)
	require.Equal(t, http.StatusOK, code)
	var bundle types.ExportBundle
	require.NoError(t, json.Unmarshal(res.Data, &bundle))
	require.Len(t, bundle.Envelopes, 1)

	other := newTestServer(t, "_other")
	code, res = doRequest(t, other, http.MethodPost, "/api/v1/data/import/bundle", bundle)
	require.Equal(t, http.StatusOK, code)
	var results []types.ImportResult
	require.NoError(t, json.Unmarshal(res.Data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Inserted)

	code, res = doRequest(t, other, http.MethodPost, "/api/v1/data/import", map[string]any{
		"version": types.ENVELOPE_VERSION,
		"kind":    "unknown",
		"items":   []any{},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidArgument", res.Meta.Kind)

	code, res = doRequest(t, other, http.MethodPost, "/api/v1/data/reconcile", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"orphanMessages":0,"orphanSessionFiles":0,"orphanVectors":0,"orphanModels":0}`, string(res.Data))
}

func TestMetricsRoute(t *testing.T) {
	s := newTestServer(t)
	doRequest(t, s, http.MethodGet, "/api/v1/prompts", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_response_time")
}

func TestSetupReconcile(t *testing.T) {
	s := newTestServer(t)
	assert.NotNil(t, setupReconcile(s.Core))
}
