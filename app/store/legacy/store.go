package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

// 旧版存储中固定的 key 与前缀
const (
	KEY_CHAT_HISTORIES = "chatHistories"
	KEY_PROMPTS        = "prompts"
	KEY_WEBSHARES      = "webshares"
	KEY_USER_ID        = "user_id"
	KEY_MODEL_NICKNAME = "modelNickname"

	PREFIX_LAST_USED_MODEL  = "lastUsedChatModel-"
	PREFIX_LAST_USED_PROMPT = "lastUsedChatSystemPrompt-"
	PREFIX_SESSION_FILES    = "session_files_"
	PREFIX_DOCUMENT         = "pa_document_"
)

// Store 按旧版布局读写 KV
type Store struct {
	kv      KV
	limiter *rate.Limiter
}

// NewStore readQPS <= 0 表示读取不限速
func NewStore(kv KV, readQPS float64) *Store {
	s := &Store{kv: kv}
	if readQPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(readQPS), max(1, int(readQPS)))
	}
	return s
}

func (s *Store) KV() KV {
	return s.kv
}

func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return errors.New("LegacyStore.wait", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (s *Store) getAll(ctx context.Context) (map[string]json.RawMessage, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.kv.GetAll(ctx)
}

// getJSON key 不存在时返回 false
func (s *Store) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	if err := s.wait(ctx); err != nil {
		return false, err
	}
	res, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	raw, ok := res[key]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	if err = json.Unmarshal(raw, dest); err != nil {
		return false, errors.New("LegacyStore.getJSON", i18n.ERROR_INTERNAL, fmt.Errorf("decode %s: %w", key, err))
	}
	return true, nil
}

func (s *Store) setJSON(ctx context.Context, items map[string]any) error {
	payload := make(map[string]json.RawMessage, len(items))
	for k, v := range items {
		raw, err := json.Marshal(v)
		if err != nil {
			return errors.New("LegacyStore.setJSON", i18n.ERROR_INTERNAL, fmt.Errorf("encode %s: %w", k, err))
		}
		payload[k] = raw
	}
	return s.kv.Set(ctx, payload)
}

// ChatHistories 旧版会话列表, 新会话在前
func (s *Store) ChatHistories(ctx context.Context) ([]types.ChatHistory, error) {
	var list []types.ChatHistory
	if _, err := s.getJSON(ctx, KEY_CHAT_HISTORIES, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) AddChatHistory(ctx context.Context, history types.ChatHistory) error {
	list, err := s.ChatHistories(ctx)
	if err != nil {
		return err
	}
	return s.setJSON(ctx, map[string]any{KEY_CHAT_HISTORIES: append([]types.ChatHistory{history}, list...)})
}

// Messages 旧版以会话 id 为 key 保存消息数组, 新消息在前
func (s *Store) Messages(ctx context.Context, historyID string) ([]types.Message, error) {
	var list []types.Message
	if _, err := s.getJSON(ctx, historyID, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) AddMessage(ctx context.Context, message types.Message) error {
	list, err := s.Messages(ctx, message.HistoryID)
	if err != nil {
		return err
	}
	return s.setJSON(ctx, map[string]any{message.HistoryID: append([]types.Message{message}, list...)})
}

// DeleteAllChatHistory 删除全部会话的消息并清空会话列表
func (s *Store) DeleteAllChatHistory(ctx context.Context) error {
	list, err := s.ChatHistories(ctx)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(list))
	for _, v := range list {
		ids = append(ids, v.ID)
	}
	return s.DeleteChatHistories(ctx, ids...)
}

// DeleteChatHistories 删除指定会话及其消息, 其余会话保持原有顺序
func (s *Store) DeleteChatHistories(ctx context.Context, ids ...string) error {
	list, err := s.ChatHistories(ctx)
	if err != nil {
		return err
	}
	removed := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		removed[id] = struct{}{}
	}
	kept := make([]types.ChatHistory, 0, len(list))
	for _, v := range list {
		if _, ok := removed[v.ID]; !ok {
			kept = append(kept, v)
		}
	}

	if len(ids) > 0 {
		if err = s.kv.Remove(ctx, ids...); err != nil {
			return err
		}
	}
	return s.setJSON(ctx, map[string]any{KEY_CHAT_HISTORIES: kept})
}

// LastUsedModel 会话最近使用的模型, 保存在独立的 key 中
func (s *Store) LastUsedModel(ctx context.Context, historyID string) (string, error) {
	var modelID string
	if _, err := s.getJSON(ctx, PREFIX_LAST_USED_MODEL+historyID, &modelID); err != nil {
		return "", err
	}
	return modelID, nil
}

func (s *Store) LastUsedPrompt(ctx context.Context, historyID string) (types.LastUsedPrompt, error) {
	var prompt types.LastUsedPrompt
	if _, err := s.getJSON(ctx, PREFIX_LAST_USED_PROMPT+historyID, &prompt); err != nil {
		return types.LastUsedPrompt{}, err
	}
	return prompt, nil
}

func (s *Store) SetLastUsed(ctx context.Context, historyID, modelID string, prompt types.LastUsedPrompt) error {
	items := map[string]any{}
	if modelID != "" {
		items[PREFIX_LAST_USED_MODEL+historyID] = modelID
	}
	if !prompt.IsZero() {
		items[PREFIX_LAST_USED_PROMPT+historyID] = prompt
	}
	if len(items) == 0 {
		return nil
	}
	return s.setJSON(ctx, items)
}

func (s *Store) Prompts(ctx context.Context) ([]types.Prompt, error) {
	var list []types.Prompt
	if _, err := s.getJSON(ctx, KEY_PROMPTS, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) SetPrompts(ctx context.Context, prompts []types.Prompt) error {
	if prompts == nil {
		prompts = []types.Prompt{}
	}
	return s.setJSON(ctx, map[string]any{KEY_PROMPTS: prompts})
}

func (s *Store) Webshares(ctx context.Context) ([]types.Webshare, error) {
	var list []types.Webshare
	if _, err := s.getJSON(ctx, KEY_WEBSHARES, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) SetWebshares(ctx context.Context, webshares []types.Webshare) error {
	if webshares == nil {
		webshares = []types.Webshare{}
	}
	return s.setJSON(ctx, map[string]any{KEY_WEBSHARES: webshares})
}

func (s *Store) UserID(ctx context.Context) (string, error) {
	var id string
	if _, err := s.getJSON(ctx, KEY_USER_ID, &id); err != nil {
		return "", err
	}
	return strings.TrimSpace(id), nil
}

func (s *Store) SetUserID(ctx context.Context, id string) error {
	return s.setJSON(ctx, map[string]any{KEY_USER_ID: id})
}

// dbTyped 只解析 db_type 字段用于区分同一命名空间内的不同实体
type dbTyped struct {
	DBType string `json:"db_type"`
}

func (s *Store) listByDBType(ctx context.Context, dbType string, each func(key string, raw json.RawMessage) error) error {
	all, err := s.getAll(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		raw := all[k]
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var t dbTyped
		if json.Unmarshal(raw, &t) != nil || t.DBType != dbType {
			continue
		}
		if err = each(k, raw); err != nil {
			return err
		}
	}
	return nil
}

func decodeInto[T any](key string, raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, errors.New("LegacyStore.decode", i18n.ERROR_INTERNAL, fmt.Errorf("decode %s: %w", key, err))
	}
	return v, nil
}

// Knowledge db_type 为 knowledge 的记录
func (s *Store) Knowledge(ctx context.Context) ([]types.Knowledge, error) {
	var res []types.Knowledge
	err := s.listByDBType(ctx, string(types.DB_TYPE_KNOWLEDGE), func(key string, raw json.RawMessage) error {
		v, err := decodeInto[types.Knowledge](key, raw)
		if err != nil {
			return err
		}
		res = append(res, v)
		return nil
	})
	return res, err
}

func (s *Store) PutKnowledge(ctx context.Context, k types.Knowledge) error {
	k.DBType = types.DB_TYPE_KNOWLEDGE
	return s.setJSON(ctx, map[string]any{k.ID: k})
}

// legacyDocument 文档正文压缩后存放在 compressedContent 中
type legacyDocument struct {
	ID                string          `json:"id"`
	Title             string          `json:"title"`
	Status            string          `json:"status"`
	DBType            string          `json:"db_type"`
	CreatedAt         int64           `json:"createdAt"`
	CompressedContent string          `json:"compressedContent,omitempty"`
	Source            json.RawMessage `json:"source,omitempty"`
}

// Documents 读取 pa_document_ 前缀的记录并解压
func (s *Store) Documents(ctx context.Context) ([]types.Knowledge, error) {
	all, err := s.getAll(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	for k := range all {
		if strings.HasPrefix(k, PREFIX_DOCUMENT) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := make([]types.Knowledge, 0, len(keys))
	for _, k := range keys {
		doc, err := decodeInto[legacyDocument](k, all[k])
		if err != nil {
			return nil, err
		}
		if doc.CompressedContent == "" {
			v, err := decodeInto[types.Knowledge](k, all[k])
			if err != nil {
				return nil, err
			}
			v.DBType = types.DB_TYPE_DOCUMENT
			res = append(res, v)
			continue
		}

		raw, err := utils.DecompressFromBase64(doc.CompressedContent)
		if err != nil {
			return nil, errors.New("LegacyStore.Documents.Decompress", i18n.ERROR_INTERNAL, fmt.Errorf("%s: %w", k, err))
		}
		v, err := decodeInto[types.Knowledge](k, raw)
		if err != nil {
			return nil, err
		}
		v.DBType = types.DB_TYPE_DOCUMENT
		res = append(res, v)
	}
	return res, nil
}

func (s *Store) PutDocument(ctx context.Context, d types.Knowledge) error {
	d.DBType = types.DB_TYPE_DOCUMENT
	raw, err := json.Marshal(d)
	if err != nil {
		return errors.New("LegacyStore.PutDocument.Marshal", i18n.ERROR_INTERNAL, err)
	}
	compressed, err := utils.CompressToBase64(raw)
	if err != nil {
		return errors.New("LegacyStore.PutDocument.Compress", i18n.ERROR_INTERNAL, err)
	}
	return s.setJSON(ctx, map[string]any{d.ID: legacyDocument{
		ID:                d.ID,
		Title:             d.Title,
		Status:            d.Status.String(),
		DBType:            string(types.DB_TYPE_DOCUMENT),
		CreatedAt:         d.CreatedAt,
		CompressedContent: compressed,
	}})
}

// Vectors 读取 vector: 前缀的向量集合
func (s *Store) Vectors(ctx context.Context) ([]types.VectorData, error) {
	all, err := s.getAll(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	for k := range all {
		if strings.HasPrefix(k, types.VECTOR_ID_PREFIX) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := make([]types.VectorData, 0, len(keys))
	for _, k := range keys {
		v, err := decodeInto[types.VectorData](k, all[k])
		if err != nil {
			return nil, err
		}
		if v.ID == "" {
			v.ID = k
		}
		res = append(res, v)
	}
	return res, nil
}

func (s *Store) PutVector(ctx context.Context, v types.VectorData) error {
	return s.setJSON(ctx, map[string]any{v.ID: v})
}

func (s *Store) OpenAIConfigs(ctx context.Context) ([]types.OpenAIModelConfig, error) {
	var res []types.OpenAIModelConfig
	err := s.listByDBType(ctx, types.DB_TYPE_OPENAI, func(key string, raw json.RawMessage) error {
		v, err := decodeInto[types.OpenAIModelConfig](key, raw)
		if err != nil {
			return err
		}
		res = append(res, v)
		return nil
	})
	return res, err
}

func (s *Store) Models(ctx context.Context) ([]types.Model, error) {
	var res []types.Model
	err := s.listByDBType(ctx, types.DB_TYPE_OPENAI_MODEL, func(key string, raw json.RawMessage) error {
		v, err := decodeInto[types.Model](key, raw)
		if err != nil {
			return err
		}
		res = append(res, v)
		return nil
	})
	return res, err
}

type legacyNickname struct {
	ModelName   string `json:"model_name"`
	ModelAvatar string `json:"model_avatar,omitempty"`
}

// Nicknames modelNickname 下以 model_id 为 key 的 map
func (s *Store) Nicknames(ctx context.Context) ([]types.ModelNickname, error) {
	var m map[string]legacyNickname
	if _, err := s.getJSON(ctx, KEY_MODEL_NICKNAME, &m); err != nil {
		return nil, err
	}
	res := make([]types.ModelNickname, 0, len(m))
	for modelID, v := range m {
		res = append(res, types.ModelNickname{
			ID:          modelID,
			ModelID:     modelID,
			ModelName:   v.ModelName,
			ModelAvatar: v.ModelAvatar,
		})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ModelID < res[j].ModelID })
	return res, nil
}

func (s *Store) SaveNickname(ctx context.Context, n types.ModelNickname) error {
	m := map[string]legacyNickname{}
	if _, err := s.getJSON(ctx, KEY_MODEL_NICKNAME, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]legacyNickname{}
	}
	m[n.ModelID] = legacyNickname{ModelName: n.ModelName, ModelAvatar: n.ModelAvatar}
	return s.setJSON(ctx, map[string]any{KEY_MODEL_NICKNAME: m})
}

// SessionIDs 枚举 session_files_ 前缀的 key
func (s *Store) SessionIDs(ctx context.Context) ([]string, error) {
	all, err := s.getAll(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for k := range all {
		if strings.HasPrefix(k, PREFIX_SESSION_FILES) {
			ids = append(ids, strings.TrimPrefix(k, PREFIX_SESSION_FILES))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) SessionFiles(ctx context.Context, sessionID string) (*types.SessionFiles, error) {
	var res types.SessionFiles
	ok, err := s.getJSON(ctx, PREFIX_SESSION_FILES+sessionID, &res)
	if err != nil || !ok {
		return nil, err
	}
	if res.SessionID == "" {
		res.SessionID = sessionID
	}
	return &res, nil
}

func (s *Store) PutSessionFiles(ctx context.Context, files types.SessionFiles) error {
	return s.setJSON(ctx, map[string]any{PREFIX_SESSION_FILES + files.SessionID: files})
}

// EntityCounts 校验迁移结果时使用的旧版数量
func (s *Store) EntityCounts(ctx context.Context) (types.EntityCounts, error) {
	var counts types.EntityCounts
	histories, err := s.ChatHistories(ctx)
	if err != nil {
		return counts, err
	}
	prompts, err := s.Prompts(ctx)
	if err != nil {
		return counts, err
	}
	webshares, err := s.Webshares(ctx)
	if err != nil {
		return counts, err
	}
	counts.ChatHistories = len(histories)
	counts.Prompts = len(prompts)
	counts.Webshares = len(webshares)
	return counts, nil
}
