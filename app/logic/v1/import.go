package v1

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/merge"
	"github.com/pageassist/localstore/pkg/types"
)

// storeTarget 将各实体的存储方法适配为 merge.Target
type storeTarget[T any] struct {
	get   func(ctx context.Context, key string) (*T, error)
	put   func(ctx context.Context, item T) error
	clear func(ctx context.Context) error
	key   func(item T) string
}

func (t storeTarget[T]) Get(ctx context.Context, key string) (*T, error) {
	v, err := t.get(ctx, key)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return v, nil
}

func (t storeTarget[T]) Put(ctx context.Context, item T) error {
	return t.put(ctx, item)
}

func (t storeTarget[T]) Clear(ctx context.Context) error {
	return t.clear(ctx)
}

func (t storeTarget[T]) Key(item T) string {
	return t.key(item)
}

// ImportLogic 按导入信封的 kind 分发到对应实体, 每个信封在一个事务内完成
type ImportLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewImportLogic(ctx context.Context, core *core.Core) *ImportLogic {
	return &ImportLogic{
		ctx:  ctx,
		core: core,
	}
}

// apply 解码、校验并合并, 任一记录不合法时不写入任何数据
func apply[T interface{ Validate() error }](ctx context.Context, env types.ImportEnvelope, target merge.Target[T], merger merge.Merger[T]) (merge.Result, error) {
	items, err := types.DecodeItems[T](env)
	if err != nil {
		return merge.Result{}, errors.New("ImportLogic.Decode", i18n.ERROR_INVALID_ENVELOPE, err).WithKind(errors.KindInvalidArgument)
	}
	return merge.Apply[T](ctx, target, items, env.Options.Resolve(), merger)
}

func (l *ImportLogic) Import(env types.ImportEnvelope) (*types.ImportResult, error) {
	if err := env.Validate(); err != nil {
		return nil, errors.New("ImportLogic.Import.Validate", i18n.ERROR_INVALID_ENVELOPE, err).WithKind(errors.KindInvalidArgument)
	}
	defer l.core.Metrics().OperationTimer("import_" + string(env.Kind)).ObserveDuration()

	var res merge.Result
	err := transaction(l.ctx, l.core, "ImportLogic.Import", func(ctx context.Context) error {
		var err error
		res, err = l.dispatch(ctx, env)
		if err == nil {
			return nil
		}
		var ce *errors.CustomizedError
		if errors.As(err, &ce) {
			return err
		}
		return storeError("ImportLogic.Import."+string(env.Kind), err, true)
	})
	if err != nil {
		return nil, err
	}

	result := types.NewImportResult(env.Kind, res)
	l.core.Metrics().ImportResultAdd(result)
	slog.Info("import finished", slog.String("kind", string(env.Kind)), slog.Int("inserted", result.Inserted),
		slog.Int("replaced", result.Replaced), slog.Int("merged", result.Merged), slog.Int("skipped", result.Skipped))
	return &result, nil
}

// ImportBundle 逐个信封导入, 遇到错误即停止, 已完成的信封不回滚
func (l *ImportLogic) ImportBundle(bundle types.ExportBundle) ([]types.ImportResult, error) {
	res := make([]types.ImportResult, 0, len(bundle.Envelopes))
	for _, env := range bundle.Envelopes {
		if env == nil {
			continue
		}
		r, err := l.Import(*env)
		if err != nil {
			return res, err
		}
		res = append(res, *r)
	}
	return res, nil
}

func (l *ImportLogic) dispatch(ctx context.Context, env types.ImportEnvelope) (merge.Result, error) {
	s := l.core.Store()
	switch env.Kind {
	case types.KIND_CHAT_HISTORIES:
		return l.importChatHistories(ctx, env)
	case types.KIND_PROMPTS:
		return apply[types.Prompt](ctx, env, storeTarget[types.Prompt]{
			get:   s.PromptStore().GetPrompt,
			put:   s.PromptStore().Put,
			clear: s.PromptStore().Clear,
			key:   func(v types.Prompt) string { return v.ID },
		}, merge.KeepExisting[types.Prompt])
	case types.KIND_WEBSHARES:
		return apply[types.Webshare](ctx, env, storeTarget[types.Webshare]{
			get:   s.WebshareStore().GetWebshare,
			put:   s.WebshareStore().Put,
			clear: s.WebshareStore().Clear,
			key:   func(v types.Webshare) string { return v.ID },
		}, merge.KeepExisting[types.Webshare])
	case types.KIND_SESSION_FILES:
		return apply[types.SessionFiles](ctx, env, storeTarget[types.SessionFiles]{
			get:   s.SessionFilesStore().GetSessionFiles,
			put:   s.SessionFilesStore().Put,
			clear: s.SessionFilesStore().Clear,
			key:   func(v types.SessionFiles) string { return v.SessionID },
		}, merge.UnionMerger(
			func(v types.SessionFiles) []types.UploadedFile { return v.Files },
			func(v types.SessionFiles, files []types.UploadedFile) types.SessionFiles { v.Files = files; return v },
			func(f types.UploadedFile) string { return f.ID },
		))
	case types.KIND_USER_SETTINGS:
		return apply[types.UserSetting](ctx, env, storeTarget[types.UserSetting]{
			get:   s.UserSettingStore().GetUserSetting,
			put:   s.UserSettingStore().Put,
			clear: s.UserSettingStore().Clear,
			key:   func(v types.UserSetting) string { return v.ID },
		}, merge.KeepExisting[types.UserSetting])
	case types.KIND_KNOWLEDGE, types.KIND_DOCUMENTS:
		dbType := types.DB_TYPE_KNOWLEDGE
		if env.Kind == types.KIND_DOCUMENTS {
			dbType = types.DB_TYPE_DOCUMENT
		}
		ks := s.KnowledgeStoreFor(dbType)
		return apply[types.Knowledge](ctx, env, storeTarget[types.Knowledge]{
			get: ks.GetKnowledge,
			put: func(ctx context.Context, v types.Knowledge) error {
				v.DBType = dbType
				return ks.Put(ctx, v)
			},
			clear: ks.Clear,
			key:   func(v types.Knowledge) string { return v.ID },
		}, merge.UnionMerger(
			func(v types.Knowledge) []types.KnowledgeSource { return v.Source },
			func(v types.Knowledge, sources []types.KnowledgeSource) types.Knowledge { v.Source = sources; return v },
			func(src types.KnowledgeSource) string { return src.SourceID },
		))
	case types.KIND_VECTORS:
		return apply[types.VectorData](ctx, env, l.vectorTarget(), merge.UnionMerger(
			func(v types.VectorData) []types.VectorFragment { return v.Vectors },
			func(v types.VectorData, fragments []types.VectorFragment) types.VectorData { v.Vectors = fragments; return v },
			types.VectorFragment.DedupKey,
		))
	case types.KIND_OPENAI_CONFIGS:
		return apply[types.OpenAIModelConfig](ctx, env, storeTarget[types.OpenAIModelConfig]{
			get:   s.OpenAIConfigStore().GetOpenAIConfig,
			put:   s.OpenAIConfigStore().Put,
			clear: s.OpenAIConfigStore().Clear,
			key:   func(v types.OpenAIModelConfig) string { return v.ID },
		}, merge.KeepExisting[types.OpenAIModelConfig])
	case types.KIND_CUSTOM_MODELS:
		return apply[types.Model](ctx, env, storeTarget[types.Model]{
			get:   s.CustomModelStore().GetModel,
			put:   s.CustomModelStore().Put,
			clear: s.CustomModelStore().Clear,
			key:   func(v types.Model) string { return v.ID },
		}, merge.KeepExisting[types.Model])
	case types.KIND_MODEL_NICKNAMES:
		return apply[types.ModelNickname](ctx, env, storeTarget[types.ModelNickname]{
			get:   s.ModelNicknameStore().GetNickname,
			put:   s.ModelNicknameStore().Put,
			clear: s.ModelNicknameStore().Clear,
			key:   func(v types.ModelNickname) string { return v.ModelID },
		}, merge.KeepExisting[types.ModelNickname])
	case types.KIND_MODEL_STATES:
		return apply[types.ModelState](ctx, env, storeTarget[types.ModelState]{
			get:   s.ModelStateStore().GetModelState,
			put:   s.ModelStateStore().Put,
			clear: s.ModelStateStore().Clear,
			key:   func(v types.ModelState) string { return v.ModelID },
		}, merge.KeepExisting[types.ModelState])
	case types.KIND_PROVIDER_STATES:
		return apply[types.ProviderState](ctx, env, storeTarget[types.ProviderState]{
			get:   s.ProviderStateStore().GetProviderState,
			put:   s.ProviderStateStore().Put,
			clear: s.ProviderStateStore().Clear,
			key:   func(v types.ProviderState) string { return v.ProviderID },
		}, merge.KeepExisting[types.ProviderState])
	case types.KIND_MEMORIES:
		return apply[types.Memory](ctx, env, storeTarget[types.Memory]{
			get:   s.MemoryStore().GetMemory,
			put:   s.MemoryStore().Put,
			clear: s.MemoryStore().Clear,
			key:   func(v types.Memory) string { return v.ID },
		}, merge.KeepExisting[types.Memory])
	case types.KIND_PROCESSED_MEDIA:
		return apply[types.ProcessedMedia](ctx, env, storeTarget[types.ProcessedMedia]{
			get:   s.ProcessedMediaStore().GetProcessedMedia,
			put:   s.ProcessedMediaStore().Put,
			clear: s.ProcessedMediaStore().Clear,
			key:   func(v types.ProcessedMedia) string { return v.ID },
		}, merge.KeepExisting[types.ProcessedMedia])
	}
	return merge.Result{}, errors.New("ImportLogic.Dispatch", i18n.ERROR_INVALID_ENVELOPE, fmt.Errorf("unknown entity kind %q", env.Kind)).
		WithKind(errors.KindInvalidArgument)
}

// vectorTarget 向量集合整体覆盖: 先删除再按顺序追加
func (l *ImportLogic) vectorTarget() storeTarget[types.VectorData] {
	vs := l.core.Store().VectorStore()
	return storeTarget[types.VectorData]{
		get: func(ctx context.Context, key string) (*types.VectorData, error) {
			fragments, err := vs.ListFragments(ctx, key)
			if err != nil || len(fragments) == 0 {
				return nil, err
			}
			return &types.VectorData{ID: key, Vectors: fragments}, nil
		},
		put: func(ctx context.Context, v types.VectorData) error {
			id := types.VectorIDFor(v.ID)
			if err := vs.Delete(ctx, id); err != nil {
				return err
			}
			return vs.Append(ctx, id, v.Vectors)
		},
		clear: vs.Clear,
		key:   func(v types.VectorData) string { return types.VectorIDFor(v.ID) },
	}
}

// importChatHistories 会话按合并策略处理, 消息已存在时只有 replaceExisting 才覆盖
func (l *ImportLogic) importChatHistories(ctx context.Context, env types.ImportEnvelope) (merge.Result, error) {
	bundles, err := types.DecodeItems[types.ChatHistoryBundle](env)
	if err != nil {
		return merge.Result{}, errors.New("ImportLogic.Decode", i18n.ERROR_INVALID_ENVELOPE, err).WithKind(errors.KindInvalidArgument)
	}

	opts := env.Options.Resolve()
	s := l.core.Store()
	if opts.ClearsCollection() {
		// 会话清空时其消息与会话文件一并清空
		if err = s.MessageStore().Clear(ctx); err != nil {
			return merge.Result{}, err
		}
		if err = s.SessionFilesStore().Clear(ctx); err != nil {
			return merge.Result{}, err
		}
	}

	histories := lo.Map(bundles, func(b types.ChatHistoryBundle, _ int) types.ChatHistory { return b.History })
	res, err := merge.Apply[types.ChatHistory](ctx, storeTarget[types.ChatHistory]{
		get:   s.ChatHistoryStore().GetChatHistory,
		put:   s.ChatHistoryStore().Put,
		clear: s.ChatHistoryStore().Clear,
		key:   func(v types.ChatHistory) string { return v.ID },
	}, histories, opts, merge.KeepExisting[types.ChatHistory])
	if err != nil {
		return res, err
	}

	messages := lo.FlatMap(bundles, func(b types.ChatHistoryBundle, _ int) []types.Message {
		return lo.Map(b.Messages, func(m types.Message, _ int) types.Message {
			if m.HistoryID == "" {
				m.HistoryID = b.History.ID
			}
			return m
		})
	})
	// 消息没有字段级合并, 已存在时保留
	msgOpts := merge.Options{ReplaceExisting: opts.ReplaceExisting, MergeData: true}
	if _, err = merge.Apply[types.Message](ctx, storeTarget[types.Message]{
		get:   s.MessageStore().GetMessage,
		put:   s.MessageStore().Put,
		clear: s.MessageStore().Clear,
		key:   func(v types.Message) string { return v.ID },
	}, messages, msgOpts, merge.KeepExisting[types.Message]); err != nil {
		return res, err
	}
	return res, nil
}

// Export 导出指定实体类型, 未指定时导出全部
func (l *ImportLogic) Export(kinds ...types.EntityKind) (*types.ExportBundle, error) {
	if len(kinds) == 0 {
		kinds = types.AllEntityKinds
	}
	bundle := &types.ExportBundle{
		Version:    types.ENVELOPE_VERSION,
		ExportedAt: types.NowMilli(),
	}
	for _, kind := range kinds {
		if !kind.Valid() {
			return nil, invalidArgument("ImportLogic.Export.Kind", fmt.Errorf("unknown entity kind %q", kind))
		}
		items, err := l.exportItems(kind)
		if err != nil {
			return nil, storeError("ImportLogic.Export."+string(kind), err, false)
		}
		env, err := types.NewImportEnvelope(kind, merge.DefaultOptions(), items)
		if err != nil {
			return nil, errors.New("ImportLogic.Export.Envelope", i18n.ERROR_INTERNAL, err)
		}
		bundle.Envelopes = append(bundle.Envelopes, env)
	}
	return bundle, nil
}

func nonNil[T any](list []*T) []*T {
	if list == nil {
		return []*T{}
	}
	return list
}

func (l *ImportLogic) exportItems(kind types.EntityKind) (any, error) {
	s := l.core.Store()
	switch kind {
	case types.KIND_CHAT_HISTORIES:
		histories, err := s.ChatHistoryStore().ListChatHistories(l.ctx, types.ListChatHistoriesOptions{}, types.NO_PAGINATION, types.NO_PAGINATION)
		if err != nil {
			return nil, err
		}
		messages, err := s.MessageStore().ListMessages(l.ctx, types.ListMessagesOptions{}, types.NO_PAGINATION, types.NO_PAGINATION)
		if err != nil {
			return nil, err
		}
		byHistory := lo.GroupBy(messages, func(m *types.Message) string { return m.HistoryID })
		return lo.Map(histories, func(h *types.ChatHistory, _ int) types.ChatHistoryBundle {
			return types.ChatHistoryBundle{
				History:  *h,
				Messages: lo.FromSlicePtr(byHistory[h.ID]),
			}
		}), nil
	case types.KIND_PROMPTS:
		list, err := s.PromptStore().ListPrompts(l.ctx)
		return nonNil(list), err
	case types.KIND_WEBSHARES:
		list, err := s.WebshareStore().ListWebshares(l.ctx)
		return nonNil(list), err
	case types.KIND_SESSION_FILES:
		list, err := s.SessionFilesStore().ListSessionFiles(l.ctx)
		return nonNil(list), err
	case types.KIND_USER_SETTINGS:
		list, err := s.UserSettingStore().ListUserSettings(l.ctx)
		return nonNil(list), err
	case types.KIND_KNOWLEDGE:
		list, err := s.KnowledgeStore().ListKnowledges(l.ctx, types.ListKnowledgeOptions{}, types.NO_PAGINATION, types.NO_PAGINATION)
		return nonNil(list), err
	case types.KIND_DOCUMENTS:
		list, err := s.DocumentStore().ListKnowledges(l.ctx, types.ListKnowledgeOptions{}, types.NO_PAGINATION, types.NO_PAGINATION)
		return nonNil(list), err
	case types.KIND_VECTORS:
		return NewVectorLogic(l.ctx, l.core).GetAll()
	case types.KIND_OPENAI_CONFIGS:
		list, err := s.OpenAIConfigStore().ListOpenAIConfigs(l.ctx)
		return nonNil(list), err
	case types.KIND_CUSTOM_MODELS:
		list, err := s.CustomModelStore().ListModels(l.ctx, types.ListModelsOptions{})
		return nonNil(list), err
	case types.KIND_MODEL_NICKNAMES:
		list, err := s.ModelNicknameStore().ListNicknames(l.ctx)
		return nonNil(list), err
	case types.KIND_MODEL_STATES:
		list, err := s.ModelStateStore().ListModelStates(l.ctx)
		return nonNil(list), err
	case types.KIND_PROVIDER_STATES:
		list, err := s.ProviderStateStore().ListProviderStates(l.ctx)
		return nonNil(list), err
	case types.KIND_MEMORIES:
		list, err := s.MemoryStore().ListMemories(l.ctx)
		return nonNil(list), err
	case types.KIND_PROCESSED_MEDIA:
		list, err := s.ProcessedMediaStore().ListProcessedMedia(l.ctx)
		return nonNil(list), err
	}
	return nil, fmt.Errorf("unknown entity kind %q", kind)
}
