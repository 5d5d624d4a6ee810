package v1

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/i18n"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

// 状态与数据源的条件更新在版本冲突时的最大重试次数
const knowledgeWriteRetries = 3

// KnowledgeLogic knowledge 与 document 共用, 由 dbType 决定落到哪张表
type KnowledgeLogic struct {
	ctx    context.Context
	core   *core.Core
	dbType types.KnowledgeDBType
}

func NewKnowledgeLogic(ctx context.Context, core *core.Core, dbType types.KnowledgeDBType) *KnowledgeLogic {
	if dbType == "" {
		dbType = types.DB_TYPE_KNOWLEDGE
	}
	return &KnowledgeLogic{
		ctx:    ctx,
		core:   core,
		dbType: dbType,
	}
}

func (l *KnowledgeLogic) store() store.KnowledgeStore {
	return l.core.Store().KnowledgeStoreFor(l.dbType)
}

func (l *KnowledgeLogic) genID() string {
	if l.dbType == types.DB_TYPE_DOCUMENT {
		return utils.GenDocumentID()
	}
	return utils.GenKnowledgeID()
}

func (l *KnowledgeLogic) Create(args types.CreateKnowledgeArgs) (*types.Knowledge, error) {
	data := types.Knowledge{
		ID:             l.genID(),
		DBType:         l.dbType,
		Title:          args.Title,
		Status:         types.KNOWLEDGE_STATUS_PENDING,
		EmbeddingModel: args.EmbeddingModel,
		Source:         args.Source,
		Document:       args.Document,
		CreatedAt:      types.NowMilli(),
	}
	if err := data.Validate(); err != nil {
		return nil, invalidArgument("KnowledgeLogic.Create.Validate", err)
	}
	if err := l.store().Create(l.ctx, data); err != nil {
		return nil, storeError("KnowledgeLogic.Create", err, true)
	}
	return &data, nil
}

func (l *KnowledgeLogic) Get(id string) (*types.Knowledge, error) {
	data, err := l.store().GetKnowledge(l.ctx, id)
	return getOrNil("KnowledgeLogic.Get", data, err)
}

// List 按创建时间倒序, 列表中不返回数据源原文
func (l *KnowledgeLogic) List(status types.KnowledgeStatus) ([]*types.Knowledge, error) {
	if status != "" && !status.Valid() {
		return nil, invalidArgument("KnowledgeLogic.List.Status", fmt.Errorf("unknown status %q", status))
	}
	list, err := l.store().ListKnowledges(l.ctx, types.ListKnowledgeOptions{Status: status}, 0, 0)
	if err != nil {
		return nil, storeError("KnowledgeLogic.List", err, false)
	}
	for _, v := range list {
		v.Source = v.Source.StripContent()
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt > list[j].CreatedAt
	})
	if list == nil {
		list = []*types.Knowledge{}
	}
	return list, nil
}

// versionedUpdate 读取最新记录交给 fn 计算新的状态与数据源, 以 version 做条件写入, 冲突时重新读取重试
func (l *KnowledgeLogic) versionedUpdate(trace, id string, fn func(k *types.Knowledge) (types.KnowledgeStatus, types.KnowledgeSources, error)) (*types.Knowledge, error) {
	for attempt := 0; attempt < knowledgeWriteRetries; attempt++ {
		current, err := l.store().GetKnowledge(l.ctx, id)
		if current, err = getOrNil(trace+".Get", current, err); err != nil {
			return nil, err
		}
		if current == nil {
			return nil, notFoundError(trace + ".NotFound")
		}

		status, sources, err := fn(current)
		if err != nil {
			return nil, err
		}

		ok, err := l.store().UpdateWithVersion(l.ctx, id, current.Version, status, sources)
		if err != nil {
			return nil, storeError(trace+".UpdateWithVersion", err, true)
		}
		if ok {
			current.Status = status
			current.Source = sources
			current.Version++
			return current, nil
		}
		slog.Debug("knowledge version conflict, retrying", slog.String("id", id), slog.Int("attempt", attempt+1))
	}
	return nil, errors.New(trace+".VersionConflict", i18n.ERROR_VERSION_CONFLICT, nil).WithKind(errors.KindWriteFailed)
}

// UpdateStatus 状态只能前进, 进入 finished 时清空所有数据源原文
func (l *KnowledgeLogic) UpdateStatus(id string, status types.KnowledgeStatus) (*types.Knowledge, error) {
	if !status.Valid() {
		return nil, invalidArgument("KnowledgeLogic.UpdateStatus.Status", fmt.Errorf("unknown status %q", status))
	}
	return l.versionedUpdate("KnowledgeLogic.UpdateStatus", id, func(k *types.Knowledge) (types.KnowledgeStatus, types.KnowledgeSources, error) {
		if !k.Status.CanTransition(status) {
			return "", nil, errors.New("KnowledgeLogic.UpdateStatus.CanTransition", i18n.ERROR_INVALID_TRANSITION, nil).
				WithKind(errors.KindInvalidArgument).
				WithData(map[string]interface{}{"from": k.Status, "to": status})
		}
		sources := k.Source
		if status == types.KNOWLEDGE_STATUS_FINISHED {
			sources = sources.StripContent()
		}
		return status, sources, nil
	})
}

// AddNewSources 追加数据源并回到 processing, 已存在的 source_id 不会重复追加
func (l *KnowledgeLogic) AddNewSources(id string, sources []types.KnowledgeSource) (*types.Knowledge, error) {
	for i, s := range sources {
		if s.SourceID == "" {
			return nil, invalidArgument("KnowledgeLogic.AddNewSources.SourceID", fmt.Errorf("source[%d] source_id is required", i))
		}
	}
	return l.versionedUpdate("KnowledgeLogic.AddNewSources", id, func(k *types.Knowledge) (types.KnowledgeStatus, types.KnowledgeSources, error) {
		merged := append(types.KnowledgeSources{}, k.Source...)
		existing := lo.SliceToMap(k.Source, func(s types.KnowledgeSource) (string, struct{}) {
			return s.SourceID, struct{}{}
		})
		for _, s := range sources {
			if _, ok := existing[s.SourceID]; ok {
				continue
			}
			existing[s.SourceID] = struct{}{}
			merged = append(merged, s)
		}
		return types.KNOWLEDGE_STATUS_PROCESSING, merged, nil
	})
}

// DeleteSource 移除数据源并删除其向量片段, 在同一事务内完成
func (l *KnowledgeLogic) DeleteSource(id, sourceID string) error {
	return transaction(l.ctx, l.core, "KnowledgeLogic.DeleteSource", func(ctx context.Context) error {
		tl := &KnowledgeLogic{ctx: ctx, core: l.core, dbType: l.dbType}
		_, err := tl.versionedUpdate("KnowledgeLogic.DeleteSource", id, func(k *types.Knowledge) (types.KnowledgeStatus, types.KnowledgeSources, error) {
			return k.Status, lo.Filter(k.Source, func(s types.KnowledgeSource, _ int) bool {
				return s.SourceID != sourceID
			}), nil
		})
		if err != nil {
			return err
		}

		if _, err = l.core.Store().VectorStore().DeleteByFileID(ctx, types.VectorIDFor(id), sourceID); err != nil {
			return storeError("KnowledgeLogic.DeleteSource.DeleteVectors", err, true)
		}
		return nil
	})
}

// Delete 同时删除整个向量集合
func (l *KnowledgeLogic) Delete(id string) error {
	return transaction(l.ctx, l.core, "KnowledgeLogic.Delete", func(ctx context.Context) error {
		if err := l.store().Delete(ctx, id); err != nil {
			return storeError("KnowledgeLogic.Delete", err, true)
		}
		if err := l.core.Store().VectorStore().Delete(ctx, types.VectorIDFor(id)); err != nil {
			return storeError("KnowledgeLogic.Delete.DeleteVectors", err, true)
		}
		return nil
	})
}

func (l *KnowledgeLogic) UpdateKnowledgebase(id string, args types.UpdateKnowledgebaseArgs) (*types.Knowledge, error) {
	current, err := l.store().GetKnowledge(l.ctx, id)
	if current, err = getOrNil("KnowledgeLogic.UpdateKnowledgebase.Get", current, err); err != nil {
		return nil, err
	}
	if current == nil {
		return nil, notFoundError("KnowledgeLogic.UpdateKnowledgebase.NotFound")
	}

	if err = l.store().UpdateKnowledgebase(l.ctx, id, args); err != nil {
		return nil, storeError("KnowledgeLogic.UpdateKnowledgebase", err, true)
	}
	current.Title = args.Title
	current.SystemPrompt = args.SystemPrompt
	current.FollowupPrompt = args.FollowupPrompt
	return current, nil
}
