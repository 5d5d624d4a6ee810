package v1

import (
	"context"
	"fmt"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/types"
)

// VectorLogic 知识库的向量片段集合, 集合 id 为 vector:<knowledge id>
type VectorLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewVectorLogic(ctx context.Context, core *core.Core) *VectorLogic {
	return &VectorLogic{
		ctx:  ctx,
		core: core,
	}
}

// Insert 追加到集合末尾, 集合不存在时即创建, 不做去重
func (l *VectorLogic) Insert(knowledgeID string, fragments []types.VectorFragment) error {
	for i, f := range fragments {
		if f.FileID == "" {
			return invalidArgument("VectorLogic.Insert.FileID", fmt.Errorf("vectors[%d] file_id is required", i))
		}
	}
	return transaction(l.ctx, l.core, "VectorLogic.Insert", func(ctx context.Context) error {
		if err := l.core.Store().VectorStore().Append(ctx, types.VectorIDFor(knowledgeID), fragments); err != nil {
			return storeError("VectorLogic.Insert.Append", err, true)
		}
		return nil
	})
}

// Get 集合不存在时返回 nil
func (l *VectorLogic) Get(knowledgeID string) (*types.VectorData, error) {
	id := types.VectorIDFor(knowledgeID)
	fragments, err := l.core.Store().VectorStore().ListFragments(l.ctx, id)
	if err != nil {
		return nil, storeError("VectorLogic.Get", err, false)
	}
	if len(fragments) == 0 {
		return nil, nil
	}
	return &types.VectorData{ID: id, Vectors: fragments}, nil
}

func (l *VectorLogic) GetAll() ([]*types.VectorData, error) {
	ids, err := l.core.Store().VectorStore().ListVectorIDs(l.ctx)
	if err != nil {
		return nil, storeError("VectorLogic.GetAll.ListVectorIDs", err, false)
	}

	res := make([]*types.VectorData, 0, len(ids))
	for _, id := range ids {
		fragments, err := l.core.Store().VectorStore().ListFragments(l.ctx, id)
		if err != nil {
			return nil, storeError("VectorLogic.GetAll.ListFragments", err, false)
		}
		res = append(res, &types.VectorData{ID: id, Vectors: fragments})
	}
	return res, nil
}

func (l *VectorLogic) Delete(knowledgeID string) error {
	if err := l.core.Store().VectorStore().Delete(l.ctx, types.VectorIDFor(knowledgeID)); err != nil {
		return storeError("VectorLogic.Delete", err, true)
	}
	return nil
}

// DeleteByFileID 删除某个数据源产生的全部片段, 返回删除数量
func (l *VectorLogic) DeleteByFileID(knowledgeID, fileID string) (int64, error) {
	n, err := l.core.Store().VectorStore().DeleteByFileID(l.ctx, types.VectorIDFor(knowledgeID), fileID)
	if err != nil {
		return 0, storeError("VectorLogic.DeleteByFileID", err, true)
	}
	return n, nil
}
