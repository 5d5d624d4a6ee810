package v1

import (
	"context"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type ProcessedMediaLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewProcessedMediaLogic(ctx context.Context, core *core.Core) *ProcessedMediaLogic {
	return &ProcessedMediaLogic{
		ctx:  ctx,
		core: core,
	}
}

// Save 同一条记录重复保存时覆盖
func (l *ProcessedMediaLogic) Save(media types.ProcessedMedia) (*types.ProcessedMedia, error) {
	if media.ID == "" {
		media.ID = utils.GenID()
	}
	if media.CreatedAt == 0 {
		media.CreatedAt = types.NowMilli()
	}
	if err := l.core.Store().ProcessedMediaStore().Put(l.ctx, media); err != nil {
		return nil, storeError("ProcessedMediaLogic.Save", err, true)
	}
	return &media, nil
}

func (l *ProcessedMediaLogic) Get(id string) (*types.ProcessedMedia, error) {
	media, err := l.core.Store().ProcessedMediaStore().GetProcessedMedia(l.ctx, id)
	return getOrNil("ProcessedMediaLogic.Get", media, err)
}

func (l *ProcessedMediaLogic) List() ([]*types.ProcessedMedia, error) {
	list, err := l.core.Store().ProcessedMediaStore().ListProcessedMedia(l.ctx)
	if err != nil {
		return nil, storeError("ProcessedMediaLogic.List", err, false)
	}
	if list == nil {
		list = []*types.ProcessedMedia{}
	}
	return list, nil
}

func (l *ProcessedMediaLogic) Delete(id string) error {
	if err := l.core.Store().ProcessedMediaStore().Delete(l.ctx, id); err != nil {
		return storeError("ProcessedMediaLogic.Delete", err, true)
	}
	return nil
}

func (l *ProcessedMediaLogic) Clear() error {
	if err := l.core.Store().ProcessedMediaStore().Clear(l.ctx); err != nil {
		return storeError("ProcessedMediaLogic.Clear", err, true)
	}
	return nil
}
