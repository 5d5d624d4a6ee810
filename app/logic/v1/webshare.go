package v1

import (
	"context"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type WebshareLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewWebshareLogic(ctx context.Context, core *core.Core) *WebshareLogic {
	return &WebshareLogic{
		ctx:  ctx,
		core: core,
	}
}

type SaveWebshareRequest struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	APIURL  string `json:"api_url"`
	ShareID string `json:"share_id"`
}

func (l *WebshareLogic) Save(req SaveWebshareRequest) (*types.Webshare, error) {
	webshare := types.Webshare{
		ID:        utils.GenID(),
		Title:     req.Title,
		URL:       req.URL,
		APIURL:    utils.CleanURL(req.APIURL),
		ShareID:   req.ShareID,
		CreatedAt: types.NowMilli(),
	}
	if err := l.core.Store().WebshareStore().Create(l.ctx, webshare); err != nil {
		return nil, storeError("WebshareLogic.Save", err, true)
	}
	return &webshare, nil
}

func (l *WebshareLogic) List() ([]*types.Webshare, error) {
	list, err := l.core.Store().WebshareStore().ListWebshares(l.ctx)
	if err != nil {
		return nil, storeError("WebshareLogic.List", err, false)
	}
	if list == nil {
		list = []*types.Webshare{}
	}
	return list, nil
}

func (l *WebshareLogic) Delete(id string) error {
	if err := l.core.Store().WebshareStore().Delete(l.ctx, id); err != nil {
		return storeError("WebshareLogic.Delete", err, true)
	}
	return nil
}
