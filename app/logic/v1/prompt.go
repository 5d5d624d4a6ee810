package v1

import (
	"context"
	"strings"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/app/store"
	"github.com/pageassist/localstore/pkg/errors"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

// PromptLogic 提示词的写操作会同步到镜像存储, 读操作在主存储不可用时回退到镜像
type PromptLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewPromptLogic(ctx context.Context, core *core.Core) *PromptLogic {
	return &PromptLogic{
		ctx:  ctx,
		core: core,
	}
}

type SavePromptRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsSystem  bool   `json:"is_system"`
	CreatedBy string `json:"createdBy,omitempty"`
}

func (l *PromptLogic) Save(req SavePromptRequest) (*types.Prompt, error) {
	prompt := types.Prompt{
		ID:        utils.GenID(),
		Title:     req.Title,
		Content:   req.Content,
		IsSystem:  req.IsSystem,
		CreatedBy: req.CreatedBy,
		CreatedAt: types.NowMilli(),
	}
	if err := l.core.Store().PromptStore().Create(l.ctx, prompt); err != nil {
		return nil, storeError("PromptLogic.Save.Create", err, true)
	}
	mirrorDo(l.ctx, l.core, "PromptLogic.Save.Mirror", func(m store.Mirror) error {
		return m.PutPrompt(l.ctx, prompt)
	})
	return &prompt, nil
}

func (l *PromptLogic) Update(id string, req SavePromptRequest) (*types.Prompt, error) {
	prompt, err := l.core.Store().PromptStore().GetPrompt(l.ctx, id)
	if prompt, err = getOrNil("PromptLogic.Update.Get", prompt, err); err != nil {
		return nil, err
	}
	if prompt == nil {
		return nil, notFoundError("PromptLogic.Update.NotFound")
	}

	prompt.Title = req.Title
	prompt.Content = req.Content
	prompt.IsSystem = req.IsSystem
	if err = l.core.Store().PromptStore().Put(l.ctx, *prompt); err != nil {
		return nil, storeError("PromptLogic.Update.Put", err, true)
	}
	mirrorDo(l.ctx, l.core, "PromptLogic.Update.Mirror", func(m store.Mirror) error {
		return m.PutPrompt(l.ctx, *prompt)
	})
	return prompt, nil
}

func (l *PromptLogic) Delete(id string) error {
	if err := l.core.Store().PromptStore().Delete(l.ctx, id); err != nil {
		return storeError("PromptLogic.Delete", err, true)
	}
	mirrorDo(l.ctx, l.core, "PromptLogic.Delete.Mirror", func(m store.Mirror) error {
		return m.DeletePrompt(l.ctx, id)
	})
	return nil
}

func (l *PromptLogic) List() ([]*types.Prompt, error) {
	list, err := l.core.Store().PromptStore().ListPrompts(l.ctx)
	list, err = fallbackList(l.core, "PromptLogic.List", list, err, func(m store.Mirror) ([]*types.Prompt, error) {
		return m.ListPrompts(l.ctx)
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*types.Prompt{}
	}
	return list, nil
}

// Get id 为空或记录不存在时返回 nil
func (l *PromptLogic) Get(id string) (*types.Prompt, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	prompt, err := l.core.Store().PromptStore().GetPrompt(l.ctx, id)
	if err == nil || !errors.IsStorageUnavailable(err) {
		return getOrNil("PromptLogic.Get", prompt, err)
	}

	list, err := fallbackList(l.core, "PromptLogic.Get", nil, err, func(m store.Mirror) ([]*types.Prompt, error) {
		return m.ListPrompts(l.ctx)
	})
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		if v.ID == id {
			return v, nil
		}
	}
	return nil, nil
}
