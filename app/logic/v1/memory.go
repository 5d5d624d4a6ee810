package v1

import (
	"context"
	"strings"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type MemoryLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewMemoryLogic(ctx context.Context, core *core.Core) *MemoryLogic {
	return &MemoryLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *MemoryLogic) Add(content string) (*types.Memory, error) {
	now := types.NowMilli()
	memory := types.Memory{
		ID:        utils.GenID(),
		Content:   strings.TrimSpace(content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.core.Store().MemoryStore().Create(l.ctx, memory); err != nil {
		return nil, storeError("MemoryLogic.Add", err, true)
	}
	return &memory, nil
}

// Update 记录不存在时返回 nil
func (l *MemoryLogic) Update(id, content string) (*types.Memory, error) {
	memory, err := l.Get(id)
	if err != nil || memory == nil {
		return nil, err
	}
	memory.Content = strings.TrimSpace(content)
	if err = l.core.Store().MemoryStore().UpdateContent(l.ctx, id, memory.Content); err != nil {
		return nil, storeError("MemoryLogic.Update", err, true)
	}
	return l.Get(id)
}

func (l *MemoryLogic) Get(id string) (*types.Memory, error) {
	memory, err := l.core.Store().MemoryStore().GetMemory(l.ctx, id)
	return getOrNil("MemoryLogic.Get", memory, err)
}

func (l *MemoryLogic) List() ([]*types.Memory, error) {
	list, err := l.core.Store().MemoryStore().ListMemories(l.ctx)
	if err != nil {
		return nil, storeError("MemoryLogic.List", err, false)
	}
	if list == nil {
		list = []*types.Memory{}
	}
	return list, nil
}

func (l *MemoryLogic) Delete(id string) error {
	if err := l.core.Store().MemoryStore().Delete(l.ctx, id); err != nil {
		return storeError("MemoryLogic.Delete", err, true)
	}
	return nil
}

func (l *MemoryLogic) DeleteAll() error {
	if err := l.core.Store().MemoryStore().Clear(l.ctx); err != nil {
		return storeError("MemoryLogic.DeleteAll", err, true)
	}
	return nil
}

// AsContext 拼接为注入对话的用户上下文, 没有记忆时返回空串
func (l *MemoryLogic) AsContext() (string, error) {
	list, err := l.List()
	if err != nil || len(list) == 0 {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("User Context (Personal Memories):")
	for _, v := range list {
		sb.WriteString("\n- ")
		sb.WriteString(v.Content)
	}
	return sb.String(), nil
}
