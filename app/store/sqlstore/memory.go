package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.MemoryStore = NewMemoryStore(provider)
	})
}

type MemoryStore struct {
	CommonFields
}

func NewMemoryStore(provider SqlProviderAchieve) *MemoryStore {
	repo := &MemoryStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MEMORY)
	repo.SetAllColumns("id", "content", "created_at", "updated_at")
	return repo
}

func (s *MemoryStore) insert(data types.Memory) sq.InsertBuilder {
	now := types.NowMilli()
	if data.CreatedAt == 0 {
		data.CreatedAt = now
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = data.CreatedAt
	}
	return sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Content, data.CreatedAt, data.UpdatedAt)
}

func (s *MemoryStore) Create(ctx context.Context, data types.Memory) error {
	return exec(ctx, &s.CommonFields, s.insert(data))
}

func (s *MemoryStore) Put(ctx context.Context, data types.Memory) error {
	return exec(ctx, &s.CommonFields, s.insert(data).Suffix(upsertSuffix("id", s.GetAllColumns()...)))
}

func (s *MemoryStore) GetMemory(ctx context.Context, id string) (*types.Memory, error) {
	return getOne[types.Memory](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *MemoryStore) ListMemories(ctx context.Context) ([]*types.Memory, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	return selectList[types.Memory](ctx, &s.CommonFields, query)
}

func (s *MemoryStore) UpdateContent(ctx context.Context, id, content string) error {
	query := sq.Update(s.GetTable()).
		Set("content", content).
		Set("updated_at", types.NowMilli()).
		Where(sq.Eq{"id": id})
	return exec(ctx, &s.CommonFields, query)
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
