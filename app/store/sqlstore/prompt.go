package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.PromptStore = NewPromptStore(provider)
	})
}

type PromptStore struct {
	CommonFields
}

func NewPromptStore(provider SqlProviderAchieve) *PromptStore {
	repo := &PromptStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROMPT)
	repo.SetAllColumns("id", "title", "content", "is_system", "created_by", "created_at")
	return repo
}

func (s *PromptStore) insert(data types.Prompt) sq.InsertBuilder {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	return sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Title, data.Content, data.IsSystem, data.CreatedBy, data.CreatedAt)
}

func (s *PromptStore) Create(ctx context.Context, data types.Prompt) error {
	return exec(ctx, &s.CommonFields, s.insert(data))
}

func (s *PromptStore) Put(ctx context.Context, data types.Prompt) error {
	return exec(ctx, &s.CommonFields, s.insert(data).Suffix(upsertSuffix("id", s.GetAllColumns()...)))
}

func (s *PromptStore) GetPrompt(ctx context.Context, id string) (*types.Prompt, error) {
	return getOne[types.Prompt](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *PromptStore) ListPrompts(ctx context.Context) ([]*types.Prompt, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	return selectList[types.Prompt](ctx, &s.CommonFields, query)
}

func (s *PromptStore) Total(ctx context.Context) (uint64, error) {
	return selectCount(ctx, &s.CommonFields, sq.Select("COUNT(*)").From(s.GetTable()))
}

func (s *PromptStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *PromptStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
