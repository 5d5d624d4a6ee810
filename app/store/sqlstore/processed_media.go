package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ProcessedMediaStore = NewProcessedMediaStore(provider)
	})
}

type ProcessedMediaStore struct {
	CommonFields
}

func NewProcessedMediaStore(provider SqlProviderAchieve) *ProcessedMediaStore {
	repo := &ProcessedMediaStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROCESSED_MEDIA)
	repo.SetAllColumns("id", "url", "title", "media_type", "content", "created_at")
	return repo
}

func (s *ProcessedMediaStore) Put(ctx context.Context, data types.ProcessedMedia) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.URL, data.Title, data.MediaType, data.Content, data.CreatedAt).
		Suffix(upsertSuffix("id", s.GetAllColumns()...))
	return exec(ctx, &s.CommonFields, query)
}

func (s *ProcessedMediaStore) GetProcessedMedia(ctx context.Context, id string) (*types.ProcessedMedia, error) {
	return getOne[types.ProcessedMedia](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *ProcessedMediaStore) ListProcessedMedia(ctx context.Context) ([]*types.ProcessedMedia, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	return selectList[types.ProcessedMedia](ctx, &s.CommonFields, query)
}

func (s *ProcessedMediaStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *ProcessedMediaStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
