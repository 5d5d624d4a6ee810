package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.WebshareStore = NewWebshareStore(provider)
	})
}

type WebshareStore struct {
	CommonFields
}

func NewWebshareStore(provider SqlProviderAchieve) *WebshareStore {
	repo := &WebshareStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_WEBSHARE)
	repo.SetAllColumns("id", "title", "url", "api_url", "share_id", "created_at")
	return repo
}

func (s *WebshareStore) insert(data types.Webshare) sq.InsertBuilder {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	return sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Title, data.URL, data.APIURL, data.ShareID, data.CreatedAt)
}

func (s *WebshareStore) Create(ctx context.Context, data types.Webshare) error {
	return exec(ctx, &s.CommonFields, s.insert(data))
}

func (s *WebshareStore) Put(ctx context.Context, data types.Webshare) error {
	return exec(ctx, &s.CommonFields, s.insert(data).Suffix(upsertSuffix("id", s.GetAllColumns()...)))
}

func (s *WebshareStore) GetWebshare(ctx context.Context, id string) (*types.Webshare, error) {
	return getOne[types.Webshare](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *WebshareStore) ListWebshares(ctx context.Context) ([]*types.Webshare, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	return selectList[types.Webshare](ctx, &s.CommonFields, query)
}

func (s *WebshareStore) Total(ctx context.Context) (uint64, error) {
	return selectCount(ctx, &s.CommonFields, sq.Select("COUNT(*)").From(s.GetTable()))
}

func (s *WebshareStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *WebshareStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
