package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.OpenAIConfigStore = NewOpenAIConfigStore(provider)
	})
}

type OpenAIConfigStore struct {
	CommonFields
}

func NewOpenAIConfigStore(provider SqlProviderAchieve) *OpenAIConfigStore {
	repo := &OpenAIConfigStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_OPENAI_CONFIG)
	repo.SetAllColumns("id", "name", "base_url", "api_key", "provider", "db_type", "fix_cors", "headers", "created_at")
	return repo
}

func (s *OpenAIConfigStore) insert(data types.OpenAIModelConfig) sq.InsertBuilder {
	if data.CreatedAt == 0 {
		data.CreatedAt = types.NowMilli()
	}
	return sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Name, data.BaseURL, data.APIKey, data.Provider, types.DB_TYPE_OPENAI, data.FixCors, data.Headers, data.CreatedAt)
}

func (s *OpenAIConfigStore) Create(ctx context.Context, data types.OpenAIModelConfig) error {
	return exec(ctx, &s.CommonFields, s.insert(data))
}

func (s *OpenAIConfigStore) Put(ctx context.Context, data types.OpenAIModelConfig) error {
	return exec(ctx, &s.CommonFields, s.insert(data).Suffix(upsertSuffix("id", s.GetAllColumns()...)))
}

func (s *OpenAIConfigStore) GetOpenAIConfig(ctx context.Context, id string) (*types.OpenAIModelConfig, error) {
	return getOne[types.OpenAIModelConfig](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *OpenAIConfigStore) ListOpenAIConfigs(ctx context.Context) ([]*types.OpenAIModelConfig, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC", "id DESC")
	return selectList[types.OpenAIModelConfig](ctx, &s.CommonFields, query)
}

func (s *OpenAIConfigStore) Update(ctx context.Context, id string, args types.UpdateOpenAIConfigArgs) error {
	query := sq.Update(s.GetTable()).
		Set("name", args.Name).
		Set("base_url", args.BaseURL).
		Set("api_key", args.APIKey).
		Set("headers", types.HTTPHeaders(args.Headers)).
		Where(sq.Eq{"id": id})
	if args.FixCors != nil {
		query = query.Set("fix_cors", *args.FixCors)
	}
	return exec(ctx, &s.CommonFields, query)
}

func (s *OpenAIConfigStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *OpenAIConfigStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
