package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.CustomModelStore = NewCustomModelStore(provider)
	})
}

type CustomModelStore struct {
	CommonFields
}

func NewCustomModelStore(provider SqlProviderAchieve) *CustomModelStore {
	repo := &CustomModelStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CUSTOM_MODEL)
	repo.SetAllColumns("id", "model_id", "name", "model_name", "model_image", "provider_id", "lookup", "model_type", "db_type")
	return repo
}

func (s *CustomModelStore) insert(data types.Model) sq.InsertBuilder {
	if data.Lookup == "" {
		data.Lookup = types.ModelLookup(data.ModelID, data.ProviderID)
	}
	if data.ModelType == "" {
		data.ModelType = types.MODEL_TYPE_CHAT
	}
	return sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.ModelID, data.Name, data.ModelName, data.ModelImage, data.ProviderID, data.Lookup, data.ModelType, types.DB_TYPE_OPENAI_MODEL)
}

func (s *CustomModelStore) Create(ctx context.Context, data types.Model) error {
	return exec(ctx, &s.CommonFields, s.insert(data))
}

func (s *CustomModelStore) Put(ctx context.Context, data types.Model) error {
	return exec(ctx, &s.CommonFields, s.insert(data).Suffix(upsertSuffix("id", s.GetAllColumns()...)))
}

func (s *CustomModelStore) GetModel(ctx context.Context, id string) (*types.Model, error) {
	return getOne[types.Model](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *CustomModelStore) GetModelByLookup(ctx context.Context, lookup string) (*types.Model, error) {
	return getOne[types.Model](ctx, &s.CommonFields, sq.Eq{"lookup": lookup})
}

func (s *CustomModelStore) ListModels(ctx context.Context, opts types.ListModelsOptions) ([]*types.Model, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("id ASC")
	opts.Apply(&query)
	return selectList[types.Model](ctx, &s.CommonFields, query)
}

func (s *CustomModelStore) Delete(ctx context.Context, id string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"id": id}))
}

func (s *CustomModelStore) deleteReturningModelIDs(ctx context.Context, where sq.Sqlizer) ([]string, error) {
	queryString, args, err := s.ToSql(sq.Select("model_id").From(s.GetTable()).Where(where))
	if err != nil {
		return nil, err
	}

	var modelIDs []string
	if err = s.GetReplica(ctx).Select(&modelIDs, queryString, args...); err != nil {
		return nil, err
	}
	if len(modelIDs) == 0 {
		return nil, nil
	}

	if err = exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(where)); err != nil {
		return nil, err
	}
	return modelIDs, nil
}

// DeleteByProviderID 返回被删除模型的 model_id, 用于级联清理模型状态
func (s *CustomModelStore) DeleteByProviderID(ctx context.Context, providerID string) ([]string, error) {
	return s.deleteReturningModelIDs(ctx, sq.Eq{"provider_id": providerID})
}

func (s *CustomModelStore) DeleteOrphans(ctx context.Context) ([]string, error) {
	return s.deleteReturningModelIDs(ctx, sq.Expr("provider_id NOT IN (SELECT id FROM "+types.TABLE_OPENAI_CONFIG.Name()+")"))
}

func (s *CustomModelStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
