package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ModelNicknameStore = NewModelNicknameStore(provider)
		provider.stores.ModelStateStore = NewModelStateStore(provider)
		provider.stores.ProviderStateStore = NewProviderStateStore(provider)
	})
}

// 以下三张表的 id 与业务主键(model_id / provider_id)一致, 写入即覆盖

type ModelNicknameStore struct {
	CommonFields
}

func NewModelNicknameStore(provider SqlProviderAchieve) *ModelNicknameStore {
	repo := &ModelNicknameStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MODEL_NICKNAME)
	repo.SetAllColumns("id", "model_id", "model_name", "model_avatar")
	return repo
}

func (s *ModelNicknameStore) Put(ctx context.Context, data types.ModelNickname) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ModelID, data.ModelID, data.ModelName, data.ModelAvatar).
		Suffix(upsertSuffix("id", s.GetAllColumns()...))
	return exec(ctx, &s.CommonFields, query)
}

func (s *ModelNicknameStore) GetNickname(ctx context.Context, modelID string) (*types.ModelNickname, error) {
	return getOne[types.ModelNickname](ctx, &s.CommonFields, sq.Eq{"model_id": modelID})
}

func (s *ModelNicknameStore) ListNicknames(ctx context.Context) ([]*types.ModelNickname, error) {
	return selectList[types.ModelNickname](ctx, &s.CommonFields, sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("model_id ASC"))
}

func (s *ModelNicknameStore) Delete(ctx context.Context, modelID string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"model_id": modelID}))
}

func (s *ModelNicknameStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}

type ModelStateStore struct {
	CommonFields
}

func NewModelStateStore(provider SqlProviderAchieve) *ModelStateStore {
	repo := &ModelStateStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_MODEL_STATE)
	repo.SetAllColumns("id", "model_id", "is_enabled")
	return repo
}

func (s *ModelStateStore) Put(ctx context.Context, data types.ModelState) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ModelID, data.ModelID, data.IsEnabled).
		Suffix(upsertSuffix("id", s.GetAllColumns()...))
	return exec(ctx, &s.CommonFields, query)
}

func (s *ModelStateStore) GetModelState(ctx context.Context, modelID string) (*types.ModelState, error) {
	return getOne[types.ModelState](ctx, &s.CommonFields, sq.Eq{"model_id": modelID})
}

func (s *ModelStateStore) ListModelStates(ctx context.Context) ([]*types.ModelState, error) {
	return selectList[types.ModelState](ctx, &s.CommonFields, sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("model_id ASC"))
}

func (s *ModelStateStore) DeleteByModelIDs(ctx context.Context, modelIDs []string) error {
	if len(modelIDs) == 0 {
		return nil
	}
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"model_id": modelIDs}))
}

func (s *ModelStateStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}

type ProviderStateStore struct {
	CommonFields
}

func NewProviderStateStore(provider SqlProviderAchieve) *ProviderStateStore {
	repo := &ProviderStateStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_PROVIDER_STATE)
	repo.SetAllColumns("id", "provider_id", "is_enabled")
	return repo
}

func (s *ProviderStateStore) Put(ctx context.Context, data types.ProviderState) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ProviderID, data.ProviderID, data.IsEnabled).
		Suffix(upsertSuffix("id", s.GetAllColumns()...))
	return exec(ctx, &s.CommonFields, query)
}

func (s *ProviderStateStore) GetProviderState(ctx context.Context, providerID string) (*types.ProviderState, error) {
	return getOne[types.ProviderState](ctx, &s.CommonFields, sq.Eq{"provider_id": providerID})
}

func (s *ProviderStateStore) ListProviderStates(ctx context.Context) ([]*types.ProviderState, error) {
	return selectList[types.ProviderState](ctx, &s.CommonFields, sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("provider_id ASC"))
}

func (s *ProviderStateStore) Delete(ctx context.Context, providerID string) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()).Where(sq.Eq{"provider_id": providerID}))
}

func (s *ProviderStateStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
