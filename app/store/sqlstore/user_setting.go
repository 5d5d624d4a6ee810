package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/pageassist/localstore/pkg/register"
	"github.com/pageassist/localstore/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.UserSettingStore = NewUserSettingStore(provider)
	})
}

type UserSettingStore struct {
	CommonFields
}

func NewUserSettingStore(provider SqlProviderAchieve) *UserSettingStore {
	repo := &UserSettingStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_USER_SETTING)
	repo.SetAllColumns("id", "user_id")
	return repo
}

func (s *UserSettingStore) Put(ctx context.Context, data types.UserSetting) error {
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.UserID).
		Suffix(upsertSuffix("id", s.GetAllColumns()...))
	return exec(ctx, &s.CommonFields, query)
}

func (s *UserSettingStore) GetUserSetting(ctx context.Context, id string) (*types.UserSetting, error) {
	return getOne[types.UserSetting](ctx, &s.CommonFields, sq.Eq{"id": id})
}

func (s *UserSettingStore) ListUserSettings(ctx context.Context) ([]*types.UserSetting, error) {
	return selectList[types.UserSetting](ctx, &s.CommonFields, sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("id ASC"))
}

func (s *UserSettingStore) Clear(ctx context.Context) error {
	return exec(ctx, &s.CommonFields, sq.Delete(s.GetTable()))
}
