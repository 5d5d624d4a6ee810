package v1

import (
	"context"
	"strings"

	"github.com/pageassist/localstore/app/core"
	"github.com/pageassist/localstore/pkg/types"
	"github.com/pageassist/localstore/pkg/utils"
)

type UserLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewUserLogic(ctx context.Context, core *core.Core) *UserLogic {
	return &UserLogic{
		ctx:  ctx,
		core: core,
	}
}

// GetUserID 不存在时生成并保存新的用户 id
func (l *UserLogic) GetUserID() (string, error) {
	setting, err := l.core.Store().UserSettingStore().GetUserSetting(l.ctx, types.USER_SETTING_ID)
	if setting, err = getOrNil("UserLogic.GetUserID.Get", setting, err); err != nil {
		return "", err
	}
	if setting != nil && strings.TrimSpace(setting.UserID) != "" {
		return setting.UserID, nil
	}

	userID := utils.GenUserID()
	if err = l.SetUserID(userID); err != nil {
		return "", err
	}
	return userID, nil
}

func (l *UserLogic) SetUserID(userID string) error {
	if err := l.core.Store().UserSettingStore().Put(l.ctx, types.UserSetting{
		ID:     types.USER_SETTING_ID,
		UserID: userID,
	}); err != nil {
		return storeError("UserLogic.SetUserID", err, true)
	}
	return nil
}
