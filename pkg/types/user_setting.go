package types

import "fmt"

// USER_SETTING_ID 用户配置固定只有一条记录
const USER_SETTING_ID = "user_id"

type UserSetting struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
}

func (u UserSetting) Validate() error {
	if u.ID == "" || u.UserID == "" {
		return fmt.Errorf("user setting requires id and user_id")
	}
	return nil
}
