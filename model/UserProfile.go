package model

import (
	"time"
)

// UserProfile 用户资料，一个认证身份对应且仅对应一条记录。
// 约束：uuid 为外部认证系统分配的稳定身份，创建后不可变；
// code 由 uuid 确定性派生（前 5 位字母数字大写），用于好友添加。
type UserProfile struct {
	Uuid      string    `gorm:"column:uuid;type:char(28);primaryKey;comment:用户uuid"`
	Pseudo    string    `gorm:"column:pseudo;type:varchar(64);comment:昵称"`
	Email     string    `gorm:"column:email;type:varchar(128);index;comment:邮箱"`
	Code      string    `gorm:"column:code;type:char(5);index;comment:好友码"`
	// HasSetInitialPseudo 首次昵称是否已设置。置位后昵称不可再通过资料接口修改。
	HasSetInitialPseudo bool   `gorm:"column:has_set_initial_pseudo;not null;default:0;comment:昵称是否已定稿"`
	PasswordHash        string `gorm:"column:password_hash;type:varchar(128);comment:密码哈希(bcrypt)"`

	// 通知偏好，默认全部开启
	NotifyNewLovs        bool `gorm:"column:notify_new_lovs;not null;default:1;comment:好友新标记点通知"`
	NotifyNewFriendships bool `gorm:"column:notify_new_friendships;not null;default:1;comment:新好友通知"`
	NotifyNewReactions   bool `gorm:"column:notify_new_reactions;not null;default:1;comment:新反应通知"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserProfile) TableName() string { return "user_profile" }
