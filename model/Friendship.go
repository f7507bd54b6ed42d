package model

import (
	"time"
)

// 好友关系状态。历史上只写入过 accepted，保留字段以兼容存量数据。
const (
	FriendshipAccepted = "accepted"
)

// Friendship 好友关系边。
// 逻辑上是无向关系（A 和 B 互为好友），物理上只存一条有向记录：
// user_uuid 是发起添加的一方，friend_uuid 是被添加的一方。
// 所有读路径必须双向匹配（user_uuid = me OR friend_uuid = me）。
// 约束：uniqueIndex:uidx_user_friend 保证同方向不重复；反方向的去重
// 由写入前的双向检查负责。
type Friendship struct {
	Id         int64  `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserUuid   string `gorm:"column:user_uuid;type:char(28);not null;uniqueIndex:uidx_user_friend;index;comment:发起方uuid"`
	FriendUuid string `gorm:"column:friend_uuid;type:char(28);not null;uniqueIndex:uidx_user_friend;index;comment:被添加方uuid"`
	Status     string `gorm:"column:status;type:varchar(16);not null;default:accepted;comment:关系状态"`

	// FriendColor 这条边上好友标记点的展示颜色，从固定配色池中分配
	FriendColor string `gorm:"column:friend_color;type:char(7);comment:好友展示颜色"`

	// 建边时的资料快照。资料后续变更通过改名扇出保持最终一致，
	// 读取时优先实时资料、快照兜底。
	UserPseudo   string `gorm:"column:user_pseudo;type:varchar(64);comment:发起方昵称快照"`
	UserEmail    string `gorm:"column:user_email;type:varchar(128);comment:发起方邮箱快照"`
	FriendPseudo string `gorm:"column:friend_pseudo;type:varchar(64);comment:被添加方昵称快照"`
	FriendEmail  string `gorm:"column:friend_email;type:varchar(128);comment:被添加方邮箱快照"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Friendship) TableName() string { return "friendship" }

// OtherParty 返回这条边上相对 me 的另一方 uuid。
// me 不在边上时返回空串。
func (f *Friendship) OtherParty(me string) string {
	switch me {
	case f.UserUuid:
		return f.FriendUuid
	case f.FriendUuid:
		return f.UserUuid
	default:
		return ""
	}
}

// Touches 判断 me 是否为这条边的任意一方
func (f *Friendship) Touches(me string) bool {
	return f.UserUuid == me || f.FriendUuid == me
}
