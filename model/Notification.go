package model

import (
	"time"
)

// 通知类型
const (
	NotifyTypeNewFriendship = "newFriendship" // 有人添加了你
	NotifyTypeNewLov        = "newLov"        // 好友添加了新标记点
	NotifyTypeNewReaction   = "newReaction"   // 有人对你的标记点做出反应
)

// Notification 通知历史记录。
// 通知的推送本身走 Kafka 交给外部推送服务，不依赖投递确认；
// 这里只负责落库供客户端拉取历史。
type Notification struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement;comment:自增id"`
	UserUuid  string    `gorm:"column:user_uuid;type:char(28);not null;index:idx_user_created;comment:接收者uuid"`
	Type      string    `gorm:"column:type;type:varchar(32);not null;comment:通知类型"`
	Title     string    `gorm:"column:title;type:varchar(128);comment:标题"`
	Body      string    `gorm:"column:body;type:varchar(255);comment:内容"`
	ActorUuid string    `gorm:"column:actor_uuid;type:char(28);comment:触发者uuid"`
	LovId     int64     `gorm:"column:lov_id;comment:相关标记点id(可为0)"`
	IsRead    bool      `gorm:"column:is_read;not null;default:0;comment:是否已读"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_user_created"`
}

func (Notification) TableName() string { return "notification" }
