package model

import (
	"fmt"
	"time"
)

// Reaction 对标记点的表情反应。
// 主键取 {lov_id}_{user_uuid}_{emoji}，天然保证同一用户对同一标记点的
// 同一表情至多一条；切换语义（再点一次取消）依赖该确定性主键实现。
type Reaction struct {
	Id        string    `gorm:"column:id;type:varchar(80);primaryKey;comment:lovId_userUuid_emoji"`
	LovId     int64     `gorm:"column:lov_id;not null;index;comment:标记点id"`
	UserUuid  string    `gorm:"column:user_uuid;type:char(28);not null;index;comment:反应者uuid"`
	UserEmail string    `gorm:"column:user_email;type:varchar(128);comment:反应者邮箱"`
	Emoji     string    `gorm:"column:emoji;type:varchar(16);not null;comment:反应表情"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Reaction) TableName() string { return "reaction" }

// ReactionID 构造反应记录的确定性主键
func ReactionID(lovID int64, userUUID, emoji string) string {
	return fmt.Sprintf("%d_%s_%s", lovID, userUUID, emoji)
}
