package model

import (
	"time"
)

// Lov 用户标记的兴趣点。
// id 由 snowflake 分配；只有 user_uuid 等于创建者的请求可以修改或删除。
type Lov struct {
	Id        int64   `gorm:"column:id;primaryKey;comment:snowflake id"`
	Latitude  float64 `gorm:"column:latitude;type:decimal(10,7);not null;comment:纬度(WGS84)"`
	Longitude float64 `gorm:"column:longitude;type:decimal(10,7);not null;comment:经度(WGS84)"`

	Emoji        string `gorm:"column:emoji;type:varchar(16);not null;comment:分类 aubergine/peche"`
	LocationType string `gorm:"column:location_type;type:varchar(8);not null;comment:地点类型 address/city"`
	AddressLabel string `gorm:"column:address_label;type:varchar(255);comment:地址或城市展示文本"`
	City         string `gorm:"column:city;type:varchar(128);comment:归一化城市名"`
	PartnerName  string `gorm:"column:partner_name;type:varchar(64);comment:同伴名(可选)"`
	Rating       int    `gorm:"column:rating;not null;comment:评分 1..5"`

	UserUuid   string `gorm:"column:user_uuid;type:char(28);not null;index:idx_user_created;comment:创建者uuid"`
	UserEmail  string `gorm:"column:user_email;type:varchar(128);comment:创建者邮箱"`
	UserPseudo string `gorm:"column:user_pseudo;type:varchar(64);comment:创建时的昵称"`
	UserColor  string `gorm:"column:user_color;type:char(7);comment:创建者颜色(固定为本人色)"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:idx_user_created"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Lov) TableName() string { return "lov" }
