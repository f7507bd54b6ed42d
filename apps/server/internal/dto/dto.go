package dto

import (
	"time"

	"LovMapServer/model"
)

// ==================== 认证 ====================

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Pseudo   string `json:"pseudo" binding:"max=64"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse 登录/注册响应
type TokenResponse struct {
	Token    string           `json:"token"`
	ExpireAt int64            `json:"expire_at"` // unix 秒
	Profile  *ProfileResponse `json:"profile"`
}

// ==================== 用户资料 ====================

// ProfileResponse 用户资料响应
type ProfileResponse struct {
	Uuid                 string `json:"uuid"`
	Pseudo               string `json:"pseudo"`
	Email                string `json:"email"`
	Code                 string `json:"code"`
	HasSetInitialPseudo  bool   `json:"has_set_initial_pseudo"`
	NotifyNewLovs        bool   `json:"notify_new_lovs"`
	NotifyNewFriendships bool   `json:"notify_new_friendships"`
	NotifyNewReactions   bool   `json:"notify_new_reactions"`
}

// ConvertProfileResponse 模型转资料响应
func ConvertProfileResponse(p *model.UserProfile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		Uuid:                 p.Uuid,
		Pseudo:               p.Pseudo,
		Email:                p.Email,
		Code:                 p.Code,
		HasSetInitialPseudo:  p.HasSetInitialPseudo,
		NotifyNewLovs:        p.NotifyNewLovs,
		NotifyNewFriendships: p.NotifyNewFriendships,
		NotifyNewReactions:   p.NotifyNewReactions,
	}
}

// UpdatePseudoRequest 设置昵称请求（仅允许设置一次）
type UpdatePseudoRequest struct {
	Pseudo string `json:"pseudo" binding:"required,min=1,max=64"`
}

// NotifyPrefsRequest 通知偏好请求
type NotifyPrefsRequest struct {
	NewLovs        bool `json:"new_lovs"`
	NewFriendships bool `json:"new_friendships"`
	NewReactions   bool `json:"new_reactions"`
}

// ==================== 好友 ====================

// AddFriendRequest 通过好友码添加好友请求
type AddFriendRequest struct {
	Code string `json:"code" binding:"required"`
}

// FriendResponse 好友列表项
// Pseudo 优先取实时资料，资料缺失时回退建边快照。
type FriendResponse struct {
	Uuid      string    `json:"uuid"`
	Pseudo    string    `json:"pseudo"`
	Email     string    `json:"email"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// ==================== 标记点 ====================

// AddLovRequest 创建标记点请求
type AddLovRequest struct {
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	Emoji        string   `json:"emoji" binding:"required"`
	LocationType string   `json:"location_type" binding:"required"`
	AddressLabel string   `json:"address_label" binding:"max=255"`
	City         string   `json:"city" binding:"max=128"`
	PartnerName  string   `json:"partner_name" binding:"max=64"`
	Rating       int      `json:"rating" binding:"required"`
}

// UpdateLovRequest 修改标记点请求
// 指针字段为 nil 表示不修改（三态语义：缺省/清空/赋值）。
type UpdateLovRequest struct {
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Emoji        *string  `json:"emoji"`
	LocationType *string  `json:"location_type"`
	AddressLabel *string  `json:"address_label"`
	City         *string  `json:"city"`
	PartnerName  *string  `json:"partner_name"`
	Rating       *int     `json:"rating"`
}

// LovResponse 标记点响应
type LovResponse struct {
	Id           int64     `json:"id,string"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Emoji        string    `json:"emoji"`
	LocationType string    `json:"location_type"`
	AddressLabel string    `json:"address_label"`
	City         string    `json:"city"`
	PartnerName  string    `json:"partner_name"`
	Rating       int       `json:"rating"`
	UserUuid     string    `json:"user_uuid"`
	UserPseudo   string    `json:"user_pseudo"`
	UserColor    string    `json:"user_color"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConvertLovResponse 模型转标记点响应
func ConvertLovResponse(l *model.Lov) *LovResponse {
	if l == nil {
		return nil
	}
	return &LovResponse{
		Id:           l.Id,
		Latitude:     l.Latitude,
		Longitude:    l.Longitude,
		Emoji:        l.Emoji,
		LocationType: l.LocationType,
		AddressLabel: l.AddressLabel,
		City:         l.City,
		PartnerName:  l.PartnerName,
		Rating:       l.Rating,
		UserUuid:     l.UserUuid,
		UserPseudo:   l.UserPseudo,
		UserColor:    l.UserColor,
		CreatedAt:    l.CreatedAt,
	}
}

// ConvertLovResponses 批量转换
func ConvertLovResponses(lovs []*model.Lov) []*LovResponse {
	out := make([]*LovResponse, 0, len(lovs))
	for _, l := range lovs {
		out = append(out, ConvertLovResponse(l))
	}
	return out
}

// NearbyRequest 附近标记点请求
type NearbyRequest struct {
	Latitude     float64 `form:"latitude" binding:"required"`
	Longitude    float64 `form:"longitude" binding:"required"`
	RadiusMeters float64 `form:"radius_meters"`
	Limit        int     `form:"limit"`
}

// ==================== 表态 ====================

// ReactRequest 表态切换请求
type ReactRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// ReactResponse 表态切换响应
type ReactResponse struct {
	Reacted bool `json:"reacted"` // true 表示此次操作后处于已表态状态
}

// ReactionCountsResponse 表态统计响应
// Counts 始终包含全部支持的表情（计数可为 0），客户端无需判空。
type ReactionCountsResponse struct {
	Counts map[string]int `json:"counts"`
	Mine   []string       `json:"mine"` // 当前用户已表态的表情
}

// ==================== 账号 ====================

// DeleteAccountRequest 注销账号请求（需要密码重认证）
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// ==================== 通知 ====================

// NotificationResponse 通知历史项
type NotificationResponse struct {
	Id        int64     `json:"id,string"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	ActorUuid string    `json:"actor_uuid"`
	LovId     int64     `json:"lov_id,string"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// ConvertNotificationResponse 模型转通知响应
func ConvertNotificationResponse(n *model.Notification) *NotificationResponse {
	if n == nil {
		return nil
	}
	return &NotificationResponse{
		Id:        n.Id,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		ActorUuid: n.ActorUuid,
		LovId:     n.LovId,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}

// ==================== 地理编码 ====================

// GeocodeRequest 地理编码请求
type GeocodeRequest struct {
	Query string `form:"q" binding:"required,min=2"`
	Limit int    `form:"limit"`
}

// GeocodeCandidate 地理编码候选
type GeocodeCandidate struct {
	Label     string  `json:"label"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
