package rediskey

import (
	"fmt"
	"time"
)

// ==================== TTL 常量 ====================

const (
	// FriendRelationTTL 好友关系缓存 TTL
	FriendRelationTTL = 24 * time.Hour
	// FriendRelationEmptyTTL 好友关系空值缓存 TTL
	FriendRelationEmptyTTL = 5 * time.Minute

	// ProfileTTL 用户资料缓存 TTL
	ProfileTTL = 1 * time.Hour
	// ProfileEmptyTTL 用户资料空值缓存 TTL
	ProfileEmptyTTL = 5 * time.Minute
)

// ==================== Key 构造函数 ====================

// FriendRelationKey 生成好友关系 Key: user:relation:friend:{user_uuid}
// Hash 结构：field 为对端 uuid，value 为边上的元数据 JSON。
func FriendRelationKey(userUUID string) string {
	return fmt.Sprintf("user:relation:friend:%s", userUUID)
}

// ProfileKey 生成用户资料缓存 Key: user:profile:{uuid}
func ProfileKey(uuid string) string {
	return fmt.Sprintf("user:profile:%s", uuid)
}

// LovGeoKey 标记点地理索引 Key（全局一个 GEO 集合，member 为标记点 id）
func LovGeoKey() string {
	return "lov:geo"
}

// RateLimitUserKey 用户级限流 Key: rate:limit:user:{user_uuid}
func RateLimitUserKey(userUUID string) string {
	return fmt.Sprintf("rate:limit:user:%s", userUUID)
}

// RateLimitIPKey IP 级限流 Key: rate:limit:ip:{ip}
func RateLimitIPKey(ip string) string {
	return fmt.Sprintf("rate:limit:ip:%s", ip)
}
