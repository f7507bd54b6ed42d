package repository

import (
	"encoding/json"
	"math/rand"
	"strings"
	"time"
)

// friendEntry 好友关系缓存里存放的元数据（Hash field 的 value）
// Color 仅在当前用户是关系拥有方时有值。
type friendEntry struct {
	Color     string `json:"color"`
	Pseudo    string `json:"pseudo"`
	UpdatedAt int64  `json:"updated_at"`
}

func buildFriendEntryJSON(color, pseudo string, updatedAt int64) string {
	entry := friendEntry{
		Color:     color,
		Pseudo:    pseudo,
		UpdatedAt: updatedAt,
	}
	data, err := json.Marshal(&entry)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func parseFriendEntryJSON(raw string) (*friendEntry, error) {
	var entry friendEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func isRedisWrongType(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "WRONGTYPE")
}

// getRandomExpireTime 生成带随机抖动的过期时间
// baseExpire: 基础过期时间
// 返回: 基础过期时间 ± 10% 的随机时间
func getRandomExpireTime(baseExpire time.Duration) time.Duration {
	// 计算随机抖动范围（±10%）
	jitterRange := float64(baseExpire) * 0.1
	jitter := time.Duration(rand.Float64()*float64(jitterRange)*2 - float64(jitterRange))

	return baseExpire + jitter
}

// getRandomBool 生成随机布尔值
// probability: 概率
// 返回: 概率为probability的布尔值
func getRandomBool(probability float64) bool {
	return rand.Float64() < probability
}
