package consts

import (
	"fmt"
	"math/rand/v2"
)

// ==================== 标记点分类 ====================

// 标记点的两种表情分类，与客户端约定保持一致。
const (
	LovEmojiAubergine = "aubergine"
	LovEmojiPeche     = "peche"
)

// LovEmojis 全部合法的标记点分类
var LovEmojis = []string{LovEmojiAubergine, LovEmojiPeche}

// IsLovEmoji 判断是否为合法的标记点分类
func IsLovEmoji(emoji string) bool {
	for _, e := range LovEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// ==================== 地点类型 ====================

const (
	LovLocationAddress = "address" // 精确地址
	LovLocationCity    = "city"    // 城市级别
)

// IsLovLocationType 判断是否为合法的地点类型
func IsLovLocationType(t string) bool {
	return t == LovLocationAddress || t == LovLocationCity
}

// ==================== 评分 ====================

const (
	RatingMin = 1
	RatingMax = 5
)

// ==================== 颜色 ====================

// SelfColor 当前用户自己标记点的固定颜色（橙色），不进入好友配色池。
const SelfColor = "#FF6A2B"

// FriendColors 好友配色池，共 15 种互不相同的颜色。
// 同一个用户的多个好友按顺序取第一个未使用的颜色。
var FriendColors = []string{
	"#2D7FF9", // 蓝
	"#4CAF50", // 绿
	"#673AB7", // 紫
	"#E91E63", // 粉
	"#00BCD4", // 青
	"#9C27B0", // 品红
	"#3F51B5", // 靛蓝
	"#009688", // 蓝绿
	"#FF9800", // 深橙（与 SelfColor 不同）
	"#795548", // 棕
	"#607D8B", // 蓝灰
	"#8BC34A", // 浅绿
	"#FFC107", // 黄
	"#FF5722", // 橙红
	"#2196F3", // 浅蓝
}

// RandomFriendColor 配色池耗尽后生成随机备用色。
// 避开池内颜色与本人色，保证地图上仍可区分。
func RandomFriendColor() string {
	for {
		color := fmt.Sprintf("#%06X", rand.IntN(0x1000000))
		if color == SelfColor {
			continue
		}
		reserved := false
		for _, c := range FriendColors {
			if c == color {
				reserved = true
				break
			}
		}
		if !reserved {
			return color
		}
	}
}

// DefaultFriendName 好友昵称兜底值（快照字段缺失时使用）
const DefaultFriendName = "Ami"

// ==================== 反应表情 ====================

// ReactionEmojis 可用的反应表情，固定 8 个。
// 计数接口始终返回全部 8 项，即使计数为 0。
var ReactionEmojis = []string{
	"❤️", "🔥", "👍", "😍", "💯", "😎", "⭐", "💪",
}

// IsReactionEmoji 判断反应表情是否在可用列表中
func IsReactionEmoji(emoji string) bool {
	for _, e := range ReactionEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// ==================== 好友码 ====================

const (
	// FriendCodeLen 好友码长度（取 uid 前 5 位字母数字后大写）
	FriendCodeLen = 5
	// FriendCodeMinLen 输入好友码的最小长度，低于该长度直接拒绝
	FriendCodeMinLen = 3
)

// ==================== 坐标 ====================

// CoordPrecision 地图聚合时坐标四舍五入的小数位数（约 11cm 精度），
// 用于把几乎相同位置的多次标记归为同一个物理点。
const CoordPrecision = 6
