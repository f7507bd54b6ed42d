package service

import (
	"LovMapServer/model"
)

// 可见性规则：一个用户能看到自己和好友的标记点，仅此而已。
// 这里的函数是纯函数，作为所有读路径的统一裁决点。

// AuthorizedUUIDs 计算 viewer 的可见所有者集合：自己 + 全部好友，去重。
// viewer 自己始终在集合内，即使关系列表为空。
func AuthorizedUUIDs(viewerUUID string, friendships []*model.Friendship) []string {
	out := make([]string, 0, len(friendships)+1)
	seen := map[string]bool{viewerUUID: true}
	out = append(out, viewerUUID)

	for _, f := range friendships {
		peer := f.OtherParty(viewerUUID)
		if peer == "" || seen[peer] {
			continue
		}
		seen[peer] = true
		out = append(out, peer)
	}
	return out
}

// IsFriendOrSelf 判断 target 是否在 viewer 的可见所有者集合内
func IsFriendOrSelf(viewerUUID, targetUUID string, friendships []*model.Friendship) bool {
	if viewerUUID == targetUUID {
		return true
	}
	for _, f := range friendships {
		if f.OtherParty(viewerUUID) == targetUUID {
			return true
		}
	}
	return false
}
