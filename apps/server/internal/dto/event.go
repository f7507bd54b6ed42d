package dto

// 实时事件类型，经 WebSocket 推送给在线客户端
const (
	EventLovAdded          = "lov_added"
	EventLovUpdated        = "lov_updated"
	EventLovDeleted        = "lov_deleted"
	EventFriendshipAdded   = "friendship_added"
	EventFriendshipRemoved = "friendship_removed"
	EventReactionChanged   = "reaction_changed"
	EventProfileRenamed    = "profile_renamed"
	EventNotification      = "notification"
)

// Event 实时推送事件
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// FriendshipEventPayload 好友关系变更事件载荷
type FriendshipEventPayload struct {
	PeerUuid   string `json:"peer_uuid"`
	PeerPseudo string `json:"peer_pseudo,omitempty"`
}

// LovEventPayload 标记点变更事件载荷
// 删除事件只携带 Id。
type LovEventPayload struct {
	Id        int64        `json:"id,string"`
	OwnerUuid string       `json:"owner_uuid"`
	Lov       *LovResponse `json:"lov,omitempty"`
}

// ReactionEventPayload 表态变更事件载荷
type ReactionEventPayload struct {
	LovId     int64  `json:"lov_id,string"`
	ActorUuid string `json:"actor_uuid"`
	Emoji     string `json:"emoji"`
	Reacted   bool   `json:"reacted"`
}
