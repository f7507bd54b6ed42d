package service

import (
	"context"
	"time"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/marker"
	"LovMapServer/model"
)

// ILiveBus 实时事件发布接口，由 live.Hub 适配实现。
// Service 层只负责发布，不关心有没有订阅方。
type ILiveBus interface {
	Publish(ctx context.Context, topic string, event dto.Event)
	PublishMany(ctx context.Context, topics []string, event dto.Event)
}

// INotifier 通知分发接口。
// 实现需要：按接收者偏好过滤、落库历史、实时推送、投递 Kafka 推送任务。
type INotifier interface {
	Notify(ctx context.Context, notification *model.Notification)
}

// IProfileService 用户资料服务接口
type IProfileService interface {
	// EnsureProfile 幂等建档：登录后调用，缺档补档、存在则补全缺失字段
	EnsureProfile(ctx context.Context, uuid, email string) (*model.UserProfile, error)
	// GetProfile 获取资料
	GetProfile(ctx context.Context, uuid string) (*model.UserProfile, error)
	// SetInitialPseudo 设置初始昵称（仅允许一次），并扇出好友关系快照
	SetInitialPseudo(ctx context.Context, uuid, pseudo string) error
	// UpdateNotifyPrefs 更新通知偏好
	UpdateNotifyPrefs(ctx context.Context, uuid string, req *dto.NotifyPrefsRequest) error
}

// IFriendService 好友服务接口
type IFriendService interface {
	// AddFriendByCode 通过好友码添加好友
	AddFriendByCode(ctx context.Context, userUUID, code string) (*dto.FriendResponse, error)
	// RemoveFriend 删除好友（两个方向）
	RemoveFriend(ctx context.Context, userUUID, friendUUID string) error
	// ListFriends 好友列表，昵称实时优先、快照兜底
	ListFriends(ctx context.Context, userUUID string) ([]*dto.FriendResponse, error)
	// ListFriendUUIDs 好友 uuid 集合（订阅重建用）
	ListFriendUUIDs(ctx context.Context, userUUID string) ([]string, error)
	// ReassignFriendColors 按添加顺序重新分配好友颜色
	ReassignFriendColors(ctx context.Context, userUUID string) error
}

// ILovService 标记点服务接口
type ILovService interface {
	// AddLov 创建标记点
	AddLov(ctx context.Context, userUUID string, req *dto.AddLovRequest) (*dto.LovResponse, error)
	// UpdateLov 修改标记点（三态增量）
	UpdateLov(ctx context.Context, userUUID string, lovID int64, req *dto.UpdateLovRequest) (*dto.LovResponse, error)
	// DeleteLov 删除标记点并级联删除表态
	DeleteLov(ctx context.Context, userUUID string, lovID int64) error
	// GetVisibleLovs 当前用户可见的全部标记点（自己 + 好友）
	GetVisibleLovs(ctx context.Context, userUUID string) ([]*dto.LovResponse, error)
	// GetVisibleMarkers 可见标记点的地图聚合视图
	GetVisibleMarkers(ctx context.Context, userUUID string) ([]*marker.Group, error)
	// GetUserLovs 查看某个用户的标记点；无权限时静默返回空列表
	GetUserLovs(ctx context.Context, viewerUUID, targetUUID string) ([]*dto.LovResponse, error)
	// GetNearbyLovs 附近的可见标记点
	GetNearbyLovs(ctx context.Context, userUUID string, req *dto.NearbyRequest) ([]*dto.LovResponse, error)
}

// IReactionService 表态服务接口
type IReactionService interface {
	// ToggleReaction 切换表态：未表态则添加，已表态则取消
	ToggleReaction(ctx context.Context, userUUID string, lovID int64, emoji string) (*dto.ReactResponse, error)
	// GetReactionCounts 表态统计，始终返回全部支持表情
	GetReactionCounts(ctx context.Context, userUUID string, lovID int64) (*dto.ReactionCountsResponse, error)
}

// IAccountService 账号生命周期服务接口
type IAccountService interface {
	// DeleteAccount 注销账号：密码重认证 + 串行级联清理
	// tokenIssuedAt 为当前令牌签发时间，超出重认证窗口则拒绝。
	DeleteAccount(ctx context.Context, userUUID, password string, tokenIssuedAt time.Time) error
}

// IAuthService 认证服务接口
type IAuthService interface {
	// Register 注册并建档
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.TokenResponse, error)
	// Login 登录
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
}

// IGeocodeService 地理编码服务接口
type IGeocodeService interface {
	// Search 地址搜索，返回候选列表
	Search(ctx context.Context, query string, limit int) ([]*dto.GeocodeCandidate, error)
}

// INotificationService 通知历史服务接口
type INotificationService interface {
	// ListNotifications 分页拉取通知历史
	ListNotifications(ctx context.Context, userUUID string, page, pageSize int) ([]*dto.NotificationResponse, int64, error)
	// MarkRead 标记通知已读
	MarkRead(ctx context.Context, userUUID string, id int64) error
	// MarkAllRead 全部标记已读，返回影响条数
	MarkAllRead(ctx context.Context, userUUID string) (int64, error)
	// CountUnread 未读通知数
	CountUnread(ctx context.Context, userUUID string) (int64, error)
	// DeleteNotification 删除一条通知
	DeleteNotification(ctx context.Context, userUUID string, id int64) error
	// ClearNotifications 清空通知历史，返回删除条数
	ClearNotifications(ctx context.Context, userUUID string) (int64, error)
}
