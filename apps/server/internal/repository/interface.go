package repository

import (
	"context"

	"LovMapServer/model"
)

// IUserRepository 用户资料数据访问接口
type IUserRepository interface {
	// EnsureProfile 幂等写入用户资料：不存在则创建，存在则只补全缺失字段
	EnsureProfile(ctx context.Context, profile *model.UserProfile) error
	// GetByUUID 按 uuid 查询资料（Cache-Aside）
	GetByUUID(ctx context.Context, uuid string) (*model.UserProfile, error)
	// GetByCode 按好友码查询资料
	GetByCode(ctx context.Context, code string) (*model.UserProfile, error)
	// GetByEmail 按邮箱查询资料
	GetByEmail(ctx context.Context, email string) (*model.UserProfile, error)
	// UpdatePseudo 更新昵称并置位初始昵称标记
	UpdatePseudo(ctx context.Context, uuid, pseudo string) error
	// UpdateNotifyPrefs 更新通知偏好
	UpdateNotifyPrefs(ctx context.Context, uuid string, newLovs, newFriendships, newReactions bool) error
	// Delete 删除用户资料
	Delete(ctx context.Context, uuid string) error
}

// IFriendshipRepository 好友关系数据访问接口
// 一条记录是一个有向关系：user_uuid 添加了 friend_uuid。
type IFriendshipRepository interface {
	// ListTouching 查询与用户相关的全部关系（两个方向）
	ListTouching(ctx context.Context, userUUID string) ([]*model.Friendship, error)
	// GetBetween 查询两用户间任一方向的关系
	GetBetween(ctx context.Context, a, b string) (*model.Friendship, error)
	// Create 创建有向关系，事务内复核颜色未被占用
	Create(ctx context.Context, friendship *model.Friendship) error
	// DeleteBetween 删除两用户间两个方向的关系，返回删除行数
	DeleteBetween(ctx context.Context, a, b string) (int64, error)
	// UsedColors 查询用户已分配给好友的颜色列表
	UsedColors(ctx context.Context, userUUID string) ([]string, error)
	// UpdateColor 更新某条关系的好友颜色
	UpdateColor(ctx context.Context, id int64, color string) error
	// UpdatePseudoSnapshots 昵称变更后刷新关系表两侧的昵称快照
	UpdatePseudoSnapshots(ctx context.Context, userUUID, pseudo string) error
	// CheckIsFriend 判断两用户是否互为好友（任一方向，Cache-Aside）
	CheckIsFriend(ctx context.Context, userUUID, peerUUID string) (bool, error)
	// DeleteAllTouching 删除与用户相关的全部关系，返回删除行数
	DeleteAllTouching(ctx context.Context, userUUID string) (int64, error)
}

// ILovRepository LOV 点位数据访问接口
type ILovRepository interface {
	// Create 创建点位并写入 GEO 索引
	Create(ctx context.Context, lov *model.Lov) error
	// GetByID 按 ID 查询点位
	GetByID(ctx context.Context, id int64) (*model.Lov, error)
	// Update 按字段增量更新点位
	Update(ctx context.Context, id int64, fields map[string]interface{}) error
	// Delete 删除点位并移除 GEO 索引
	Delete(ctx context.Context, id int64) error
	// ListByOwners 查询一组用户的全部点位，按创建时间倒序
	ListByOwners(ctx context.Context, ownerUUIDs []string) ([]*model.Lov, error)
	// ListByOwner 查询单个用户的全部点位
	ListByOwner(ctx context.Context, ownerUUID string) ([]*model.Lov, error)
	// ListIDsByOwner 查询单个用户的全部点位 ID
	ListIDsByOwner(ctx context.Context, ownerUUID string) ([]int64, error)
	// DeleteAllByOwner 删除单个用户的全部点位，返回删除行数
	DeleteAllByOwner(ctx context.Context, ownerUUID string) (int64, error)
	// NearbyIDs 查询某坐标半径内的点位 ID（GEO 索引）
	NearbyIDs(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]int64, error)
	// GetByIDs 按 ID 批量查询点位
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Lov, error)
}

// IReactionRepository 表态数据访问接口
type IReactionRepository interface {
	// Get 按主键查询表态
	Get(ctx context.Context, id string) (*model.Reaction, error)
	// Create 创建表态
	Create(ctx context.Context, reaction *model.Reaction) error
	// Delete 按主键删除表态
	Delete(ctx context.Context, id string) error
	// ListByLov 查询某点位的全部表态
	ListByLov(ctx context.Context, lovID int64) ([]*model.Reaction, error)
	// DeleteAllByLov 删除某点位的全部表态，返回删除行数
	DeleteAllByLov(ctx context.Context, lovID int64) (int64, error)
	// DeleteAllByLovs 批量删除一组点位的全部表态，返回删除行数
	DeleteAllByLovs(ctx context.Context, lovIDs []int64) (int64, error)
	// DeleteAllByUser 删除某用户发出的全部表态，返回删除行数
	DeleteAllByUser(ctx context.Context, userUUID string) (int64, error)
}

// INotificationRepository 通知数据访问接口
type INotificationRepository interface {
	// Create 写入一条通知
	Create(ctx context.Context, notification *model.Notification) error
	// ListByUser 按用户分页查询通知，按创建时间倒序
	ListByUser(ctx context.Context, userUUID string, page, pageSize int) ([]*model.Notification, int64, error)
	// MarkRead 标记一条通知已读
	MarkRead(ctx context.Context, userUUID string, id int64) error
	// MarkAllRead 标记某用户全部通知已读，返回影响行数
	MarkAllRead(ctx context.Context, userUUID string) (int64, error)
	// CountUnread 统计某用户的未读通知数
	CountUnread(ctx context.Context, userUUID string) (int64, error)
	// Delete 删除某用户的一条通知
	Delete(ctx context.Context, userUUID string, id int64) error
	// DeleteAllByUser 删除某用户的全部通知，返回删除行数
	DeleteAllByUser(ctx context.Context, userUUID string) (int64, error)
}
