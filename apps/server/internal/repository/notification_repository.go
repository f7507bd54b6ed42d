package repository

import (
	"context"

	"LovMapServer/model"

	"gorm.io/gorm"
)

// notificationRepositoryImpl 通知历史数据访问层实现
type notificationRepositoryImpl struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储实例
func NewNotificationRepository(db *gorm.DB) INotificationRepository {
	return &notificationRepositoryImpl{db: db}
}

// Create 写入一条通知
func (r *notificationRepositoryImpl) Create(ctx context.Context, notification *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return WrapDBError(err)
	}
	return nil
}

// ListByUser 按用户分页查询通知，按创建时间倒序
func (r *notificationRepositoryImpl) ListByUser(ctx context.Context, userUUID string, page, pageSize int) ([]*model.Notification, int64, error) {
	// 兜底分页参数
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	query := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_uuid = ?", userUUID)

	var total int64
	if page == 1 {
		// 只在第一页计算 total，减少数据库开销
		if err := query.Count(&total).Error; err != nil {
			return nil, 0, WrapDBError(err)
		}
	}

	var notifications []*model.Notification
	err := query.
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, WrapDBError(err)
	}

	return notifications, total, nil
}

// MarkRead 标记一条通知已读
func (r *notificationRepositoryImpl) MarkRead(ctx context.Context, userUUID string, id int64) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_uuid = ?", id, userUUID).
		Update("is_read", true)

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// MarkAllRead 标记某用户全部通知已读
func (r *notificationRepositoryImpl) MarkAllRead(ctx context.Context, userUUID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_uuid = ? AND is_read = ?", userUUID, false).
		Update("is_read", true)

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}

// CountUnread 统计某用户的未读通知数
func (r *notificationRepositoryImpl) CountUnread(ctx context.Context, userUUID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("user_uuid = ? AND is_read = ?", userUUID, false).
		Count(&count).Error
	if err != nil {
		return 0, WrapDBError(err)
	}
	return count, nil
}

// Delete 删除某用户的一条通知
func (r *notificationRepositoryImpl) Delete(ctx context.Context, userUUID string, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_uuid = ?", id, userUUID).
		Delete(&model.Notification{})

	if result.Error != nil {
		return WrapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// DeleteAllByUser 删除某用户的全部通知（注销级联）
func (r *notificationRepositoryImpl) DeleteAllByUser(ctx context.Context, userUUID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_uuid = ?", userUUID).
		Delete(&model.Notification{})

	if result.Error != nil {
		return 0, WrapDBError(result.Error)
	}
	return result.RowsAffected, nil
}
