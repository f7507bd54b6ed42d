package service

import (
	"context"
	"errors"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/mq"
	"LovMapServer/model"
	"LovMapServer/pkg/async"
	"LovMapServer/pkg/logger"
)

// notifierImpl 通知分发实现。
// 一条通知走三条腿：落库历史、实时推送在线会话、投递 Kafka 给推送服务。
// 三条腿互不阻塞，任何一条失败不影响其他。
type notifierImpl struct {
	userRepo         repository.IUserRepository
	notificationRepo repository.INotificationRepository
	liveBus          ILiveBus
}

// NewNotifier 创建通知分发器
func NewNotifier(
	userRepo repository.IUserRepository,
	notificationRepo repository.INotificationRepository,
	liveBus ILiveBus,
) INotifier {
	return &notifierImpl{
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		liveBus:          liveBus,
	}
}

// Notify 分发一条通知
// 整个流程异步执行，调用方不等待。接收者按偏好过滤。
func (n *notifierImpl) Notify(ctx context.Context, notification *model.Notification) {
	if notification == nil || notification.UserUuid == "" {
		return
	}

	async.RunSafe(ctx, func(runCtx context.Context) {
		// 偏好过滤
		recipient, err := n.userRepo.GetByUUID(runCtx, notification.UserUuid)
		if err != nil {
			if !errors.Is(err, repository.ErrRecordNotFound) {
				logger.Warn(runCtx, "通知接收者资料不可用，放弃分发",
					logger.String("user_uuid", notification.UserUuid),
					logger.ErrorField("error", err),
				)
			}
			return
		}
		if !wantsNotification(recipient, notification.Type) {
			return
		}

		// 1. 落库历史
		if err := n.notificationRepo.Create(runCtx, notification); err != nil {
			logger.Error(runCtx, "通知落库失败",
				logger.String("user_uuid", notification.UserUuid),
				logger.String("type", notification.Type),
				logger.ErrorField("error", err),
			)
		}

		// 2. 实时推送在线会话
		n.liveBus.Publish(runCtx, live.TopicPersonal(notification.UserUuid), dto.Event{
			Type:    dto.EventNotification,
			Payload: dto.ConvertNotificationResponse(notification),
		})

		// 3. 投递推送任务
		task := mq.BuildNotifyTask(
			notification.Type,
			notification.UserUuid,
			notification.Title,
			notification.Body,
			notification.ActorUuid,
			notification.LovId,
		)
		if err := mq.SendNotifyTask(runCtx, task); err != nil {
			logger.Error(runCtx, "推送任务投递失败",
				logger.String("user_uuid", notification.UserUuid),
				logger.String("type", notification.Type),
				logger.ErrorField("error", err),
			)
		}
	}, 0)
}

// wantsNotification 按接收者偏好判断是否分发
func wantsNotification(recipient *model.UserProfile, notifyType string) bool {
	switch notifyType {
	case model.NotifyTypeNewLov:
		return recipient.NotifyNewLovs
	case model.NotifyTypeNewFriendship:
		return recipient.NotifyNewFriendships
	case model.NotifyTypeNewReaction:
		return recipient.NotifyNewReactions
	default:
		return true
	}
}

// notificationServiceImpl 通知历史服务实现
type notificationServiceImpl struct {
	notificationRepo repository.INotificationRepository
}

// NewNotificationService 创建通知历史服务实例
func NewNotificationService(notificationRepo repository.INotificationRepository) INotificationService {
	return &notificationServiceImpl{notificationRepo: notificationRepo}
}

// ListNotifications 分页拉取通知历史
func (s *notificationServiceImpl) ListNotifications(ctx context.Context, userUUID string, page, pageSize int) ([]*dto.NotificationResponse, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUser(ctx, userUUID, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*dto.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		out = append(out, dto.ConvertNotificationResponse(n))
	}
	return out, total, nil
}

// MarkRead 标记通知已读
func (s *notificationServiceImpl) MarkRead(ctx context.Context, userUUID string, id int64) error {
	return s.notificationRepo.MarkRead(ctx, userUUID, id)
}

// MarkAllRead 全部标记已读
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, userUUID string) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userUUID)
}

// CountUnread 未读通知数
func (s *notificationServiceImpl) CountUnread(ctx context.Context, userUUID string) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userUUID)
}

// DeleteNotification 删除一条通知
func (s *notificationServiceImpl) DeleteNotification(ctx context.Context, userUUID string, id int64) error {
	return s.notificationRepo.Delete(ctx, userUUID, id)
}

// ClearNotifications 清空通知历史
func (s *notificationServiceImpl) ClearNotifications(ctx context.Context, userUUID string) (int64, error) {
	deleted, err := s.notificationRepo.DeleteAllByUser(ctx, userUUID)
	if err != nil {
		return 0, err
	}
	logger.Info(ctx, "通知历史已清空",
		logger.String("user_uuid", userUUID),
		logger.Int64("deleted", deleted),
	)
	return deleted, nil
}
