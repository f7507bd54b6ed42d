package service

import (
	"context"
	"errors"
	"time"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/config"
	"LovMapServer/consts"
	"LovMapServer/pkg/logger"

	"golang.org/x/crypto/bcrypt"
)

// accountServiceImpl 账号生命周期服务实现
type accountServiceImpl struct {
	userRepo         repository.IUserRepository
	friendRepo       repository.IFriendshipRepository
	lovRepo          repository.ILovRepository
	reactionRepo     repository.IReactionRepository
	notificationRepo repository.INotificationRepository
	liveBus          ILiveBus
	serverCfg        config.ServerConfig
}

// NewAccountService 创建账号服务实例
func NewAccountService(
	userRepo repository.IUserRepository,
	friendRepo repository.IFriendshipRepository,
	lovRepo repository.ILovRepository,
	reactionRepo repository.IReactionRepository,
	notificationRepo repository.INotificationRepository,
	liveBus ILiveBus,
	serverCfg config.ServerConfig,
) IAccountService {
	return &accountServiceImpl{
		userRepo:         userRepo,
		friendRepo:       friendRepo,
		lovRepo:          lovRepo,
		reactionRepo:     reactionRepo,
		notificationRepo: notificationRepo,
		liveBus:          liveBus,
		serverCfg:        serverCfg,
	}
}

// DeleteAccount 注销账号
// 重认证：密码必须正确，且当前令牌签发时间在重认证窗口内。
// 级联严格串行，顺序固定：
//  1. 自己发出的表态
//  2. 自己标记点收到的表态
//  3. 自己的标记点
//  4. 好友关系（两个方向）
//  5. 通知历史
//  6. 用户资料本体
//
// 资料最后删：前面任何一步失败时账号仍可登录重试，整个流程可重入。
func (s *accountServiceImpl) DeleteAccount(ctx context.Context, userUUID, password string, tokenIssuedAt time.Time) error {
	profile, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			// 档案已不存在：上一次注销已完成或走到了最后一步，幂等返回成功
			return nil
		}
		return err
	}

	// ==================== 重认证 ====================
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return utils.NewBizError(consts.CodePasswordError)
	}
	if time.Since(tokenIssuedAt) > s.serverCfg.ReauthWindow {
		return utils.NewBizError(consts.CodeReauthRequired)
	}

	// 先取好友列表：关系删除后就找不到需要通知的对端了
	friendships, err := s.friendRepo.ListTouching(ctx, userUUID)
	if err != nil {
		return err
	}

	// ==================== 串行级联 ====================
	// 1. 自己发出的表态
	if _, err := s.reactionRepo.DeleteAllByUser(ctx, userUUID); err != nil {
		return s.cascadeFailed(ctx, userUUID, "reactions_sent", err)
	}

	// 2. 自己标记点收到的表态
	lovIDs, err := s.lovRepo.ListIDsByOwner(ctx, userUUID)
	if err != nil {
		return s.cascadeFailed(ctx, userUUID, "list_lov_ids", err)
	}
	if _, err := s.reactionRepo.DeleteAllByLovs(ctx, lovIDs); err != nil {
		return s.cascadeFailed(ctx, userUUID, "reactions_received", err)
	}

	// 3. 自己的标记点
	if _, err := s.lovRepo.DeleteAllByOwner(ctx, userUUID); err != nil {
		return s.cascadeFailed(ctx, userUUID, "lovs", err)
	}

	// 4. 好友关系
	if _, err := s.friendRepo.DeleteAllTouching(ctx, userUUID); err != nil {
		return s.cascadeFailed(ctx, userUUID, "friendships", err)
	}

	// 5. 通知历史
	if _, err := s.notificationRepo.DeleteAllByUser(ctx, userUUID); err != nil {
		return s.cascadeFailed(ctx, userUUID, "notifications", err)
	}

	// 6. 资料本体
	if err := s.userRepo.Delete(ctx, userUUID); err != nil {
		return s.cascadeFailed(ctx, userUUID, "profile", err)
	}

	logger.Info(ctx, "账号已注销", logger.String("uuid", userUUID))

	// 通知前好友的会话重建订阅
	topics := make([]string, 0, len(friendships))
	for _, f := range friendships {
		if peer := f.OtherParty(userUUID); peer != "" {
			topics = append(topics, live.TopicFriends(peer))
		}
	}
	s.liveBus.PublishMany(ctx, topics, dto.Event{
		Type:    dto.EventFriendshipRemoved,
		Payload: &dto.FriendshipEventPayload{PeerUuid: userUUID},
	})

	return nil
}

// cascadeFailed 级联中断：记录断点，账号保持可登录以便重试
func (s *accountServiceImpl) cascadeFailed(ctx context.Context, userUUID, step string, err error) error {
	logger.Error(ctx, "注销级联中断",
		logger.String("uuid", userUUID),
		logger.String("step", step),
		logger.ErrorField("error", err),
	)
	return err
}
