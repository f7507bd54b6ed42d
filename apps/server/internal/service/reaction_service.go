package service

import (
	"context"
	"errors"
	"fmt"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/consts"
	"LovMapServer/model"
	"LovMapServer/pkg/logger"
)

// reactionServiceImpl 表态服务实现
type reactionServiceImpl struct {
	userRepo     repository.IUserRepository
	friendRepo   repository.IFriendshipRepository
	lovRepo      repository.ILovRepository
	reactionRepo repository.IReactionRepository
	liveBus      ILiveBus
	notifier     INotifier
}

// NewReactionService 创建表态服务实例
func NewReactionService(
	userRepo repository.IUserRepository,
	friendRepo repository.IFriendshipRepository,
	lovRepo repository.ILovRepository,
	reactionRepo repository.IReactionRepository,
	liveBus ILiveBus,
	notifier INotifier,
) IReactionService {
	return &reactionServiceImpl{
		userRepo:     userRepo,
		friendRepo:   friendRepo,
		lovRepo:      lovRepo,
		reactionRepo: reactionRepo,
		liveBus:      liveBus,
		notifier:     notifier,
	}
}

// ToggleReaction 切换表态
// 主键确定性（lovId_userUuid_emoji）保证切换语义：存在即删、不存在即建。
// 只能对可见的标记点表态。
func (s *reactionServiceImpl) ToggleReaction(ctx context.Context, userUUID string, lovID int64, emoji string) (*dto.ReactResponse, error) {
	if !consts.IsReactionEmoji(emoji) {
		return nil, utils.NewBizError(consts.CodeReactionEmojiNotSupport)
	}

	lov, err := s.lovRepo.GetByID(ctx, lovID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeLovNotFound)
		}
		return nil, err
	}

	// 可见性：标记点主人必须是自己或好友
	if lov.UserUuid != userUUID {
		isFriend, err := s.friendRepo.CheckIsFriend(ctx, userUUID, lov.UserUuid)
		if err != nil {
			return nil, err
		}
		if !isFriend {
			return nil, utils.NewBizError(consts.CodePermissionDeny)
		}
	}

	reactionID := model.ReactionID(lovID, userUUID, emoji)

	// 存在即取消
	if _, err := s.reactionRepo.Get(ctx, reactionID); err == nil {
		if err := s.reactionRepo.Delete(ctx, reactionID); err != nil && !errors.Is(err, repository.ErrRecordNotFound) {
			return nil, err
		}
		s.publishReaction(ctx, lov, userUUID, emoji, false)
		return &dto.ReactResponse{Reacted: false}, nil
	} else if !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, err
	}

	// 不存在即添加
	me, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeUserNotFound)
		}
		return nil, err
	}

	reaction := &model.Reaction{
		Id:        reactionID,
		LovId:     lovID,
		UserUuid:  userUUID,
		UserEmail: me.Email,
		Emoji:     emoji,
	}
	if err := s.reactionRepo.Create(ctx, reaction); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// 并发重复点击，已是目标状态
			return &dto.ReactResponse{Reacted: true}, nil
		}
		return nil, err
	}

	s.publishReaction(ctx, lov, userUUID, emoji, true)

	// 对自己标记点的表态不通知自己
	if lov.UserUuid != userUUID {
		s.notifier.Notify(ctx, &model.Notification{
			UserUuid:  lov.UserUuid,
			Type:      model.NotifyTypeNewReaction,
			Title:     "Nouvelle réaction",
			Body:      fmt.Sprintf("%s a réagi %s à ton LOV", displayName(me), emoji),
			ActorUuid: userUUID,
			LovId:     lovID,
		})
	}

	return &dto.ReactResponse{Reacted: true}, nil
}

// publishReaction 表态变更实时推送
func (s *reactionServiceImpl) publishReaction(ctx context.Context, lov *model.Lov, actorUUID, emoji string, reacted bool) {
	logger.Debug(ctx, "表态已切换",
		logger.Int64("lov_id", lov.Id),
		logger.String("actor_uuid", actorUUID),
		logger.String("emoji", emoji),
		logger.Bool("reacted", reacted),
	)
	s.liveBus.Publish(ctx, live.TopicLov(lov.UserUuid), dto.Event{
		Type: dto.EventReactionChanged,
		Payload: &dto.ReactionEventPayload{
			LovId:     lov.Id,
			ActorUuid: actorUUID,
			Emoji:     emoji,
			Reacted:   reacted,
		},
	})
}

// GetReactionCounts 表态统计
// Counts 固定包含全部支持表情，未出现的计 0，客户端渲染无需判空。
func (s *reactionServiceImpl) GetReactionCounts(ctx context.Context, userUUID string, lovID int64) (*dto.ReactionCountsResponse, error) {
	if _, err := s.lovRepo.GetByID(ctx, lovID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeLovNotFound)
		}
		return nil, err
	}

	reactions, err := s.reactionRepo.ListByLov(ctx, lovID)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(consts.ReactionEmojis))
	for _, emoji := range consts.ReactionEmojis {
		counts[emoji] = 0
	}
	mine := make([]string, 0)
	for _, r := range reactions {
		if _, ok := counts[r.Emoji]; !ok {
			// 历史数据里可能有已下线的表情，照常计数
			counts[r.Emoji] = 0
		}
		counts[r.Emoji]++
		if r.UserUuid == userUUID {
			mine = append(mine, r.Emoji)
		}
	}

	return &dto.ReactionCountsResponse{Counts: counts, Mine: mine}, nil
}
