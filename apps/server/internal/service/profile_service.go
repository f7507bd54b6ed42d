package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/consts"
	"LovMapServer/model"
	"LovMapServer/pkg/async"
	"LovMapServer/pkg/logger"
)

// ensureProfile 重试参数：建档失败会让后续所有功能不可用，值得多试几次
const (
	ensureProfileAttempts = 3
	ensureProfileBackoff  = 100 * time.Millisecond
)

// profileServiceImpl 用户资料服务实现
type profileServiceImpl struct {
	userRepo   repository.IUserRepository
	friendRepo repository.IFriendshipRepository
	liveBus    ILiveBus
}

// NewProfileService 创建用户资料服务实例
func NewProfileService(
	userRepo repository.IUserRepository,
	friendRepo repository.IFriendshipRepository,
	liveBus ILiveBus,
) IProfileService {
	return &profileServiceImpl{
		userRepo:   userRepo,
		friendRepo: friendRepo,
		liveBus:    liveBus,
	}
}

// DeriveFriendCode 从 uuid 派生好友码：取前 5 个字母数字字符并大写。
// 派生是确定性的，同一账号任何时候算出的码都一致。
func DeriveFriendCode(uuid string) string {
	var b strings.Builder
	for _, r := range uuid {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() >= consts.FriendCodeLen {
				break
			}
		}
	}
	return strings.ToUpper(b.String())
}

// pseudoFromEmail 邮箱本地部分作为默认昵称，本地部分为空时回退通用称呼。
// 这里只产生展示用的占位昵称，不锁定初始昵称。
func pseudoFromEmail(email string) string {
	local := email
	if i := strings.Index(email, "@"); i >= 0 {
		local = email[:i]
	}
	if local = strings.TrimSpace(local); local != "" {
		return local
	}
	return consts.DefaultFriendName
}

// EnsureProfile 幂等建档
// 登录后每次调用。写入只补全缺失字段，绝不回退已有资料。
// 建档失败影响面大，带退避重试。
func (s *profileServiceImpl) EnsureProfile(ctx context.Context, uuid, email string) (*model.UserProfile, error) {
	profile := &model.UserProfile{
		Uuid:                 uuid,
		Email:                email,
		Pseudo:               pseudoFromEmail(email),
		Code:                 DeriveFriendCode(uuid),
		NotifyNewLovs:        true,
		NotifyNewFriendships: true,
		NotifyNewReactions:   true,
	}

	var lastErr error
	for attempt := 1; attempt <= ensureProfileAttempts; attempt++ {
		lastErr = s.userRepo.EnsureProfile(ctx, profile)
		if lastErr == nil {
			break
		}
		logger.Warn(ctx, "建档失败，准备重试",
			logger.String("uuid", uuid),
			logger.Int("attempt", attempt),
			logger.ErrorField("error", lastErr),
		)
		if attempt < ensureProfileAttempts {
			select {
			case <-time.After(ensureProfileBackoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		logger.Error(ctx, "建档重试耗尽",
			logger.String("uuid", uuid),
			logger.ErrorField("error", lastErr),
		)
		return nil, utils.NewBizError(consts.CodeProfileUnavailable)
	}

	// 回读完整资料（可能是已存在的老档案）
	stored, err := s.userRepo.GetByUUID(ctx, uuid)
	if err != nil {
		return nil, utils.NewBizError(consts.CodeProfileUnavailable)
	}
	return stored, nil
}

// GetProfile 获取资料
func (s *profileServiceImpl) GetProfile(ctx context.Context, uuid string) (*model.UserProfile, error) {
	profile, err := s.userRepo.GetByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeUserNotFound)
		}
		return nil, err
	}
	return profile, nil
}

// SetInitialPseudo 设置初始昵称
// 昵称只允许定稿一次；定稿后再调用返回昵称已锁定。
// 成功后异步扇出好友关系表两侧的昵称快照，并广播改名事件。
func (s *profileServiceImpl) SetInitialPseudo(ctx context.Context, uuid, pseudo string) error {
	pseudo = strings.TrimSpace(pseudo)
	if pseudo == "" {
		return utils.NewBizError(consts.CodeParamError)
	}

	profile, err := s.userRepo.GetByUUID(ctx, uuid)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return utils.NewBizError(consts.CodeUserNotFound)
		}
		return err
	}
	if profile.HasSetInitialPseudo {
		return utils.NewBizError(consts.CodePseudoLocked)
	}

	if err := s.userRepo.UpdatePseudo(ctx, uuid, pseudo); err != nil {
		return err
	}

	logger.Info(ctx, "初始昵称已定稿",
		logger.String("uuid", uuid),
		logger.String("pseudo", pseudo),
	)

	// 快照扇出放后台：主流程成功即可返回，快照靠最终一致
	async.RunSafe(ctx, func(runCtx context.Context) {
		if err := s.friendRepo.UpdatePseudoSnapshots(runCtx, uuid, pseudo); err != nil {
			logger.Error(runCtx, "昵称快照扇出失败",
				logger.String("uuid", uuid),
				logger.ErrorField("error", err),
			)
		}
	}, 0)

	// 广播改名事件到所有好友的会话
	event := dto.Event{
		Type:    dto.EventProfileRenamed,
		Payload: &dto.FriendshipEventPayload{PeerUuid: uuid, PeerPseudo: pseudo},
	}
	friendships, err := s.friendRepo.ListTouching(ctx, uuid)
	if err == nil {
		topics := make([]string, 0, len(friendships))
		for _, f := range friendships {
			if peer := f.OtherParty(uuid); peer != "" {
				topics = append(topics, live.TopicFriends(peer))
			}
		}
		s.liveBus.PublishMany(ctx, topics, event)
	}

	return nil
}

// UpdateNotifyPrefs 更新通知偏好
func (s *profileServiceImpl) UpdateNotifyPrefs(ctx context.Context, uuid string, req *dto.NotifyPrefsRequest) error {
	err := s.userRepo.UpdateNotifyPrefs(ctx, uuid, req.NewLovs, req.NewFriendships, req.NewReactions)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return utils.NewBizError(consts.CodeUserNotFound)
		}
		return err
	}
	return nil
}
