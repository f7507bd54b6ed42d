package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/consts"
	"LovMapServer/model"
	"LovMapServer/pkg/logger"
)

// friendServiceImpl 好友服务实现
type friendServiceImpl struct {
	userRepo   repository.IUserRepository
	friendRepo repository.IFriendshipRepository
	liveBus    ILiveBus
	notifier   INotifier
}

// NewFriendService 创建好友服务实例
func NewFriendService(
	userRepo repository.IUserRepository,
	friendRepo repository.IFriendshipRepository,
	liveBus ILiveBus,
	notifier INotifier,
) IFriendService {
	return &friendServiceImpl{
		userRepo:   userRepo,
		friendRepo: friendRepo,
		liveBus:    liveBus,
		notifier:   notifier,
	}
}

// normalizeFriendCode 好友码归一化：去空白 + 大写
func normalizeFriendCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// AddFriendByCode 通过好友码添加好友
// 全部校验在写库前完成：码合法性 → 查目标 → 不能加自己 → 双向查重 → 分配颜色。
func (s *friendServiceImpl) AddFriendByCode(ctx context.Context, userUUID, code string) (*dto.FriendResponse, error) {
	code = normalizeFriendCode(code)
	if len(code) < consts.FriendCodeMinLen {
		return nil, utils.NewBizError(consts.CodeInvalidFriendCode)
	}

	// 1. 好友码定位目标用户
	target, err := s.userRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeFriendCodeNotFound)
		}
		return nil, err
	}

	// 2. 不能添加自己
	if target.Uuid == userUUID {
		return nil, utils.NewBizError(consts.CodeCannotAddSelf)
	}

	// 3. 双向查重
	if _, err := s.friendRepo.GetBetween(ctx, userUUID, target.Uuid); err == nil {
		return nil, utils.NewBizError(consts.CodeAlreadyFriend)
	} else if !errors.Is(err, repository.ErrRecordNotFound) {
		return nil, err
	}

	// 4. 读发起方资料做快照
	me, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeUserNotFound)
		}
		return nil, err
	}

	// 5. 预分配颜色：发起方已占用颜色之外的第一个（本人色不在池内，天然排除）
	color, err := s.pickColor(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	friendship := &model.Friendship{
		UserUuid:     userUUID,
		FriendUuid:   target.Uuid,
		Status:       model.FriendshipAccepted,
		FriendColor:  color,
		UserPseudo:   me.Pseudo,
		UserEmail:    me.Email,
		FriendPseudo: target.Pseudo,
		FriendEmail:  target.Email,
	}

	// 6. 写入（事务内二次查重 + 颜色复核）
	if err := s.friendRepo.Create(ctx, friendship); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// 并发添加，先到者已建边
			return nil, utils.NewBizError(consts.CodeAlreadyFriend)
		}
		return nil, err
	}

	logger.Info(ctx, "好友关系已建立",
		logger.String("user_uuid", userUUID),
		logger.String("friend_uuid", target.Uuid),
		logger.String("color", friendship.FriendColor),
	)

	// 7. 双方会话重建订阅，事件各自携带对端信息
	s.liveBus.Publish(ctx, live.TopicFriends(userUUID), dto.Event{
		Type:    dto.EventFriendshipAdded,
		Payload: &dto.FriendshipEventPayload{PeerUuid: target.Uuid, PeerPseudo: target.Pseudo},
	})
	s.liveBus.Publish(ctx, live.TopicFriends(target.Uuid), dto.Event{
		Type:    dto.EventFriendshipAdded,
		Payload: &dto.FriendshipEventPayload{PeerUuid: userUUID, PeerPseudo: me.Pseudo},
	})

	// 8. 通知被添加方
	s.notifier.Notify(ctx, &model.Notification{
		UserUuid:  target.Uuid,
		Type:      model.NotifyTypeNewFriendship,
		Title:     "Nouvel ami",
		Body:      fmt.Sprintf("%s t'a ajouté", displayName(me)),
		ActorUuid: userUUID,
	})

	return convertFriendResponse(friendship, userUUID, target), nil
}

// pickColor 选取发起方未占用的第一个配色
func (s *friendServiceImpl) pickColor(ctx context.Context, userUUID string) (string, error) {
	usedColors, err := s.friendRepo.UsedColors(ctx, userUUID)
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(usedColors))
	for _, c := range usedColors {
		used[c] = true
	}
	for _, c := range consts.FriendColors {
		if !used[c] {
			return c, nil
		}
	}
	// 配色池耗尽，降级为随机色
	return consts.RandomFriendColor(), nil
}

// RemoveFriend 删除好友
// 两个方向的关系一并删除，双方都收到事件。
func (s *friendServiceImpl) RemoveFriend(ctx context.Context, userUUID, friendUUID string) error {
	if _, err := s.friendRepo.GetBetween(ctx, userUUID, friendUUID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return utils.NewBizError(consts.CodeNotFriend)
		}
		return err
	}

	deleted, err := s.friendRepo.DeleteBetween(ctx, userUUID, friendUUID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return utils.NewBizError(consts.CodeNotFriend)
	}

	logger.Info(ctx, "好友关系已解除",
		logger.String("user_uuid", userUUID),
		logger.String("friend_uuid", friendUUID),
	)

	s.liveBus.Publish(ctx, live.TopicFriends(userUUID), dto.Event{
		Type:    dto.EventFriendshipRemoved,
		Payload: &dto.FriendshipEventPayload{PeerUuid: friendUUID},
	})
	s.liveBus.Publish(ctx, live.TopicFriends(friendUUID), dto.Event{
		Type:    dto.EventFriendshipRemoved,
		Payload: &dto.FriendshipEventPayload{PeerUuid: userUUID},
	})

	return nil
}

// ListFriends 好友列表
// 昵称取实时资料优先、建边快照兜底；颜色取边上颜色。
func (s *friendServiceImpl) ListFriends(ctx context.Context, userUUID string) ([]*dto.FriendResponse, error) {
	friendships, err := s.friendRepo.ListTouching(ctx, userUUID)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.FriendResponse, 0, len(friendships))
	for _, f := range friendships {
		peer := f.OtherParty(userUUID)
		if peer == "" {
			continue
		}

		// 实时资料优先，查不到用快照
		profile, profileErr := s.userRepo.GetByUUID(ctx, peer)
		if profileErr != nil {
			profile = nil
		}
		out = append(out, convertFriendResponse(f, userUUID, profile))
	}
	return out, nil
}

// ListFriendUUIDs 好友 uuid 集合
func (s *friendServiceImpl) ListFriendUUIDs(ctx context.Context, userUUID string) ([]string, error) {
	friendships, err := s.friendRepo.ListTouching(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	uuids := make([]string, 0, len(friendships))
	for _, f := range friendships {
		if peer := f.OtherParty(userUUID); peer != "" {
			uuids = append(uuids, peer)
		}
	}
	return uuids, nil
}

// ReassignFriendColors 按添加顺序重新分配好友颜色
// 只处理用户作为发起方的边（颜色归发起方管理）。
func (s *friendServiceImpl) ReassignFriendColors(ctx context.Context, userUUID string) error {
	friendships, err := s.friendRepo.ListTouching(ctx, userUUID)
	if err != nil {
		return err
	}

	idx := 0
	for _, f := range friendships {
		if f.UserUuid != userUUID {
			continue
		}
		color := consts.FriendColors[idx%len(consts.FriendColors)]
		idx++
		if f.FriendColor == color {
			continue
		}
		if err := s.friendRepo.UpdateColor(ctx, f.Id, color); err != nil {
			return err
		}
	}

	return nil
}

// displayName 展示名：昵称缺失时回退默认称呼
func displayName(p *model.UserProfile) string {
	if p != nil && p.Pseudo != "" {
		return p.Pseudo
	}
	return consts.DefaultFriendName
}

// convertFriendResponse 组装好友列表项
// peerProfile 可为 nil，此时昵称与邮箱取边上的快照。
func convertFriendResponse(f *model.Friendship, me string, peerProfile *model.UserProfile) *dto.FriendResponse {
	peer := f.OtherParty(me)

	// 快照的哪一侧取决于对方在边上的角色
	snapPseudo, snapEmail := f.UserPseudo, f.UserEmail
	if peer == f.FriendUuid {
		snapPseudo, snapEmail = f.FriendPseudo, f.FriendEmail
	}

	pseudo, email := snapPseudo, snapEmail
	if peerProfile != nil {
		if peerProfile.Pseudo != "" {
			pseudo = peerProfile.Pseudo
		}
		if peerProfile.Email != "" {
			email = peerProfile.Email
		}
	}
	if pseudo == "" {
		pseudo = consts.DefaultFriendName
	}

	return &dto.FriendResponse{
		Uuid:      peer,
		Pseudo:    pseudo,
		Email:     email,
		Color:     f.FriendColor,
		CreatedAt: f.CreatedAt,
	}
}
