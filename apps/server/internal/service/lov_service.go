package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/live"
	"LovMapServer/apps/server/internal/marker"
	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/consts"
	"LovMapServer/model"
	"LovMapServer/pkg/logger"
	"LovMapServer/pkg/util"
)

// 附近查询默认参数
const (
	defaultNearbyRadiusMeters = 5000
	maxNearbyRadiusMeters     = 50000
	defaultNearbyLimit        = 100
)

// lovServiceImpl 标记点服务实现
type lovServiceImpl struct {
	userRepo     repository.IUserRepository
	friendRepo   repository.IFriendshipRepository
	lovRepo      repository.ILovRepository
	reactionRepo repository.IReactionRepository
	liveBus      ILiveBus
	notifier     INotifier
}

// NewLovService 创建标记点服务实例
func NewLovService(
	userRepo repository.IUserRepository,
	friendRepo repository.IFriendshipRepository,
	lovRepo repository.ILovRepository,
	reactionRepo repository.IReactionRepository,
	liveBus ILiveBus,
	notifier INotifier,
) ILovService {
	return &lovServiceImpl{
		userRepo:     userRepo,
		friendRepo:   friendRepo,
		lovRepo:      lovRepo,
		reactionRepo: reactionRepo,
		liveBus:      liveBus,
		notifier:     notifier,
	}
}

// validateCoord 坐标合法性
func validateCoord(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// AddLov 创建标记点
// 所有校验先于任何 IO，校验失败不产生副作用。
func (s *lovServiceImpl) AddLov(ctx context.Context, userUUID string, req *dto.AddLovRequest) (*dto.LovResponse, error) {
	// 1. 参数校验
	if req.Latitude == nil || req.Longitude == nil {
		return nil, utils.NewBizError(consts.CodeLocationMissing)
	}
	if !validateCoord(*req.Latitude, *req.Longitude) {
		return nil, utils.NewBizError(consts.CodeParamError)
	}
	if !consts.IsLovEmoji(req.Emoji) {
		return nil, utils.NewBizError(consts.CodeEmojiNotSupport)
	}
	if !consts.IsLovLocationType(req.LocationType) {
		return nil, utils.NewBizError(consts.CodeParamError)
	}
	if req.Rating < consts.RatingMin || req.Rating > consts.RatingMax {
		return nil, utils.NewBizError(consts.CodeRatingOutOfRange)
	}

	// 2. 读创建者资料做快照
	me, err := s.userRepo.GetByUUID(ctx, userUUID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeUserNotFound)
		}
		return nil, err
	}

	lov := &model.Lov{
		Id:           util.NextID(),
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Emoji:        req.Emoji,
		LocationType: req.LocationType,
		AddressLabel: strings.TrimSpace(req.AddressLabel),
		City:         NormalizeCity(req.City),
		PartnerName:  strings.TrimSpace(req.PartnerName),
		Rating:       req.Rating,
		UserUuid:     userUUID,
		UserEmail:    me.Email,
		UserPseudo:   me.Pseudo,
		UserColor:    consts.SelfColor,
	}

	if err := s.lovRepo.Create(ctx, lov); err != nil {
		return nil, err
	}

	logger.Info(ctx, "标记点已创建",
		logger.Int64("lov_id", lov.Id),
		logger.String("user_uuid", userUUID),
		logger.String("emoji", lov.Emoji),
	)

	resp := dto.ConvertLovResponse(lov)

	// 实时推送给所有订阅了该用户标记点的会话
	s.liveBus.Publish(ctx, live.TopicLov(userUUID), dto.Event{
		Type:    dto.EventLovAdded,
		Payload: &dto.LovEventPayload{Id: lov.Id, OwnerUuid: userUUID, Lov: resp},
	})

	// 按偏好通知好友
	s.notifyFriendsNewLov(ctx, me, lov)

	return resp, nil
}

// notifyFriendsNewLov 新标记点的好友通知扇出
func (s *lovServiceImpl) notifyFriendsNewLov(ctx context.Context, me *model.UserProfile, lov *model.Lov) {
	friendships, err := s.friendRepo.ListTouching(ctx, me.Uuid)
	if err != nil {
		logger.Warn(ctx, "新标记点通知扇出失败：好友列表不可用",
			logger.String("user_uuid", me.Uuid),
			logger.ErrorField("error", err),
		)
		return
	}

	for _, f := range friendships {
		peer := f.OtherParty(me.Uuid)
		if peer == "" {
			continue
		}
		s.notifier.Notify(ctx, &model.Notification{
			UserUuid:  peer,
			Type:      model.NotifyTypeNewLov,
			Title:     "Nouveau LOV",
			Body:      fmt.Sprintf("%s a ajouté un nouveau spot", displayName(me)),
			ActorUuid: me.Uuid,
			LovId:     lov.Id,
		})
	}
}

// UpdateLov 修改标记点
// 三态增量：nil 字段不动，非 nil 字段校验后写入。
// 仅创建者可修改。
func (s *lovServiceImpl) UpdateLov(ctx context.Context, userUUID string, lovID int64, req *dto.UpdateLovRequest) (*dto.LovResponse, error) {
	lov, err := s.lovRepo.GetByID(ctx, lovID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return nil, utils.NewBizError(consts.CodeLovNotFound)
		}
		return nil, err
	}
	if lov.UserUuid != userUUID {
		return nil, utils.NewBizError(consts.CodeNotLovOwner)
	}

	fields := make(map[string]interface{})

	if req.Latitude != nil || req.Longitude != nil {
		// 坐标必须成对更新
		if req.Latitude == nil || req.Longitude == nil {
			return nil, utils.NewBizError(consts.CodeLocationMissing)
		}
		if !validateCoord(*req.Latitude, *req.Longitude) {
			return nil, utils.NewBizError(consts.CodeParamError)
		}
		fields["latitude"] = *req.Latitude
		fields["longitude"] = *req.Longitude
	}
	if req.Emoji != nil {
		if !consts.IsLovEmoji(*req.Emoji) {
			return nil, utils.NewBizError(consts.CodeEmojiNotSupport)
		}
		fields["emoji"] = *req.Emoji
	}
	if req.LocationType != nil {
		if !consts.IsLovLocationType(*req.LocationType) {
			return nil, utils.NewBizError(consts.CodeParamError)
		}
		fields["location_type"] = *req.LocationType
	}
	if req.AddressLabel != nil {
		fields["address_label"] = strings.TrimSpace(*req.AddressLabel)
	}
	if req.City != nil {
		fields["city"] = NormalizeCity(*req.City)
	}
	if req.PartnerName != nil {
		fields["partner_name"] = strings.TrimSpace(*req.PartnerName)
	}
	if req.Rating != nil {
		if *req.Rating < consts.RatingMin || *req.Rating > consts.RatingMax {
			return nil, utils.NewBizError(consts.CodeRatingOutOfRange)
		}
		fields["rating"] = *req.Rating
	}

	if len(fields) == 0 {
		return dto.ConvertLovResponse(lov), nil
	}

	if err := s.lovRepo.Update(ctx, lovID, fields); err != nil {
		return nil, err
	}

	updated, err := s.lovRepo.GetByID(ctx, lovID)
	if err != nil {
		return nil, err
	}

	resp := dto.ConvertLovResponse(updated)
	s.liveBus.Publish(ctx, live.TopicLov(userUUID), dto.Event{
		Type:    dto.EventLovUpdated,
		Payload: &dto.LovEventPayload{Id: lovID, OwnerUuid: userUUID, Lov: resp},
	})

	return resp, nil
}

// DeleteLov 删除标记点
// 仅创建者可删除；先级联删除表态，再删点位本身。
func (s *lovServiceImpl) DeleteLov(ctx context.Context, userUUID string, lovID int64) error {
	lov, err := s.lovRepo.GetByID(ctx, lovID)
	if err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			return utils.NewBizError(consts.CodeLovNotFound)
		}
		return err
	}
	if lov.UserUuid != userUUID {
		return utils.NewBizError(consts.CodeNotLovOwner)
	}

	// 表态先删：点位删除后残留表态无法再定位
	if _, err := s.reactionRepo.DeleteAllByLov(ctx, lovID); err != nil {
		return err
	}

	if err := s.lovRepo.Delete(ctx, lovID); err != nil {
		if errors.Is(err, repository.ErrRecordNotFound) {
			// 并发删除，目标已不存在，视为成功
			return nil
		}
		return err
	}

	logger.Info(ctx, "标记点已删除",
		logger.Int64("lov_id", lovID),
		logger.String("user_uuid", userUUID),
	)

	s.liveBus.Publish(ctx, live.TopicLov(userUUID), dto.Event{
		Type:    dto.EventLovDeleted,
		Payload: &dto.LovEventPayload{Id: lovID, OwnerUuid: userUUID},
	})

	return nil
}

// GetVisibleLovs 当前用户可见的全部标记点
func (s *lovServiceImpl) GetVisibleLovs(ctx context.Context, userUUID string) ([]*dto.LovResponse, error) {
	lovs, err := s.visibleLovs(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	return dto.ConvertLovResponses(lovs), nil
}

// GetVisibleMarkers 可见标记点的地图聚合视图
func (s *lovServiceImpl) GetVisibleMarkers(ctx context.Context, userUUID string) ([]*marker.Group, error) {
	lovs, err := s.visibleLovs(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	return marker.Composite(userUUID, lovs), nil
}

// visibleLovs 可见集合 = 自己 + 好友的全部标记点
func (s *lovServiceImpl) visibleLovs(ctx context.Context, userUUID string) ([]*model.Lov, error) {
	friendships, err := s.friendRepo.ListTouching(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	return s.lovRepo.ListByOwners(ctx, AuthorizedUUIDs(userUUID, friendships))
}

// GetUserLovs 查看某个用户的标记点
// 无权限不报错：静默返回空列表，避免暴露对方是否存在标记点。
func (s *lovServiceImpl) GetUserLovs(ctx context.Context, viewerUUID, targetUUID string) ([]*dto.LovResponse, error) {
	if viewerUUID != targetUUID {
		friendships, err := s.friendRepo.ListTouching(ctx, viewerUUID)
		if err != nil {
			return nil, err
		}
		if !IsFriendOrSelf(viewerUUID, targetUUID, friendships) {
			logger.Info(ctx, "越权查看标记点，静默返回空",
				logger.String("viewer_uuid", viewerUUID),
				logger.String("target_uuid", targetUUID),
			)
			return []*dto.LovResponse{}, nil
		}
	}

	lovs, err := s.lovRepo.ListByOwner(ctx, targetUUID)
	if err != nil {
		return nil, err
	}
	return dto.ConvertLovResponses(lovs), nil
}

// GetNearbyLovs 附近的可见标记点
// GEO 索引先筛半径，再按可见性过滤。
func (s *lovServiceImpl) GetNearbyLovs(ctx context.Context, userUUID string, req *dto.NearbyRequest) ([]*dto.LovResponse, error) {
	if !validateCoord(req.Latitude, req.Longitude) {
		return nil, utils.NewBizError(consts.CodeParamError)
	}
	radius := req.RadiusMeters
	if radius <= 0 {
		radius = defaultNearbyRadiusMeters
	}
	if radius > maxNearbyRadiusMeters {
		radius = maxNearbyRadiusMeters
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultNearbyLimit
	}

	ids, err := s.lovRepo.NearbyIDs(ctx, req.Latitude, req.Longitude, radius, limit)
	if err != nil {
		// GEO 索引不可用时降级为全量可见集合（量级小，可接受）
		logger.Warn(ctx, "附近查询降级为全量可见集合", logger.ErrorField("error", err))
		return s.GetVisibleLovs(ctx, userUUID)
	}
	if len(ids) == 0 {
		return []*dto.LovResponse{}, nil
	}

	lovs, err := s.lovRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	friendships, err := s.friendRepo.ListTouching(ctx, userUUID)
	if err != nil {
		return nil, err
	}
	authorized := make(map[string]bool)
	for _, uuid := range AuthorizedUUIDs(userUUID, friendships) {
		authorized[uuid] = true
	}

	visible := make([]*model.Lov, 0, len(lovs))
	for _, lov := range lovs {
		if authorized[lov.UserUuid] {
			visible = append(visible, lov)
		}
	}
	return dto.ConvertLovResponses(visible), nil
}
