package v1

import (
	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// FriendHandler 好友处理器
type FriendHandler struct {
	friendService service.IFriendService
}

// NewFriendHandler 创建好友处理器
func NewFriendHandler(friendService service.IFriendService) *FriendHandler {
	return &FriendHandler{
		friendService: friendService,
	}
}

// AddFriend 添加好友接口
// @Summary 通过好友码添加好友
// @Description 好友关系为对称关系，添加成功后双方互相可见
// @Tags 好友接口
// @Accept json
// @Produce json
// @Param request body dto.AddFriendRequest true "好友码"
// @Success 200 {object} dto.FriendResponse
// @Router /api/v1/friend [post]
func (h *FriendHandler) AddFriend(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.AddFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	friend, err := h.friendService.AddFriendByCode(ctx, userUUID, req.Code)
	if err != nil {
		respondError(c, ctx, "添加好友", err)
		return
	}

	result.Success(c, friend)
}

// RemoveFriend 删除好友接口
// @Summary 删除好友
// @Description 删除后双方互相不可见，对方会收到好友变更事件
// @Tags 好友接口
// @Produce json
// @Param friendUuid path string true "好友UUID"
// @Success 200 {object} result.Response
// @Router /api/v1/friend/{friendUuid} [delete]
func (h *FriendHandler) RemoveFriend(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	friendUUID := c.Param("friendUuid")
	if friendUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.friendService.RemoveFriend(ctx, userUUID, friendUUID); err != nil {
		respondError(c, ctx, "删除好友", err)
		return
	}

	result.Success(c, nil)
}

// ListFriends 好友列表接口
// @Summary 好友列表
// @Description 返回好友昵称（实时优先、快照兜底）、颜色与建立时间
// @Tags 好友接口
// @Produce json
// @Success 200 {array} dto.FriendResponse
// @Router /api/v1/friend/list [get]
func (h *FriendHandler) ListFriends(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	friends, err := h.friendService.ListFriends(ctx, userUUID)
	if err != nil {
		respondError(c, ctx, "获取好友列表", err)
		return
	}

	result.Success(c, friends)
}

// ReassignColors 重排好友颜色接口
// @Summary 按添加顺序重新分配好友颜色
// @Tags 好友接口
// @Produce json
// @Success 200 {object} result.Response
// @Router /api/v1/friend/colors/reassign [post]
func (h *FriendHandler) ReassignColors(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	if err := h.friendService.ReassignFriendColors(ctx, userUUID); err != nil {
		respondError(c, ctx, "重排好友颜色", err)
		return
	}

	result.Success(c, nil)
}
