package v1

import (
	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// LovHandler 标记点处理器
type LovHandler struct {
	lovService service.ILovService
}

// NewLovHandler 创建标记点处理器
func NewLovHandler(lovService service.ILovService) *LovHandler {
	return &LovHandler{
		lovService: lovService,
	}
}

// AddLov 创建标记点接口
// @Summary 创建标记点
// @Description 创建成功后向好友广播实时事件并按偏好推送通知
// @Tags 标记点接口
// @Accept json
// @Produce json
// @Param request body dto.AddLovRequest true "标记点"
// @Success 200 {object} dto.LovResponse
// @Router /api/v1/lov [post]
func (h *LovHandler) AddLov(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.AddLovRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	lov, err := h.lovService.AddLov(ctx, userUUID, &req)
	if err != nil {
		respondError(c, ctx, "创建标记点", err)
		return
	}

	result.Success(c, lov)
}

// UpdateLov 修改标记点接口
// @Summary 修改标记点
// @Description 三态增量修改，缺省字段保持不变；仅创建者可修改
// @Tags 标记点接口
// @Accept json
// @Produce json
// @Param id path string true "标记点ID"
// @Param request body dto.UpdateLovRequest true "修改内容"
// @Success 200 {object} dto.LovResponse
// @Router /api/v1/lov/{id} [put]
func (h *LovHandler) UpdateLov(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	lovID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateLovRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	lov, err := h.lovService.UpdateLov(ctx, userUUID, lovID, &req)
	if err != nil {
		respondError(c, ctx, "修改标记点", err)
		return
	}

	result.Success(c, lov)
}

// DeleteLov 删除标记点接口
// @Summary 删除标记点
// @Description 级联删除该标记点的全部表态；仅创建者可删除
// @Tags 标记点接口
// @Produce json
// @Param id path string true "标记点ID"
// @Success 200 {object} result.Response
// @Router /api/v1/lov/{id} [delete]
func (h *LovHandler) DeleteLov(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	lovID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.lovService.DeleteLov(ctx, userUUID, lovID); err != nil {
		respondError(c, ctx, "删除标记点", err)
		return
	}

	result.Success(c, nil)
}

// ListVisible 可见标记点列表接口
// @Summary 可见标记点列表
// @Description 返回自己与全部好友的标记点
// @Tags 标记点接口
// @Produce json
// @Success 200 {array} dto.LovResponse
// @Router /api/v1/lov/list [get]
func (h *LovHandler) ListVisible(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	lovs, err := h.lovService.GetVisibleLovs(ctx, userUUID)
	if err != nil {
		respondError(c, ctx, "获取标记点列表", err)
		return
	}

	result.Success(c, lovs)
}

// ListMarkers 地图聚合视图接口
// @Summary 地图聚合视图
// @Description 按坐标（6 位小数精度）聚合可见标记点，返回主/次表情分组
// @Tags 标记点接口
// @Produce json
// @Success 200 {array} marker.Group
// @Router /api/v1/lov/markers [get]
func (h *LovHandler) ListMarkers(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	groups, err := h.lovService.GetVisibleMarkers(ctx, userUUID)
	if err != nil {
		respondError(c, ctx, "获取地图聚合视图", err)
		return
	}

	result.Success(c, groups)
}

// ListUserLovs 查看指定用户的标记点接口
// @Summary 查看指定用户的标记点
// @Description 仅允许查看自己或好友；无权限时静默返回空列表
// @Tags 标记点接口
// @Produce json
// @Param userUuid path string true "用户UUID"
// @Success 200 {array} dto.LovResponse
// @Router /api/v1/lov/user/{userUuid} [get]
func (h *LovHandler) ListUserLovs(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	targetUUID := c.Param("userUuid")
	if targetUUID == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	lovs, err := h.lovService.GetUserLovs(ctx, userUUID, targetUUID)
	if err != nil {
		respondError(c, ctx, "获取用户标记点", err)
		return
	}

	result.Success(c, lovs)
}

// Nearby 附近标记点接口
// @Summary 附近的可见标记点
// @Description 按距离从近到远返回半径内自己与好友的标记点
// @Tags 标记点接口
// @Produce json
// @Param latitude query number true "纬度"
// @Param longitude query number true "经度"
// @Param radius_meters query number false "半径(米)，默认5000，上限50000"
// @Param limit query int false "数量上限，默认100"
// @Success 200 {array} dto.LovResponse
// @Router /api/v1/lov/nearby [get]
func (h *LovHandler) Nearby(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.NearbyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	lovs, err := h.lovService.GetNearbyLovs(ctx, userUUID, &req)
	if err != nil {
		respondError(c, ctx, "获取附近标记点", err)
		return
	}

	result.Success(c, lovs)
}
