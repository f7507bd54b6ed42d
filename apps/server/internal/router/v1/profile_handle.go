package v1

import (
	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// ProfileHandler 用户资料处理器
type ProfileHandler struct {
	profileService service.IProfileService
}

// NewProfileHandler 创建用户资料处理器
func NewProfileHandler(profileService service.IProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

// GetProfile 获取个人资料接口
// @Summary 获取个人资料
// @Description 获取当前登录用户的资料（含好友码与通知偏好）
// @Tags 用户资料接口
// @Produce json
// @Success 200 {object} dto.ProfileResponse
// @Router /api/v1/user/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	profile, err := h.profileService.GetProfile(ctx, userUUID)
	if err != nil {
		respondError(c, ctx, "获取个人资料", err)
		return
	}

	result.Success(c, dto.ConvertProfileResponse(profile))
}

// SetPseudo 设置初始昵称接口
// @Summary 设置初始昵称
// @Description 昵称仅允许在首次登录后设置一次，设置后同步刷新好友侧快照
// @Tags 用户资料接口
// @Accept json
// @Produce json
// @Param request body dto.UpdatePseudoRequest true "昵称请求"
// @Success 200 {object} result.Response
// @Router /api/v1/user/pseudo [put]
func (h *ProfileHandler) SetPseudo(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.UpdatePseudoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	if err := h.profileService.SetInitialPseudo(ctx, userUUID, req.Pseudo); err != nil {
		respondError(c, ctx, "设置昵称", err)
		return
	}

	result.Success(c, nil)
}

// UpdateNotifyPrefs 更新通知偏好接口
// @Summary 更新通知偏好
// @Description 分别控制新标记点、新好友、新表态三类通知
// @Tags 用户资料接口
// @Accept json
// @Produce json
// @Param request body dto.NotifyPrefsRequest true "通知偏好"
// @Success 200 {object} result.Response
// @Router /api/v1/user/notify-prefs [put]
func (h *ProfileHandler) UpdateNotifyPrefs(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.NotifyPrefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	if err := h.profileService.UpdateNotifyPrefs(ctx, userUUID, &req); err != nil {
		respondError(c, ctx, "更新通知偏好", err)
		return
	}

	result.Success(c, nil)
}
