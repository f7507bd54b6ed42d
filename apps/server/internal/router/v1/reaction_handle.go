package v1

import (
	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// ReactionHandler 表态处理器
type ReactionHandler struct {
	reactionService service.IReactionService
}

// NewReactionHandler 创建表态处理器
func NewReactionHandler(reactionService service.IReactionService) *ReactionHandler {
	return &ReactionHandler{
		reactionService: reactionService,
	}
}

// Toggle 表态切换接口
// @Summary 表态切换
// @Description 同一用户对同一标记点的同一表情：未表态则添加，已表态则取消
// @Tags 表态接口
// @Accept json
// @Produce json
// @Param id path string true "标记点ID"
// @Param request body dto.ReactRequest true "表情"
// @Success 200 {object} dto.ReactResponse
// @Router /api/v1/lov/{id}/react [post]
func (h *ReactionHandler) Toggle(c *gin.Context) {
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

	var req dto.ReactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	resp, err := h.reactionService.ToggleReaction(ctx, userUUID, lovID, req.Emoji)
	if err != nil {
		respondError(c, ctx, "表态切换", err)
		return
	}

	result.Success(c, resp)
}

// Counts 表态统计接口
// @Summary 表态统计
// @Description 返回全部支持表情的计数（计数可为 0）与当前用户已表态的表情
// @Tags 表态接口
// @Produce json
// @Param id path string true "标记点ID"
// @Success 200 {object} dto.ReactionCountsResponse
// @Router /api/v1/lov/{id}/reactions [get]
func (h *ReactionHandler) Counts(c *gin.Context) {
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

	resp, err := h.reactionService.GetReactionCounts(ctx, userUUID, lovID)
	if err != nil {
		respondError(c, ctx, "获取表态统计", err)
		return
	}

	result.Success(c, resp)
}
