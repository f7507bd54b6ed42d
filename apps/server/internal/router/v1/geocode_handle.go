package v1

import (
	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// GeocodeHandler 地理编码处理器
type GeocodeHandler struct {
	geocodeService service.IGeocodeService
}

// NewGeocodeHandler 创建地理编码处理器
func NewGeocodeHandler(geocodeService service.IGeocodeService) *GeocodeHandler {
	return &GeocodeHandler{
		geocodeService: geocodeService,
	}
}

// Search 地址搜索接口
// @Summary 地址搜索
// @Description 代理上游地理编码服务，带 LRU 缓存与熔断保护
// @Tags 地理编码接口
// @Produce json
// @Param q query string true "搜索关键词"
// @Param limit query int false "候选数量上限(默认5)"
// @Success 200 {array} dto.GeocodeCandidate
// @Router /api/v1/geocode/search [get]
func (h *GeocodeHandler) Search(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.GeocodeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	candidates, err := h.geocodeService.Search(ctx, req.Query, req.Limit)
	if err != nil {
		respondError(c, ctx, "地址搜索", err)
		return
	}

	result.Success(c, candidates)
}
