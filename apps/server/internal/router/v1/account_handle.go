package v1

import (
	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// AccountHandler 账号生命周期处理器
type AccountHandler struct {
	accountService service.IAccountService
}

// NewAccountHandler 创建账号处理器
func NewAccountHandler(accountService service.IAccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// DeleteAccount 注销账号接口
// @Summary 注销账号
// @Description 需要密码重认证，且当前令牌签发时间在重认证窗口内；
// @Description 删除按固定顺序串行级联，中途失败账号仍可登录重试
// @Tags 账号接口
// @Accept json
// @Produce json
// @Param request body dto.DeleteAccountRequest true "密码"
// @Success 200 {object} result.Response
// @Router /api/v1/account [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := middleware.GetUserUUID(c)
	if !ok {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return
	}

	var req dto.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	issuedAt, ok := middleware.GetTokenIssuedAt(c)
	if !ok {
		// 旧令牌缺少签发时间，按超出重认证窗口处理
		result.Fail(c, nil, consts.CodeReauthRequired)
		return
	}

	if err := h.accountService.DeleteAccount(ctx, userUUID, req.Password, issuedAt); err != nil {
		respondError(c, ctx, "注销账号", err)
		return
	}

	result.Success(c, nil)
}
