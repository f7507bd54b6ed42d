package v1

import (
	"LovMapServer/apps/server/internal/dto"
	"LovMapServer/apps/server/internal/middleware"
	"LovMapServer/apps/server/internal/service"
	"LovMapServer/consts"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	authService service.IAuthService
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(authService service.IAuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register 注册接口
// @Summary 注册
// @Description 邮箱+密码注册并自动建档，返回访问令牌
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册请求"
// @Success 200 {object} dto.TokenResponse
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	// 1. 绑定并校验请求体
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	// 2. 调用服务层处理业务逻辑
	tokenResp, err := h.authService.Register(ctx, &req)
	if err != nil {
		respondError(c, ctx, "注册", err)
		return
	}

	// 3. 返回成功响应
	result.Success(c, tokenResp)
}

// Login 登录接口
// @Summary 登录
// @Description 邮箱+密码登录，返回访问令牌
// @Tags 认证接口
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.TokenResponse
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeBodyError)
		return
	}

	tokenResp, err := h.authService.Login(ctx, &req)
	if err != nil {
		respondError(c, ctx, "登录", err)
		return
	}

	result.Success(c, tokenResp)
}
