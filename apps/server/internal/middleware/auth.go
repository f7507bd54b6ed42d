package middleware

import (
	"net/http"
	"strings"
	"time"

	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/pkg/ctxmeta"

	"github.com/gin-gonic/gin"
)

const ginKeyTokenIssuedAt = "token_issued_at"

// JWTAuthMiddleware JWT 认证中间件
// 从请求头中提取 Token 并验证，验证通过后将用户信息存入 Context
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 中获取 Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// 客户端请求错误,属于正常业务流程,不记录日志
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		// 2. 验证格式: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "认证格式错误",
			})
			c.Abort()
			return
		}

		// 3. 解析并验证 Token
		claims, err := utils.ParseToken(secret, parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "Token 无效或已过期",
			})
			c.Abort()
			return
		}

		// 4. 将用户信息存入 Context，供后续 Handler 使用
		c.Set(ctxmeta.GinKeyUserUUID, claims.UserUuid)
		c.Set(ctxmeta.GinKeyUserEmail, claims.Email)
		if claims.IssuedAt != nil {
			c.Set(ginKeyTokenIssuedAt, claims.IssuedAt.Time)
		}

		c.Next()
	}
}

// GetUserUUID 从 Context 中获取当前登录用户的 UUID
func GetUserUUID(c *gin.Context) (string, bool) {
	uuid := c.GetString(ctxmeta.GinKeyUserUUID)
	return uuid, uuid != ""
}

// GetTokenIssuedAt 从 Context 中获取当前令牌的签发时间（重认证窗口校验用）
func GetTokenIssuedAt(c *gin.Context) (time.Time, bool) {
	v, exists := c.Get(ginKeyTokenIssuedAt)
	if !exists {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}
