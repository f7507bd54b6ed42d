package middleware

import (
	"context"

	"LovMapServer/pkg/ctxmeta"

	"github.com/gin-gonic/gin"
)

// NewContextWithGin 从 gin.Context 创建携带 trace_id、user_uuid 等元数据的 context.Context
// 用于把 Gin 上下文中的认证与追踪信息传递到 Service 层和日志系统
func NewContextWithGin(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if traceID := c.GetString(ctxmeta.GinKeyTraceID); traceID != "" {
		ctx = ctxmeta.WithTraceID(ctx, traceID)
	}
	if userUUID := c.GetString(ctxmeta.GinKeyUserUUID); userUUID != "" {
		ctx = ctxmeta.WithUserUUID(ctx, userUUID)
	}
	if email := c.GetString(ctxmeta.GinKeyUserEmail); email != "" {
		ctx = ctxmeta.WithUserEmail(ctx, email)
	}
	if ip := ClientIPFromGinContext(c); ip != "" {
		ctx = ctxmeta.WithClientIP(ctx, ip)
	}
	return ctx
}
