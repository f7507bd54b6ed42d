package ctxmeta

import (
	"context"

	"github.com/gin-gonic/gin"
)

// 上下文元数据统一通过本包读写，避免业务代码散落裸字符串 key。

type ctxKey int

const (
	keyTraceID ctxKey = iota
	keyUserUUID
	keyUserEmail
	keyClientIP
)

// Gin 上下文里使用的 key（中间件与 handler 之间传递）
const (
	GinKeyTraceID   = "trace_id"
	GinKeyUserUUID  = "user_uuid"
	GinKeyUserEmail = "user_email"
)

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, keyTraceID, traceID)
}

func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(keyTraceID).(string)
	return v
}

func WithUserUUID(ctx context.Context, uuid string) context.Context {
	return context.WithValue(ctx, keyUserUUID, uuid)
}

func UserUUID(ctx context.Context) string {
	v, _ := ctx.Value(keyUserUUID).(string)
	return v
}

func WithUserEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyUserEmail, email)
}

func UserEmail(ctx context.Context) string {
	v, _ := ctx.Value(keyUserEmail).(string)
	return v
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, keyClientIP, ip)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(keyClientIP).(string)
	return v
}

// TraceIDFromGin 从 Gin 上下文中取 trace_id
func TraceIDFromGin(c *gin.Context) string {
	return c.GetString(GinKeyTraceID)
}

// Propagate 从父 ctx 拷贝需要跨协程透传的元数据到一个全新的 ctx。
// 异步任务必须使用新 ctx，避免父请求取消把后台任务一起取消。
func Propagate(parent context.Context) context.Context {
	ctx := context.Background()
	if v := TraceID(parent); v != "" {
		ctx = WithTraceID(ctx, v)
	}
	if v := UserUUID(parent); v != "" {
		ctx = WithUserUUID(ctx, v)
	}
	if v := UserEmail(parent); v != "" {
		ctx = WithUserEmail(ctx, v)
	}
	if v := ClientIP(parent); v != "" {
		ctx = WithClientIP(ctx, v)
	}
	return ctx
}
