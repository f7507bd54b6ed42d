package middleware

import (
	"context"
	"time"

	"LovMapServer/consts"
	"LovMapServer/pkg/logger"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// TimeoutMiddleware 请求超时控制中间件
// 安全版本：不开启 Goroutine，依赖下游 Context 感知
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 创建带超时的 context
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		// 2. 替换请求的 context
		// 后续 Handler、DB、Redis 调用都能感知这个超时
		c.Request = c.Request.WithContext(ctx)

		// 3. 直接在当前协程执行
		c.Next()

		// 4. 后置兜底：下游没来得及写响应就超时了，由中间件写超时响应
		if ctx.Err() == context.DeadlineExceeded {
			if !c.Writer.Written() {
				logCtx := NewContextWithGin(c)
				logger.Warn(logCtx, "请求强制超时",
					logger.String("path", c.Request.URL.Path),
					logger.Duration("timeout", timeout),
				)
				result.Fail(c, nil, consts.CodeServiceUnavailable)
			}
		}
	}
}
