package middleware

import (
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"LovMapServer/consts"
	"LovMapServer/pkg/logger"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// GinRecovery panic 恢复中间件
// stack: 是否记录调用栈
func GinRecovery(stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				ctx := NewContextWithGin(c)

				// 检查连接是否已断开（broken pipe 不算服务端 panic）
				var brokenPipe bool
				if ne, ok := err.(*net.OpError); ok {
					if se, ok := ne.Err.(*os.SyscallError); ok {
						msg := strings.ToLower(se.Error())
						if strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer") {
							brokenPipe = true
						}
					}
				}

				httpRequest, _ := httputil.DumpRequest(c.Request, false)
				if brokenPipe {
					logger.Error(ctx, "连接已断开",
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
					)
					// 连接断了，无法写响应
					c.Abort()
					return
				}

				if stack {
					logger.Error(ctx, "请求处理 panic",
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
						logger.String("stack", string(debug.Stack())),
					)
				} else {
					logger.Error(ctx, "请求处理 panic",
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
					)
				}

				result.Fail(c, nil, consts.CodeInternalError)
				c.Abort()
			}
		}()
		c.Next()
	}
}
