package v1

import (
	"context"
	"strconv"

	"LovMapServer/apps/server/internal/utils"
	"LovMapServer/consts"
	"LovMapServer/pkg/logger"
	"LovMapServer/pkg/result"

	"github.com/gin-gonic/gin"
)

// respondError 统一的服务层错误出口。
// 业务错误直接透传错误码；服务端内部错误记日志并收敛为 CodeInternalError。
func respondError(c *gin.Context, ctx context.Context, action string, err error) {
	code := utils.ExtractErrorCode(err)
	if consts.IsNonServerError(code) {
		result.Fail(c, nil, code)
		return
	}

	logger.Error(ctx, action+"服务内部错误",
		logger.ErrorField("error", err),
	)
	result.Fail(c, nil, consts.CodeInternalError)
}

// parseIDParam 解析路径中的数字 ID（雪花 ID 以字符串传输）
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		result.Fail(c, nil, consts.CodeParamError)
		return 0, false
	}
	return id, true
}
