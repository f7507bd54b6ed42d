package utils

import (
	"errors"

	"LovMapServer/apps/server/internal/repository"
	"LovMapServer/consts"
)

// BizError 携带业务错误码的错误。
// Service 层用它向 Handler 层传递确定的业务语义，
// 不带码的错误一律按内部错误处理。
type BizError struct {
	Code int32
}

func (e *BizError) Error() string {
	return consts.GetMessage(e.Code)
}

// NewBizError 创建业务错误
func NewBizError(code int32) error {
	return &BizError{Code: code}
}

// IsBizError 判断是否为业务错误并返回错误码
func IsBizError(err error) (int32, bool) {
	var bizErr *BizError
	if errors.As(err, &bizErr) {
		return bizErr.Code, true
	}
	return 0, false
}

// ExtractErrorCode 提取业务错误码
// 优先取 BizError，其次映射 Repository 层哨兵错误，兜底内部错误。
func ExtractErrorCode(err error) int32 {
	if err == nil {
		return consts.CodeSuccess
	}

	if code, ok := IsBizError(err); ok {
		return code
	}

	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return consts.CodeResourceNotFound
	case errors.Is(err, repository.ErrDuplicateKey):
		return consts.CodeParamError
	case errors.Is(err, repository.ErrRedis), errors.Is(err, repository.ErrRedisNil):
		return consts.CodeServiceUnavailable
	default:
		return consts.CodeInternalError
	}
}
