package consts

// 通用错误码
const (
	CodeSuccess = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	CodeParamError       = 10001 // 参数验证失败
	CodeBodyError        = 10002 // 请求体格式错误
	CodeResourceNotFound = 10003 // 资源不存在
	CodeMethodNotAllowed = 10004 // 请求方法不允许
	CodeTooManyRequests  = 10005 // 请求过于频繁
)

// 认证错误 (2xxxx)
const (
	CodeUnauthorized   = 20001 // 未认证
	CodeInvalidToken   = 20002 // Token 无效
	CodeTokenExpired   = 20003 // Token 已过期
	CodePermissionDeny = 20004 // 权限不足
	CodeReauthRequired = 20005 // 需要重新验证身份
)

// 用户模块错误 (11xxx)
const (
	CodeUserNotFound       = 11001 // 用户不存在
	CodeUserAlreadyExist   = 11002 // 用户已存在
	CodePasswordError      = 11003 // 密码错误
	CodePseudoLocked       = 11004 // 昵称仅允许设置一次
	CodeProfileUnavailable = 11005 // 资料服务暂不可用
)

// 好友模块错误 (12xxx)
const (
	CodeAlreadyFriend      = 12001 // 已经是好友
	CodeCannotAddSelf      = 12002 // 不能添加自己为好友
	CodeNotFriend          = 12003 // 不存在该好友关系
	CodeInvalidFriendCode  = 12004 // 好友码无效
	CodeFriendCodeNotFound = 12005 // 好友码不存在
)

// 标记点模块错误 (13xxx)
const (
	CodeLovNotFound      = 13001 // 标记点不存在
	CodeNotLovOwner      = 13002 // 不是标记点的创建者
	CodeRatingOutOfRange = 13003 // 评分超出范围
	CodeEmojiNotSupport  = 13004 // 表情分类不支持
	CodeLocationMissing  = 13005 // 缺少坐标信息
)

// 反应模块错误 (14xxx)
const (
	CodeReactionEmojiNotSupport = 14001 // 反应表情不在可用列表中
)

// 服务端错误 (3xxxx)
const (
	CodeInternalError      = 30001 // 服务器内部错误
	CodeServiceUnavailable = 30002 // 服务暂不可用
)

// 错误消息映射
var CodeMessage = map[int32]string{
	CodeSuccess: "success",

	// 客户端错误
	CodeParamError:       "参数验证失败",
	CodeBodyError:        "请求体格式错误",
	CodeResourceNotFound: "资源不存在",
	CodeMethodNotAllowed: "请求方法不允许",
	CodeTooManyRequests:  "请求过于频繁",

	// 认证错误
	CodeUnauthorized:   "未认证",
	CodeInvalidToken:   "Token 无效",
	CodeTokenExpired:   "Token 已过期",
	CodePermissionDeny: "权限不足",
	CodeReauthRequired: "需要重新验证身份",

	// 用户模块
	CodeUserNotFound:       "用户不存在",
	CodeUserAlreadyExist:   "用户已存在",
	CodePasswordError:      "密码错误",
	CodePseudoLocked:       "昵称仅允许在首次登录时修改",
	CodeProfileUnavailable: "资料服务暂不可用，请稍后重试",

	// 好友模块
	CodeAlreadyFriend:      "对方已在你的好友列表中",
	CodeCannotAddSelf:      "不能添加自己为好友",
	CodeNotFriend:          "不存在该好友关系",
	CodeInvalidFriendCode:  "好友码无效",
	CodeFriendCodeNotFound: "没有找到使用该好友码的用户",

	// 标记点模块
	CodeLovNotFound:      "标记点不存在",
	CodeNotLovOwner:      "只有创建者可以修改或删除标记点",
	CodeRatingOutOfRange: "评分必须在 1 到 5 之间",
	CodeEmojiNotSupport:  "表情分类不支持",
	CodeLocationMissing:  "缺少坐标信息",

	// 反应模块
	CodeReactionEmojiNotSupport: "反应表情不在可用列表中",

	// 服务端错误
	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int32) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 判断是否为业务错误（非服务端内部错误）。
// 业务错误直接透传给客户端，服务端错误统一收敛为 CodeInternalError。
func IsNonServerError(code int32) bool {
	return code > 0 && code < 30000
}
