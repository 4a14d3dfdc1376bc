package httptransport

import (
	"renthub/backend/internal/domain"
	"renthub/backend/internal/service"
	"renthub/backend/internal/storage"
)

// 错误消息映射表（业务错误 -> 中文消息）
var errorMessages = map[error]string{
	// Message 错误
	service.ErrRecipientUnknown:    "收信人不存在",
	service.ErrSelfMessage:         "不能给自己发送站内信",
	service.ErrNotMessageRecipient: "只有收信人才能标记已读",
	service.ErrPageInvalid:         "分页参数无效",
	storage.ErrMessageNotFound:     "消息不存在",
	domain.ErrBodyEmpty:            "消息内容不能为空",
	domain.ErrBodyTooLong:          "消息内容超过长度限制",

	// Support 错误
	service.ErrSupportDisabled:       "平台暂未开通客服入口",
	service.ErrSupportAccountMissing: "客服账号配置错误",

	// Listing 错误
	service.ErrNotListingOwner: "您不是该房源的发布者",
	service.ErrImageTooLarge:   "图片超过大小限制",
	storage.ErrListingNotFound: "房源不存在",
	storage.ErrImageNotFound:   "图片不存在",
	domain.ErrTitleEmpty:       "房源标题不能为空",
	domain.ErrPriceNegative:    "房源价格不能为负数",

	// Admin 错误
	service.ErrAdminUserNotFound:      "用户不存在",
	service.ErrCannotModifySelf:       "不能修改自己的账户",
	service.ErrCannotModifySuper:      "不能修改超级管理员账户",
	service.ErrInsufficientPermission: "权限不足",
}

// GetErrorMessage 获取错误的中文消息
func GetErrorMessage(err error) string {
	if msg, ok := errorMessages[err]; ok {
		return msg
	}
	return err.Error()
}

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest   = "请求参数格式错误"
	MsgInvalidPage      = "页码格式无效"
	MsgRequestBodyEmpty = "请求体不能为空"

	// 认证相关
	MsgAuthRequired       = "需要登录认证"
	MsgInvalidCredentials = "用户名或密码错误"
	MsgTokenExpired       = "登录已过期，请重新登录"
	MsgTokenInvalid       = "无效的访问令牌"
	MsgPermissionDenied   = "权限不足"

	// 站内信相关
	MsgMessageSendFailed     = "发送站内信失败"
	MsgMessageNotFound       = "消息不存在"
	MsgMessageMarkReadFailed = "标记已读失败"
	MsgConversationFailed    = "获取会话失败"
	MsgInboxFailed           = "获取收件箱失败"
	MsgUnreadCountFailed     = "获取未读数失败"

	// 客服相关
	MsgSupportSendFailed = "联系客服失败"

	// 房源相关
	MsgListingCreateFailed = "发布房源失败"
	MsgListingNotFound     = "房源不存在"
	MsgListingListFailed   = "获取房源列表失败"
	MsgListingUpdateFailed = "更新房源失败"
	MsgListingDeleteFailed = "删除房源失败"
	MsgImageUploadFailed   = "上传图片失败"
	MsgImageNotFound       = "图片不存在"
	MsgImageListFailed     = "获取图片列表失败"
	MsgImageDeleteFailed   = "删除图片失败"

	// 管理员相关
	MsgUserListFailed      = "获取用户列表失败"
	MsgUserNotFound        = "用户不存在"
	MsgUserGetFailed       = "获取用户信息失败"
	MsgUserUpdateFailed    = "更新用户信息失败"
	MsgStatisticsGetFailed = "获取统计数据失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
