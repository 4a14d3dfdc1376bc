package service

import (
	"errors"

	"go.uber.org/zap"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

var (
	// ErrSupportAccountMissing 配置的客服账号在用户表中不存在
	ErrSupportAccountMissing = errors.New("support account missing")
	// ErrSupportDisabled 未配置客服账号，"联系客服"入口关闭
	ErrSupportDisabled = errors.New("support contact disabled")
)

// SupportResolver 把"平台客服"这个别名解析为真实用户。
//
// 解析在服务启动时一次性完成：配置里写的是客服账号的邮箱地址，
// 这里换成用户 ID 缓存下来，之后发给客服的消息和普通站内信
// 走完全相同的路径。
type SupportResolver struct {
	userID string
}

// NewSupportResolver 创建客服别名解析器。
//
// address 为空表示平台未开通客服入口，返回的解析器处于关闭状态。
// address 非空但查不到对应用户属于部署配置错误，直接返回
// ErrSupportAccountMissing，让进程在启动阶段失败。
func NewSupportResolver(address string, users storage.UserRepository, logger *zap.Logger) (*SupportResolver, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if address == "" {
		logger.Info("未配置客服账号，联系客服入口关闭")
		return &SupportResolver{}, nil
	}

	user, err := users.GetUserByEmail(address)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Error("客服账号在用户表中不存在", zap.String("address", address))
			return nil, ErrSupportAccountMissing
		}
		return nil, err
	}

	logger.Info("客服账号解析完成", zap.String("address", address), zap.String("userID", user.ID))
	return &SupportResolver{userID: user.ID}, nil
}

// Enabled 返回客服入口是否开启。
func (r *SupportResolver) Enabled() bool {
	return r.userID != ""
}

// SupportUserID 返回客服账号的用户 ID。
func (r *SupportResolver) SupportUserID() (string, error) {
	if r.userID == "" {
		return "", ErrSupportDisabled
	}
	return r.userID, nil
}

// ContactSupport 代表用户给平台客服发送一条站内信。
func (s *MessagingService) ContactSupport(resolver *SupportResolver, senderID, body string) (*domain.Message, error) {
	supportID, err := resolver.SupportUserID()
	if err != nil {
		return nil, err
	}
	return s.Send(senderID, supportID, body)
}
