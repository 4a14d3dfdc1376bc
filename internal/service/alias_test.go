package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renthub/backend/internal/storage/memory"
)

func TestNewSupportResolver(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "support-1", "support@renthub.local", "客服小助手")

	t.Run("地址为空时客服入口关闭", func(t *testing.T) {
		resolver, err := NewSupportResolver("", store, nil)

		require.NoError(t, err)
		assert.False(t, resolver.Enabled())

		_, err = resolver.SupportUserID()
		assert.Equal(t, ErrSupportDisabled, err)
	})

	t.Run("解析客服账号成功", func(t *testing.T) {
		resolver, err := NewSupportResolver("support@renthub.local", store, nil)

		require.NoError(t, err)
		assert.True(t, resolver.Enabled())

		userID, err := resolver.SupportUserID()
		assert.NoError(t, err)
		assert.Equal(t, "support-1", userID)
	})

	t.Run("客服账号不存在时启动失败", func(t *testing.T) {
		resolver, err := NewSupportResolver("nobody@renthub.local", store, nil)

		assert.Nil(t, resolver)
		assert.Equal(t, ErrSupportAccountMissing, err)
	})
}

func TestMessagingService_ContactSupport(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "support-1", "support@renthub.local", "客服小助手")
	newTestUser(t, store, "alice", "alice@example.com", "alice")

	svc := NewMessagingService(store, store, 20, 100, nil)

	t.Run("联系客服走普通站内信路径", func(t *testing.T) {
		resolver, err := NewSupportResolver("support@renthub.local", store, nil)
		require.NoError(t, err)

		message, err := svc.ContactSupport(resolver, "alice", "订单有问题")

		require.NoError(t, err)
		assert.Equal(t, "alice", message.SenderID)
		assert.Equal(t, "support-1", message.RecipientID)
		assert.False(t, message.IsRead)

		// 客服收件箱能看到这条消息
		count, err := store.CountUnreadMessages("support-1")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("客服入口关闭时返回错误", func(t *testing.T) {
		resolver, err := NewSupportResolver("", store, nil)
		require.NoError(t, err)

		message, err := svc.ContactSupport(resolver, "alice", "在吗")

		assert.Nil(t, message)
		assert.Equal(t, ErrSupportDisabled, err)
	})
}
