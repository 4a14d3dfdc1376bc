package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
	"renthub/backend/internal/storage/memory"
)

func newTestUser(t *testing.T, store *memory.Store, id, email, username string) *domain.User {
	t.Helper()

	user := &domain.User{
		ID:       id,
		Email:    email,
		Username: username,
		Role:     domain.RoleUser,
		IsActive: true,
	}
	require.NoError(t, store.CreateUser(user))
	return user
}

func seedMessage(t *testing.T, store *memory.Store, id, senderID, recipientID, body string, createdAt time.Time, isRead bool) {
	t.Helper()

	require.NoError(t, store.SaveMessage(&domain.Message{
		ID:          id,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		IsRead:      isRead,
		CreatedAt:   createdAt,
	}))
}

func TestMessagingService_Send(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")

	svc := NewMessagingService(store, store, 20, 100, nil)

	t.Run("发送站内信成功", func(t *testing.T) {
		message, err := svc.Send("alice", "bob", "你好，房子还在吗？")

		assert.NoError(t, err)
		assert.NotNil(t, message)
		assert.NotEmpty(t, message.ID)
		assert.Equal(t, "alice", message.SenderID)
		assert.Equal(t, "bob", message.RecipientID)
		assert.False(t, message.IsRead)
		assert.False(t, message.CreatedAt.IsZero())
	})

	t.Run("收信人不存在时发送失败", func(t *testing.T) {
		message, err := svc.Send("alice", "ghost", "在吗")

		assert.Nil(t, message)
		assert.Equal(t, ErrRecipientUnknown, err)
	})

	t.Run("不能给自己发送站内信", func(t *testing.T) {
		message, err := svc.Send("alice", "alice", "自言自语")

		assert.Nil(t, message)
		assert.Equal(t, ErrSelfMessage, err)
	})

	t.Run("正文为空时发送失败", func(t *testing.T) {
		message, err := svc.Send("alice", "bob", "   ")

		assert.Nil(t, message)
		assert.Equal(t, domain.ErrBodyEmpty, err)
	})

	t.Run("正文超长时发送失败", func(t *testing.T) {
		long := make([]byte, domain.MaxMessageBodyLength+1)
		for i := range long {
			long[i] = 'a'
		}

		message, err := svc.Send("alice", "bob", string(long))

		assert.Nil(t, message)
		assert.Equal(t, domain.ErrBodyTooLong, err)
	})
}

func TestMessagingService_Conversation(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")

	svc := NewMessagingService(store, store, 20, 100, nil)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	seedMessage(t, store, "m1", "alice", "bob", "你好", base, true)
	seedMessage(t, store, "m2", "bob", "alice", "你好，请讲", base.Add(time.Minute), false)
	seedMessage(t, store, "m3", "bob", "alice", "还在吗", base.Add(2*time.Minute), false)

	t.Run("会话按时间升序返回", func(t *testing.T) {
		messages, err := svc.Conversation("alice", "bob")

		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, "m1", messages[0].ID)
		assert.Equal(t, "m2", messages[1].ID)
		assert.Equal(t, "m3", messages[2].ID)
	})

	t.Run("打开会话后对方消息被标记为已读", func(t *testing.T) {
		count, err := store.CountUnreadMessages("alice")
		require.NoError(t, err)
		assert.Equal(t, 0, count)

		// 返回的快照同步反映已读状态
		messages, err := svc.Conversation("alice", "bob")
		require.NoError(t, err)
		for _, msg := range messages {
			if msg.RecipientID == "alice" {
				assert.True(t, msg.IsRead)
			}
		}
	})

	t.Run("只影响会话内发给查看者的消息", func(t *testing.T) {
		newTestUser(t, store, "carol", "carol@example.com", "carol")
		seedMessage(t, store, "m4", "carol", "alice", "另一个会话", base.Add(3*time.Minute), false)

		_, err := svc.Conversation("alice", "bob")
		require.NoError(t, err)

		count, err := store.CountUnreadMessages("alice")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestMessagingService_Inbox(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")
	newTestUser(t, store, "carol", "carol@example.com", "carol")
	newTestUser(t, store, "dave", "dave@example.com", "")

	svc := NewMessagingService(store, store, 20, 100, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	// 与 bob 的会话：两条消息，一条未读
	seedMessage(t, store, "b1", "alice", "bob", "询问", base, true)
	seedMessage(t, store, "b2", "bob", "alice", "回复", base.Add(time.Minute), false)
	// 与 carol 的会话：最新，两条未读
	seedMessage(t, store, "c1", "carol", "alice", "降价了", base.Add(10*time.Minute), false)
	seedMessage(t, store, "c2", "carol", "alice", "考虑一下", base.Add(11*time.Minute), false)
	// 与 dave 的会话：只有发出的消息，无未读
	seedMessage(t, store, "d1", "alice", "dave", "房源还在吗", base.Add(5*time.Minute), false)

	t.Run("每个对话方聚合为一个会话", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 20)

		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 1, page.TotalPages)
		require.Len(t, page.Items, 3)
	})

	t.Run("会话按最近消息时间降序排列", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 20)

		require.NoError(t, err)
		assert.Equal(t, "carol", page.Items[0].CounterpartyID)
		assert.Equal(t, "dave", page.Items[1].CounterpartyID)
		assert.Equal(t, "bob", page.Items[2].CounterpartyID)
	})

	t.Run("最近一条消息与未读数正确", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 20)

		require.NoError(t, err)
		carol := page.Items[0]
		assert.Equal(t, "c2", carol.LastMessage.ID)
		assert.Equal(t, 2, carol.Unread)

		dave := page.Items[1]
		assert.Equal(t, "d1", dave.LastMessage.ID)
		assert.Equal(t, 0, dave.Unread) // 自己发出的消息不计入未读

		bob := page.Items[2]
		assert.Equal(t, "b2", bob.LastMessage.ID)
		assert.Equal(t, 1, bob.Unread)
	})

	t.Run("补齐对话方展示信息", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 20)

		require.NoError(t, err)
		assert.Equal(t, "carol", page.Items[0].CounterpartyName)
		assert.Equal(t, "carol@example.com", page.Items[0].CounterpartyAddress)
		// 没有用户名时用邮箱展示
		assert.Equal(t, "dave@example.com", page.Items[1].CounterpartyName)
	})

	t.Run("页码小于1返回错误", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 0, 20)

		assert.Nil(t, page)
		assert.Equal(t, ErrPageInvalid, err)
	})

	t.Run("分页大小使用默认值并受上限约束", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 0)
		require.NoError(t, err)
		assert.Equal(t, 20, page.PageSize)

		page, err = svc.Inbox(ctx, "alice", 1, 10000)
		require.NoError(t, err)
		assert.Equal(t, 100, page.PageSize)
	})

	t.Run("超出最后一页返回空列表而非错误", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 99, 20)

		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 1, page.TotalPages)
		assert.Equal(t, 99, page.Page)
	})

	t.Run("没有任何消息时收件箱为空", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "bob2-no-messages", 1, 20)

		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, 0, page.Total)
		assert.Equal(t, 0, page.TotalPages)
	})
}

func TestMessagingService_InboxPagination(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")

	svc := NewMessagingService(store, store, 20, 100, nil)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("user-%d", i)
		newTestUser(t, store, id, fmt.Sprintf("u%d@example.com", i), fmt.Sprintf("u%d", i))
		seedMessage(t, store, fmt.Sprintf("msg-%d", i), id, "alice", "消息", base.Add(time.Duration(i)*time.Minute), false)
	}

	t.Run("总页数向上取整", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 2)

		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Len(t, page.Items, 2)
	})

	t.Run("各页内容不重叠且覆盖全部会话", func(t *testing.T) {
		seen := make(map[string]bool)
		for p := 1; p <= 3; p++ {
			page, err := svc.Inbox(ctx, "alice", p, 2)
			require.NoError(t, err)
			for _, item := range page.Items {
				assert.False(t, seen[item.CounterpartyID])
				seen[item.CounterpartyID] = true
			}
		}
		assert.Len(t, seen, 5)
	})

	t.Run("最后一页只包含剩余会话", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 3, 2)

		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
	})
}

func TestMessagingService_InboxStableOrder(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "zed", "zed@example.com", "zed")
	newTestUser(t, store, "amy", "amy@example.com", "amy")

	svc := NewMessagingService(store, store, 20, 100, nil)
	ctx := context.Background()

	// 两个会话的最近消息时间完全相同
	same := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedMessage(t, store, "z1", "zed", "alice", "你好", same, false)
	seedMessage(t, store, "a1", "amy", "alice", "你好", same, false)

	t.Run("时间相同时按对话方ID升序", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 20)

		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "amy", page.Items[0].CounterpartyID)
		assert.Equal(t, "zed", page.Items[1].CounterpartyID)
	})
}

func TestMessagingService_InboxMissingCounterparty(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	// ghost 不在用户表中（账号已注销）

	svc := NewMessagingService(store, store, 20, 100, nil)
	ctx := context.Background()

	seedMessage(t, store, "g1", "ghost", "alice", "以前的消息", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), false)

	t.Run("对方账号注销后会话仍保留", func(t *testing.T) {
		page, err := svc.Inbox(ctx, "alice", 1, 20)

		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.True(t, page.Items[0].CounterpartyMissing)
		assert.Empty(t, page.Items[0].CounterpartyName)
		assert.Empty(t, page.Items[0].CounterpartyAddress)
		assert.Equal(t, 1, page.Items[0].Unread)
	})
}

func TestMessagingService_MarkRead(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")

	svc := NewMessagingService(store, store, 20, 100, nil)

	seedMessage(t, store, "m1", "bob", "alice", "你好", time.Now().UTC(), false)

	t.Run("收信人标记已读成功", func(t *testing.T) {
		err := svc.MarkRead("alice", "m1")

		assert.NoError(t, err)
		msg, err := store.GetMessage("m1")
		require.NoError(t, err)
		assert.True(t, msg.IsRead)
	})

	t.Run("重复标记是幂等操作", func(t *testing.T) {
		err := svc.MarkRead("alice", "m1")

		assert.NoError(t, err)
	})

	t.Run("非收信人标记已读被拒绝", func(t *testing.T) {
		err := svc.MarkRead("bob", "m1")

		assert.Equal(t, ErrNotMessageRecipient, err)
	})

	t.Run("消息不存在时返回不存在错误", func(t *testing.T) {
		// 即使调用者也不是收信人，不存在优先于无权限
		err := svc.MarkRead("bob", "ghost-message")

		assert.Equal(t, storage.ErrMessageNotFound, err)
	})
}

// changedRowsStore 模拟 MySQL 默认的行数语义：更新没有改变任何行时
// 报告零行，已读消息的重复标记在存储层不可见。
type changedRowsStore struct {
	*memory.Store
}

func (s *changedRowsStore) MarkMessageRead(id string) error {
	msg, err := s.Store.GetMessage(id)
	if err != nil {
		return err
	}
	if msg.IsRead {
		return storage.ErrMessageNotFound
	}
	return s.Store.MarkMessageRead(id)
}

func TestMessagingService_MarkReadOnChangedRowsBackend(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")

	svc := NewMessagingService(&changedRowsStore{Store: store}, store, 20, 100, nil)

	seedMessage(t, store, "m1", "bob", "alice", "你好", time.Now().UTC(), false)

	t.Run("首次标记成功", func(t *testing.T) {
		require.NoError(t, svc.MarkRead("alice", "m1"))
	})

	t.Run("已读消息的重复标记仍然成功", func(t *testing.T) {
		err := svc.MarkRead("alice", "m1")

		assert.NoError(t, err)
	})

	t.Run("不存在的消息仍然返回不存在错误", func(t *testing.T) {
		err := svc.MarkRead("alice", "ghost-message")

		assert.Equal(t, storage.ErrMessageNotFound, err)
	})
}

func TestMessagingService_InboxCanceledContext(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")

	svc := NewMessagingService(store, store, 20, 100, nil)

	seedMessage(t, store, "m1", "bob", "alice", "你好", time.Now().UTC(), false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page, err := svc.Inbox(ctx, "alice", 1, 20)

	assert.Nil(t, page)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMessagingService_MarkThreadRead(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")

	svc := NewMessagingService(store, store, 20, 100, nil)

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	seedMessage(t, store, "m1", "bob", "alice", "一", base, false)
	seedMessage(t, store, "m2", "bob", "alice", "二", base.Add(time.Minute), false)
	seedMessage(t, store, "m3", "alice", "bob", "三", base.Add(2*time.Minute), false)

	t.Run("批量标记返回更新条数", func(t *testing.T) {
		count, err := svc.MarkThreadRead("alice", "bob")

		assert.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("重复执行返回零", func(t *testing.T) {
		count, err := svc.MarkThreadRead("alice", "bob")

		assert.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("不影响自己发出的消息", func(t *testing.T) {
		msg, err := store.GetMessage("m3")
		require.NoError(t, err)
		assert.False(t, msg.IsRead)
	})
}

// fakeBadgeCache 用于验证未读角标缓存的读写路径
type fakeBadgeCache struct {
	counts map[string]int
	hits   int
}

func newFakeBadgeCache() *fakeBadgeCache {
	return &fakeBadgeCache{counts: make(map[string]int)}
}

func (f *fakeBadgeCache) CacheUnreadCount(userID string, count int, ttl time.Duration) error {
	f.counts[userID] = count
	return nil
}

func (f *fakeBadgeCache) GetCachedUnreadCount(userID string) (int, error) {
	count, ok := f.counts[userID]
	if !ok {
		return 0, storage.ErrUserNotFound
	}
	f.hits++
	return count, nil
}

func (f *fakeBadgeCache) DeleteCachedUnreadCount(userID string) error {
	delete(f.counts, userID)
	return nil
}

func TestMessagingService_UnreadCount(t *testing.T) {
	store := memory.NewStore()
	newTestUser(t, store, "alice", "alice@example.com", "alice")
	newTestUser(t, store, "bob", "bob@example.com", "bob")

	svc := NewMessagingService(store, store, 20, 100, nil)

	seedMessage(t, store, "m1", "bob", "alice", "一", time.Now().UTC(), false)
	seedMessage(t, store, "m2", "bob", "alice", "二", time.Now().UTC(), false)

	t.Run("无缓存时直接回源统计", func(t *testing.T) {
		count, err := svc.UnreadCount("alice")

		assert.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("缓存未命中时回源并回填", func(t *testing.T) {
		cache := newFakeBadgeCache()
		svc.SetBadgeCache(cache, nil)

		count, err := svc.UnreadCount("alice")

		assert.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Equal(t, 2, cache.counts["alice"])
	})

	t.Run("缓存命中时不回源", func(t *testing.T) {
		cache := newFakeBadgeCache()
		cache.counts["alice"] = 42 // 与实际不一致，验证读的是缓存
		svc.SetBadgeCache(cache, nil)

		count, err := svc.UnreadCount("alice")

		assert.NoError(t, err)
		assert.Equal(t, 42, count)
		assert.Equal(t, 1, cache.hits)
	})
}
