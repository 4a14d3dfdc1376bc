package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

func TestStore_Messages(t *testing.T) {
	store := NewStore()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	seed := func(id, sender, recipient string, offset time.Duration) {
		require.NoError(t, store.SaveMessage(&domain.Message{
			ID:          id,
			SenderID:    sender,
			RecipientID: recipient,
			Body:        "msg " + id,
			CreatedAt:   base.Add(offset),
		}))
	}
	seed("m1", "alice", "bob", 0)
	seed("m2", "bob", "alice", time.Minute)
	seed("m3", "alice", "carol", 2*time.Minute)
	seed("m4", "carol", "alice", 3*time.Minute)

	t.Run("双方对话按时间升序", func(t *testing.T) {
		msgs, err := store.ListMessagesBetween("alice", "bob")

		require.NoError(t, err)
		require.Len(t, msgs, 2)
		assert.Equal(t, "m1", msgs[0].ID)
		assert.Equal(t, "m2", msgs[1].ID)
	})

	t.Run("涉及某用户的消息按时间降序", func(t *testing.T) {
		msgs, err := store.ListMessagesInvolving("alice")

		require.NoError(t, err)
		require.Len(t, msgs, 4)
		assert.Equal(t, "m4", msgs[0].ID)
		assert.Equal(t, "m1", msgs[3].ID)
	})

	t.Run("获取不存在的消息", func(t *testing.T) {
		msg, err := store.GetMessage("ghost")

		assert.Nil(t, msg)
		assert.Equal(t, storage.ErrMessageNotFound, err)
	})

	t.Run("标记单条消息已读", func(t *testing.T) {
		require.NoError(t, store.MarkMessageRead("m1"))

		msg, err := store.GetMessage("m1")
		require.NoError(t, err)
		assert.True(t, msg.IsRead)

		// 重复标记不报错
		assert.NoError(t, store.MarkMessageRead("m1"))
	})

	t.Run("批量标记对话已读返回更新条数", func(t *testing.T) {
		count, err := store.MarkConversationRead("alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, count) // 只有 m2

		count, err = store.MarkConversationRead("alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})

	t.Run("统计未读消息", func(t *testing.T) {
		count, err := store.CountUnreadMessages("alice")

		require.NoError(t, err)
		assert.Equal(t, 1, count) // 剩 m4
	})

	t.Run("缺少 ID 的消息被拒绝", func(t *testing.T) {
		err := store.SaveMessage(&domain.Message{SenderID: "alice", RecipientID: "bob", Body: "x"})

		assert.Error(t, err)
	})
}

func TestStore_Users(t *testing.T) {
	store := NewStore()

	alice := &domain.User{
		ID:       "alice",
		Email:    "alice@example.com",
		Username: "Alice",
		Role:     domain.RoleUser,
		IsActive: true,
	}
	require.NoError(t, store.CreateUser(alice))

	t.Run("按 ID、邮箱、用户名查找", func(t *testing.T) {
		byID, err := store.GetUserByID("alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", byID.Email)

		byEmail, err := store.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "alice", byEmail.ID)

		// 用户名不区分大小写
		byUsername, err := store.GetUserByUsername("ALICE")
		require.NoError(t, err)
		assert.Equal(t, "alice", byUsername.ID)
	})

	t.Run("邮箱重复被拒绝", func(t *testing.T) {
		err := store.CreateUser(&domain.User{ID: "dup", Email: "alice@example.com"})

		assert.Equal(t, storage.ErrEmailExists, err)
	})

	t.Run("用户名重复被拒绝", func(t *testing.T) {
		err := store.CreateUser(&domain.User{ID: "dup", Email: "dup@example.com", Username: "alice"})

		assert.Equal(t, storage.ErrUsernameExists, err)
	})

	t.Run("改名撞上已有用户名被拒绝", func(t *testing.T) {
		require.NoError(t, store.CreateUser(&domain.User{
			ID: "bob", Email: "bob@example.com", Username: "bob",
		}))

		bob, err := store.GetUserByID("bob")
		require.NoError(t, err)
		bob.Username = "Alice"

		assert.Equal(t, storage.ErrUsernameExists, store.UpdateUser(bob))

		// 失败的改名不破坏原索引
		bob.Username = "bob"
		found, err := store.GetUserByUsername("bob")
		require.NoError(t, err)
		assert.Equal(t, "bob", found.ID)
	})

	t.Run("更新最后登录时间", func(t *testing.T) {
		require.NoError(t, store.UpdateLastLogin("alice"))

		user, err := store.GetUserByID("alice")
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
	})

	t.Run("删除用户后索引同步清理", func(t *testing.T) {
		require.NoError(t, store.CreateUser(&domain.User{
			ID: "temp", Email: "temp@example.com", Username: "temp",
		}))
		require.NoError(t, store.DeleteUser("temp"))

		_, err := store.GetUserByEmail("temp@example.com")
		assert.Equal(t, storage.ErrUserNotFound, err)
		_, err = store.GetUserByUsername("temp")
		assert.Equal(t, storage.ErrUserNotFound, err)
	})
}

func TestStore_Listings(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.SaveListing(&domain.Listing{
		ID: "l1", OwnerID: "alice", Title: "房源一", IsPublished: true,
	}))
	require.NoError(t, store.SaveListing(&domain.Listing{
		ID: "l2", OwnerID: "alice", Title: "房源二",
	}))

	t.Run("图片元数据必须挂在已有房源下", func(t *testing.T) {
		err := store.SaveListingImage(&domain.ListingImage{ID: "img", ListingID: "ghost"})

		assert.Equal(t, storage.ErrListingNotFound, err)
	})

	t.Run("删除房源级联清理图片元数据", func(t *testing.T) {
		require.NoError(t, store.SaveListingImage(&domain.ListingImage{ID: "img1", ListingID: "l1"}))

		require.NoError(t, store.DeleteListing("l1"))

		_, err := store.GetListingImage("img1")
		assert.Equal(t, storage.ErrImageNotFound, err)
	})
}

func TestStore_GetSystemStatistics(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.CreateUser(&domain.User{
		ID: "alice", Email: "alice@example.com", IsActive: true, Role: domain.RoleUser,
	}))

	now := time.Now().UTC()
	require.NoError(t, store.SaveMessage(&domain.Message{
		ID: "today", SenderID: "alice", RecipientID: "bob", Body: "新消息", CreatedAt: now,
	}))
	require.NoError(t, store.SaveMessage(&domain.Message{
		ID: "old", SenderID: "alice", RecipientID: "bob", Body: "旧消息", CreatedAt: now.Add(-48 * time.Hour),
	}))

	stats, err := store.GetSystemStatistics()

	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMessages)
	// 今日消息按 UTC 日界计算，与 CreatedAt 的存储约定一致
	assert.Equal(t, 1, stats.MessagesToday)
}

func TestStore_RateLimit(t *testing.T) {
	store := NewStore()

	t.Run("同一窗口内计数递增", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			count, err := store.IncrementRateLimit("auth:1.2.3.4", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, i, count)
		}

		count, err := store.GetRateLimit("auth:1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})

	t.Run("窗口过期后重新计数", func(t *testing.T) {
		_, err := store.IncrementRateLimit("expired", -time.Second)
		require.NoError(t, err)

		count, err := store.GetRateLimit("expired")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)

		count, err = store.IncrementRateLimit("expired", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("不同键互不影响", func(t *testing.T) {
		count, err := store.IncrementRateLimit("other", time.Minute)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestStore_Blacklist(t *testing.T) {
	store := NewStore()

	// 内存存储不支持黑名单写入，但查询总是安全返回
	assert.Error(t, store.AddToBlacklist("jti-1", time.Minute))

	blacklisted, err := store.IsBlacklisted("jti-1")
	require.NoError(t, err)
	assert.False(t, blacklisted)
}
