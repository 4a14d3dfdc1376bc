package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage/memory"
)

func newAdminTestStore(t *testing.T) *memory.Store {
	t.Helper()

	store := memory.NewStore()
	require.NoError(t, store.CreateUser(&domain.User{
		ID: "super-1", Email: "super@renthub.local", Username: "super", Role: domain.RoleSuper, IsActive: true,
	}))
	require.NoError(t, store.CreateUser(&domain.User{
		ID: "admin-1", Email: "admin@renthub.local", Username: "admin1", Role: domain.RoleAdmin, IsActive: true,
	}))
	require.NoError(t, store.CreateUser(&domain.User{
		ID: "user-1", Email: "user1@example.com", Username: "user1", Role: domain.RoleUser, IsActive: true,
	}))
	return store
}

func TestAdminService_ListUsers(t *testing.T) {
	store := newAdminTestStore(t)
	svc := NewAdminService(store)

	t.Run("列出全部用户", func(t *testing.T) {
		output, err := svc.ListUsers(ListUsersInput{})

		require.NoError(t, err)
		assert.Equal(t, 3, output.Total)
		assert.Equal(t, 1, output.Page)
		assert.Equal(t, 20, output.PageSize)
		assert.Equal(t, 1, output.TotalPages)
	})

	t.Run("按角色筛选", func(t *testing.T) {
		role := domain.RoleAdmin
		output, err := svc.ListUsers(ListUsersInput{Role: &role})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Total)
		assert.Equal(t, "admin-1", output.Users[0].ID)
	})

	t.Run("按关键词搜索", func(t *testing.T) {
		output, err := svc.ListUsers(ListUsersInput{Search: "user1"})

		require.NoError(t, err)
		assert.Equal(t, 1, output.Total)
	})

	t.Run("分页大小受上限约束", func(t *testing.T) {
		output, err := svc.ListUsers(ListUsersInput{PageSize: 9999})

		require.NoError(t, err)
		assert.Equal(t, 100, output.PageSize)
	})
}

func TestAdminService_UpdateUser(t *testing.T) {
	t.Run("管理员可以禁用普通用户", func(t *testing.T) {
		svc := NewAdminService(newAdminTestStore(t))
		inactive := false

		user, err := svc.UpdateUser(UpdateUserInput{
			UserID:     "user-1",
			IsActive:   &inactive,
			OperatorID: "admin-1",
		})

		require.NoError(t, err)
		assert.False(t, user.IsActive)
	})

	t.Run("不能修改自己", func(t *testing.T) {
		svc := NewAdminService(newAdminTestStore(t))
		inactive := false

		user, err := svc.UpdateUser(UpdateUserInput{
			UserID:     "admin-1",
			IsActive:   &inactive,
			OperatorID: "admin-1",
		})

		assert.Nil(t, user)
		assert.Equal(t, ErrCannotModifySelf, err)
	})

	t.Run("普通管理员不能修改超级管理员", func(t *testing.T) {
		svc := NewAdminService(newAdminTestStore(t))
		inactive := false

		user, err := svc.UpdateUser(UpdateUserInput{
			UserID:     "super-1",
			IsActive:   &inactive,
			OperatorID: "admin-1",
		})

		assert.Nil(t, user)
		assert.Equal(t, ErrCannotModifySuper, err)
	})

	t.Run("只有超级管理员能修改角色", func(t *testing.T) {
		svc := NewAdminService(newAdminTestStore(t))
		role := domain.RoleAdmin

		user, err := svc.UpdateUser(UpdateUserInput{
			UserID:     "user-1",
			Role:       &role,
			OperatorID: "admin-1",
		})

		assert.Nil(t, user)
		assert.Equal(t, ErrInsufficientPermission, err)

		user, err = svc.UpdateUser(UpdateUserInput{
			UserID:     "user-1",
			Role:       &role,
			OperatorID: "super-1",
		})

		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, user.Role)
	})

	t.Run("目标用户不存在", func(t *testing.T) {
		svc := NewAdminService(newAdminTestStore(t))

		user, err := svc.UpdateUser(UpdateUserInput{
			UserID:     "ghost",
			OperatorID: "admin-1",
		})

		assert.Nil(t, user)
		assert.Equal(t, ErrAdminUserNotFound, err)
	})
}

func TestAdminService_GetStatistics(t *testing.T) {
	store := newAdminTestStore(t)
	svc := NewAdminService(store)

	t.Run("统计覆盖用户与消息", func(t *testing.T) {
		require.NoError(t, store.SaveMessage(&domain.Message{
			ID: "m1", SenderID: "user-1", RecipientID: "admin-1", Body: "hi",
		}))

		stats, err := svc.GetStatistics()

		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalUsers)
		assert.Equal(t, 3, stats.ActiveUsers)
		assert.Equal(t, 1, stats.TotalMessages)
		assert.Equal(t, 1, stats.UnreadMessages)
		assert.Equal(t, 1, stats.UsersByRole[domain.RoleSuper])
		assert.False(t, stats.GeneratedAt.IsZero())
	})
}
