package service

import (
	"errors"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

var (
	// ErrUnauthorized 未授权访问
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrInsufficientPermission 权限不足
	ErrInsufficientPermission = errors.New("insufficient permissions")
	// ErrAdminUserNotFound 用户不存在
	ErrAdminUserNotFound = errors.New("user not found")
	// ErrCannotModifySelf 不能修改自己
	ErrCannotModifySelf = errors.New("cannot modify self")
	// ErrCannotModifySuper 不能修改超级管理员
	ErrCannotModifySuper = errors.New("cannot modify super admin")
)

// StatisticsCache 统计信息缓存接口，由 Redis 存储实现（可选）。
type StatisticsCache interface {
	CacheStatistics(stats *domain.SystemStatistics) error
	GetCachedStatistics() (*domain.SystemStatistics, error)
}

// AdminService 平台管理服务
type AdminService struct {
	store      storage.Store
	statsCache StatisticsCache
}

// NewAdminService 创建管理服务
func NewAdminService(store storage.Store) *AdminService {
	return &AdminService{store: store}
}

// SetStatisticsCache 设置统计信息缓存。
func (s *AdminService) SetStatisticsCache(cache StatisticsCache) {
	s.statsCache = cache
}

// ListUsersInput 列出用户的输入参数
type ListUsersInput struct {
	Page     int
	PageSize int
	Search   string // 搜索关键词（邮箱/用户名）
	Role     *domain.UserRole
	IsActive *bool
}

// ListUsersOutput 列出用户的输出结果
type ListUsersOutput struct {
	Users      []domain.User `json:"users"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// ListUsers 列出所有用户（需要管理员权限）
func (s *AdminService) ListUsers(input ListUsersInput) (*ListUsersOutput, error) {
	// 设置默认分页
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.PageSize <= 0 {
		input.PageSize = 20
	}
	if input.PageSize > 100 {
		input.PageSize = 100
	}

	users, total, err := s.store.ListUsers(input.Page, input.PageSize, input.Search, input.Role, input.IsActive)
	if err != nil {
		return nil, err
	}

	totalPages := (total + input.PageSize - 1) / input.PageSize

	return &ListUsersOutput{
		Users:      users,
		Total:      total,
		Page:       input.Page,
		PageSize:   input.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetUser 获取用户详情（需要管理员权限）
func (s *AdminService) GetUser(userID string) (*domain.User, error) {
	user, err := s.store.GetUserByID(userID)
	if err != nil {
		return nil, ErrAdminUserNotFound
	}
	return user, nil
}

// UpdateUserInput 更新用户的输入参数
type UpdateUserInput struct {
	UserID          string
	Role            *domain.UserRole
	IsActive        *bool
	IsEmailVerified *bool
	OperatorID      string // 操作者ID
}

// UpdateUser 更新用户信息（需要管理员权限）
func (s *AdminService) UpdateUser(input UpdateUserInput) (*domain.User, error) {
	// 不能修改自己
	if input.UserID == input.OperatorID {
		return nil, ErrCannotModifySelf
	}

	// 获取目标用户
	user, err := s.store.GetUserByID(input.UserID)
	if err != nil {
		return nil, ErrAdminUserNotFound
	}

	// 获取操作者
	operator, err := s.store.GetUserByID(input.OperatorID)
	if err != nil {
		return nil, ErrUnauthorized
	}

	// 不能修改超级管理员（除非自己也是超级管理员）
	if user.Role == domain.RoleSuper && operator.Role != domain.RoleSuper {
		return nil, ErrCannotModifySuper
	}

	// 更新字段
	if input.Role != nil {
		// 只有超级管理员才能设置角色
		if operator.Role != domain.RoleSuper {
			return nil, ErrInsufficientPermission
		}
		user.Role = *input.Role
	}

	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}

	if input.IsEmailVerified != nil {
		user.IsEmailVerified = *input.IsEmailVerified
	}

	if err := s.store.UpdateUser(user); err != nil {
		return nil, err
	}

	return user, nil
}

// GetStatistics 获取平台运营统计信息（需要管理员权限）
//
// 统计需要全表扫描，结果会短暂缓存。
func (s *AdminService) GetStatistics() (*domain.SystemStatistics, error) {
	if s.statsCache != nil {
		if stats, err := s.statsCache.GetCachedStatistics(); err == nil {
			return stats, nil
		}
	}

	stats, err := s.store.GetSystemStatistics()
	if err != nil {
		return nil, err
	}

	if s.statsCache != nil {
		_ = s.statsCache.CacheStatistics(stats)
	}

	return stats, nil
}
