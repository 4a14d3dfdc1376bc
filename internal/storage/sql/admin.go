package sql

import (
	"time"

	"renthub/backend/internal/domain"
)

// ========== Admin Repository ==========

// ListUsers 列出用户（支持分页和过滤）
func (s *Store) ListUsers(page, pageSize int, search string, role *domain.UserRole, isActive *bool) ([]domain.User, int, error) {
	query := s.gorm.Model(&domain.User{})

	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("email LIKE ? OR username LIKE ?", pattern, pattern)
	}
	if role != nil {
		query = query.Where("role = ?", *role)
	}
	if isActive != nil {
		query = query.Where("is_active = ?", *isActive)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	users := make([]domain.User, 0)
	err := query.
		Order("created_at ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}

	return users, int(total), nil
}

// GetSystemStatistics 获取系统统计信息
func (s *Store) GetSystemStatistics() (*domain.SystemStatistics, error) {
	stats := &domain.SystemStatistics{
		UsersByRole: make(map[domain.UserRole]int),
		GeneratedAt: time.Now().UTC(),
	}

	var total int64

	if err := s.gorm.Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalUsers = int(total)

	if err := s.gorm.Model(&domain.User{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.ActiveUsers = int(total)

	// 按角色统计用户
	type roleCount struct {
		Role  domain.UserRole
		Count int64
	}
	roleCounts := make([]roleCount, 0)
	if err := s.gorm.Model(&domain.User{}).
		Select("role, COUNT(*) as count").
		Group("role").
		Scan(&roleCounts).Error; err != nil {
		return nil, err
	}
	for _, rc := range roleCounts {
		stats.UsersByRole[rc.Role] = int(rc.Count)
	}

	if err := s.gorm.Model(&domain.Listing{}).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalListings = int(total)

	if err := s.gorm.Model(&domain.Listing{}).Where("is_published = ?", true).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.PublishedListings = int(total)

	if err := s.gorm.Model(&domain.Message{}).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.TotalMessages = int(total)

	if err := s.gorm.Model(&domain.Message{}).Where("is_read = ?", false).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.UnreadMessages = int(total)

	today := time.Now().UTC().Truncate(24 * time.Hour)
	if err := s.gorm.Model(&domain.Message{}).Where("created_at >= ?", today).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.MessagesToday = int(total)

	return stats, nil
}
