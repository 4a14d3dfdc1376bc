package sql

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

// ========== User Repository ==========

// CreateUser 创建新用户
func (s *Store) CreateUser(user *domain.User) error {
	err := s.gorm.Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return storage.ErrEmailExists
	}
	return err
}

// GetUserByID 根据ID获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	var user domain.User
	err := s.gorm.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	var user domain.User
	err := s.gorm.First(&user, "email = ?", email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	var user domain.User
	err := s.gorm.First(&user, "lower(username) = lower(?)", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUser 更新用户信息
func (s *Store) UpdateUser(user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	result := s.gorm.Model(&domain.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"email":             user.Email,
			"username":          user.Username,
			"password_hash":     user.PasswordHash,
			"role":              user.Role,
			"phone":             user.Phone,
			"is_active":         user.IsActive,
			"is_email_verified": user.IsEmailVerified,
			"updated_at":        user.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// MySQL 只报告被改变的行数，字段没变化的更新也会落到这里
		var count int64
		if err := s.gorm.Model(&domain.User{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return storage.ErrUserNotFound
		}
	}
	return nil
}

// UpdateLastLogin 更新用户最后登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	now := time.Now().UTC()
	return s.gorm.Model(&domain.User{}).
		Where("id = ?", userID).
		Update("last_login_at", now).Error
}
