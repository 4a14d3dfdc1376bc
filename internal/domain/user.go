package domain

import "time"

// UserRole 用户角色
type UserRole string

const (
	RoleUser  UserRole = "user"
	RoleAdmin UserRole = "admin"
	RoleSuper UserRole = "super" // 超级管理员
)

// User 表示注册用户的业务实体
type User struct {
	ID              string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email           string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Username        string     `json:"username,omitempty" gorm:"type:varchar(100)"`
	PasswordHash    string     `json:"-" gorm:"type:varchar(255)"` // 不返回给前端
	Role            UserRole   `json:"role" gorm:"type:varchar(20);default:'user';index"`
	Phone           string     `json:"phone,omitempty" gorm:"type:varchar(30)"`
	IsActive        bool       `json:"isActive" gorm:"default:true"`
	IsEmailVerified bool       `json:"isEmailVerified" gorm:"default:false"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty"`
}

// IsAdmin 判断用户是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuper
}

// IsSuper 判断用户是否为超级管理员
func (u *User) IsSuper() bool {
	return u.Role == RoleSuper
}

// DisplayName 返回用于展示的名称，优先使用用户名。
func (u *User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
