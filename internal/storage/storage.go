package storage

import (
	"errors"
	"time"

	"renthub/backend/internal/domain"
)

var (
	// ErrMessageNotFound 消息不存在错误
	ErrMessageNotFound = errors.New("message not found")
	// ErrUserNotFound 用户不存在错误
	ErrUserNotFound = errors.New("user not found")
	// ErrListingNotFound 房源不存在错误
	ErrListingNotFound = errors.New("listing not found")
	// ErrImageNotFound 图片不存在错误
	ErrImageNotFound = errors.New("image not found")
	// ErrEmailExists 邮箱已被注册错误
	ErrEmailExists = errors.New("email already exists")
	// ErrUsernameExists 用户名已被占用错误
	ErrUsernameExists = errors.New("username already exists")
)

// MessageRepository 定义站内信数据存取操作。
//
// 排序约定是聚合正确性的前提：ListMessagesBetween 按创建时间升序，
// ListMessagesInvolving 按创建时间降序。
type MessageRepository interface {
	SaveMessage(message *domain.Message) error
	GetMessage(id string) (*domain.Message, error)
	ListMessagesBetween(userA, userB string) ([]domain.Message, error)
	ListMessagesInvolving(userID string) ([]domain.Message, error)
	MarkMessageRead(id string) error
	MarkConversationRead(recipientID, senderID string) (int, error) // 返回更新行数
	CountUnreadMessages(recipientID string) (int, error)
}

// UserRepository 定义用户数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.User) error
	GetUserByID(id string) (*domain.User, error)
	GetUserByEmail(email string) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	UpdateUser(user *domain.User) error
	UpdateLastLogin(userID string) error
}

// ListingRepository 定义房源数据存取操作。
type ListingRepository interface {
	SaveListing(listing *domain.Listing) error
	GetListing(id string) (*domain.Listing, error)
	ListListings(filter domain.ListingFilter) ([]domain.Listing, int, error)
	DeleteListing(id string) error
	SaveListingImage(image *domain.ListingImage) error
	GetListingImage(imageID string) (*domain.ListingImage, error)
	ListListingImages(listingID string) ([]domain.ListingImage, error)
	DeleteListingImage(imageID string) error
}

// AdminRepository 定义管理员数据存取操作。
type AdminRepository interface {
	ListUsers(page, pageSize int, search string, role *domain.UserRole, isActive *bool) ([]domain.User, int, error)
	GetSystemStatistics() (*domain.SystemStatistics, error)
}

// JWTRepository 定义 JWT 黑名单操作。
type JWTRepository interface {
	AddToBlacklist(jti string, ttl time.Duration) error
	IsBlacklisted(jti string) (bool, error)
}

// RateLimitRepository 定义限流操作。
type RateLimitRepository interface {
	IncrementRateLimit(key string, window time.Duration) (int64, error)
	GetRateLimit(key string) (int64, error)
}

// SessionRepository 定义会话管理操作。
type SessionRepository interface {
	CacheSession(sessionID string, userID string, ttl time.Duration) error
	GetCachedSession(sessionID string) (string, error)
	DeleteCachedSession(sessionID string) error
}

// Store 定义完整的存储接口。
type Store interface {
	MessageRepository
	UserRepository
	ListingRepository
	AdminRepository
	JWTRepository
	RateLimitRepository
	SessionRepository

	// 工具方法
	Close() error
	Health() error
}
