package hybrid

import (
	"fmt"
	"time"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
	"renthub/backend/internal/storage/redis"
	"renthub/backend/internal/storage/sql"
)

// 缓存有效期
const (
	userCacheTTL    = 30 * time.Minute
	listingCacheTTL = 10 * time.Minute
)

// Store 混合存储实现，结合 SQL 数据库和 Redis
//
// 数据以 SQL 为准；用户与房源详情走 cache-aside，
// 会话、JWT 黑名单与限流计数只存 Redis。
// 站内信不走对象缓存：列表排序敏感，未读角标缓存由业务层单独维护。
type Store struct {
	db    *sql.Store
	cache *redis.Cache
}

// NewStore 创建混合存储实例
func NewStore(db *sql.Store, cache *redis.Cache) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sql store is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("redis cache is required")
	}
	return &Store{db: db, cache: cache}, nil
}

// Cache 返回底层的 Redis 缓存，供业务层复用（未读角标等）。
func (s *Store) Cache() *redis.Cache {
	return s.cache
}

// ========== Message Repository ==========

// SaveMessage 保存站内信
func (s *Store) SaveMessage(message *domain.Message) error {
	return s.db.SaveMessage(message)
}

// GetMessage 获取单条站内信
func (s *Store) GetMessage(id string) (*domain.Message, error) {
	return s.db.GetMessage(id)
}

// ListMessagesBetween 返回两个用户之间的全部站内信，按创建时间升序
func (s *Store) ListMessagesBetween(userA, userB string) ([]domain.Message, error) {
	return s.db.ListMessagesBetween(userA, userB)
}

// ListMessagesInvolving 返回某个用户收发的全部站内信，按创建时间降序
func (s *Store) ListMessagesInvolving(userID string) ([]domain.Message, error) {
	return s.db.ListMessagesInvolving(userID)
}

// MarkMessageRead 将站内信标记为已读
func (s *Store) MarkMessageRead(id string) error {
	return s.db.MarkMessageRead(id)
}

// MarkConversationRead 批量标记会话已读，返回更新条数
func (s *Store) MarkConversationRead(recipientID, senderID string) (int, error) {
	return s.db.MarkConversationRead(recipientID, senderID)
}

// CountUnreadMessages 统计未读站内信总数
func (s *Store) CountUnreadMessages(recipientID string) (int, error) {
	return s.db.CountUnreadMessages(recipientID)
}

// ========== User Repository ==========

// CreateUser 创建新用户
func (s *Store) CreateUser(user *domain.User) error {
	if err := s.db.CreateUser(user); err != nil {
		return err
	}

	// 缓存失败不影响主流程
	_ = s.cache.CacheUser(user, userCacheTTL)
	return nil
}

// GetUserByID 根据ID获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	// 先尝试从 Redis 获取
	if user, err := s.cache.GetCachedUser(id); err == nil {
		return user, nil
	}

	user, err := s.db.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	_ = s.cache.CacheUser(user, userCacheTTL)
	return user, nil
}

// GetUserByEmail 根据邮箱获取用户（邮箱查询不缓存）
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	return s.db.GetUserByEmail(email)
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	return s.db.GetUserByUsername(username)
}

// UpdateUser 更新用户信息
func (s *Store) UpdateUser(user *domain.User) error {
	if err := s.db.UpdateUser(user); err != nil {
		return err
	}

	// 更新后删除缓存，下次读取回源
	_ = s.cache.DeleteCachedUser(user.ID)
	return nil
}

// UpdateLastLogin 更新用户最后登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	if err := s.db.UpdateLastLogin(userID); err != nil {
		return err
	}

	_ = s.cache.DeleteCachedUser(userID)
	return nil
}

// ========== Listing Repository ==========

// SaveListing 保存房源信息
func (s *Store) SaveListing(listing *domain.Listing) error {
	if err := s.db.SaveListing(listing); err != nil {
		return err
	}

	_ = s.cache.DeleteCachedListing(listing.ID)
	return nil
}

// GetListing 根据 ID 获取房源
func (s *Store) GetListing(id string) (*domain.Listing, error) {
	if listing, err := s.cache.GetCachedListing(id); err == nil {
		return listing, nil
	}

	listing, err := s.db.GetListing(id)
	if err != nil {
		return nil, err
	}

	_ = s.cache.CacheListing(listing, listingCacheTTL)
	return listing, nil
}

// ListListings 按筛选条件分页返回房源（列表查询不缓存）
func (s *Store) ListListings(filter domain.ListingFilter) ([]domain.Listing, int, error) {
	return s.db.ListListings(filter)
}

// DeleteListing 删除房源及其图片元数据
func (s *Store) DeleteListing(id string) error {
	if err := s.db.DeleteListing(id); err != nil {
		return err
	}

	_ = s.cache.DeleteCachedListing(id)
	return nil
}

// SaveListingImage 保存房源图片元数据
func (s *Store) SaveListingImage(image *domain.ListingImage) error {
	return s.db.SaveListingImage(image)
}

// GetListingImage 获取单张图片元数据
func (s *Store) GetListingImage(imageID string) (*domain.ListingImage, error) {
	return s.db.GetListingImage(imageID)
}

// ListListingImages 列出某个房源的全部图片元数据
func (s *Store) ListListingImages(listingID string) ([]domain.ListingImage, error) {
	return s.db.ListListingImages(listingID)
}

// DeleteListingImage 删除图片元数据
func (s *Store) DeleteListingImage(imageID string) error {
	return s.db.DeleteListingImage(imageID)
}

// ========== Admin Repository ==========

// ListUsers 列出用户（支持分页和过滤）
func (s *Store) ListUsers(page, pageSize int, search string, role *domain.UserRole, isActive *bool) ([]domain.User, int, error) {
	return s.db.ListUsers(page, pageSize, search, role, isActive)
}

// GetSystemStatistics 获取系统统计信息
func (s *Store) GetSystemStatistics() (*domain.SystemStatistics, error) {
	return s.db.GetSystemStatistics()
}

// ========== JWT 黑名单 ==========

// AddToBlacklist 将 JWT 添加到黑名单
func (s *Store) AddToBlacklist(jti string, ttl time.Duration) error {
	return s.cache.AddToBlacklist(jti, ttl)
}

// IsBlacklisted 检查 JWT 是否在黑名单中
func (s *Store) IsBlacklisted(jti string) (bool, error) {
	return s.cache.IsBlacklisted(jti)
}

// ========== 限流 ==========

// IncrementRateLimit 增加限流计数
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	return s.cache.IncrementRateLimit(key, window)
}

// GetRateLimit 获取限流计数
func (s *Store) GetRateLimit(key string) (int64, error) {
	return s.cache.GetRateLimit(key)
}

// ========== 会话管理 ==========

// CacheSession 缓存用户会话
func (s *Store) CacheSession(sessionID string, userID string, ttl time.Duration) error {
	return s.cache.CacheSession(sessionID, userID, ttl)
}

// GetCachedSession 获取缓存的会话
func (s *Store) GetCachedSession(sessionID string) (string, error) {
	return s.cache.GetCachedSession(sessionID)
}

// DeleteCachedSession 删除缓存的会话
func (s *Store) DeleteCachedSession(sessionID string) error {
	return s.cache.DeleteCachedSession(sessionID)
}

// ========== 工具方法 ==========

// Close 关闭数据库与 Redis 连接
func (s *Store) Close() error {
	dbErr := s.db.Close()
	cacheErr := s.cache.Close()
	if dbErr != nil {
		return dbErr
	}
	return cacheErr
}

// Health 检查存储健康状态
func (s *Store) Health() error {
	if err := s.db.Health(); err != nil {
		return err
	}
	return s.cache.Health()
}

// 编译期校验
var _ storage.Store = (*Store)(nil)
