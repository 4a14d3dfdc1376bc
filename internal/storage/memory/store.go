package memory

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"renthub/backend/internal/domain"
	"renthub/backend/internal/storage"
)

// Store 使用内存保存用户、房源与站内信数据，主要用于开发验证和测试。
type Store struct {
	mu         sync.RWMutex
	users      map[string]*domain.User    // userID -> user
	byEmail    map[string]string          // email -> userID
	byUsername map[string]string          // username -> userID
	listings   map[string]*domain.Listing // listingID -> listing
	images     map[string]*domain.ListingImage
	messages   map[string]*domain.Message // messageID -> message

	// 速率限制相关
	rateLimits        map[string]*rateLimitEntry
	rateLimitsCleanup time.Time // 下次清理过期速率限制的时间
}

// rateLimitEntry 速率限制条目
type rateLimitEntry struct {
	Count     int64
	ExpiresAt time.Time
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		users:             make(map[string]*domain.User),
		byEmail:           make(map[string]string),
		byUsername:        make(map[string]string),
		listings:          make(map[string]*domain.Listing),
		images:            make(map[string]*domain.ListingImage),
		messages:          make(map[string]*domain.Message),
		rateLimits:        make(map[string]*rateLimitEntry),
		rateLimitsCleanup: time.Now().Add(5 * time.Minute),
	}
}

// ========== Message Repository ==========

// SaveMessage 保存站内信。
func (s *Store) SaveMessage(message *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message.ID == "" {
		return errors.New("message ID is required")
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	s.messages[message.ID] = message
	return nil
}

// GetMessage 获取单条站内信。
func (s *Store) GetMessage(id string) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}

	return msg, nil
}

// ListMessagesBetween 返回两个用户之间的全部站内信，按创建时间升序。
func (s *Store) ListMessagesBetween(userA, userB string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Message, 0)
	for _, msg := range s.messages {
		if (msg.SenderID == userA && msg.RecipientID == userB) ||
			(msg.SenderID == userB && msg.RecipientID == userA) {
			result = append(result, *msg)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// ListMessagesInvolving 返回某个用户收发的全部站内信，按创建时间降序。
func (s *Store) ListMessagesInvolving(userID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Message, 0)
	for _, msg := range s.messages {
		if msg.SenderID == userID || msg.RecipientID == userID {
			result = append(result, *msg)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// MarkMessageRead 将站内信标记为已读。重复标记不报错。
func (s *Store) MarkMessageRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return storage.ErrMessageNotFound
	}

	msg.IsRead = true
	return nil
}

// MarkConversationRead 将某个发信人发给收信人的全部未读站内信标记为已读，返回更新条数。
func (s *Store) MarkConversationRead(recipientID, senderID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, msg := range s.messages {
		if msg.RecipientID == recipientID && msg.SenderID == senderID && !msg.IsRead {
			msg.IsRead = true
			count++
		}
	}

	return count, nil
}

// CountUnreadMessages 统计某个收信人的未读站内信总数。
func (s *Store) CountUnreadMessages(recipientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, msg := range s.messages {
		if msg.RecipientID == recipientID && !msg.IsRead {
			count++
		}
	}

	return count, nil
}

// ========== User Repository ==========

// CreateUser 创建新用户
func (s *Store) CreateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 检查邮箱是否已存在
	if _, exists := s.byEmail[user.Email]; exists {
		return storage.ErrEmailExists
	}

	// 检查用户名是否已存在（用户名不区分大小写）
	if user.Username != "" {
		if _, exists := s.byUsername[strings.ToLower(user.Username)]; exists {
			return storage.ErrUsernameExists
		}
	}

	if user.ID == "" {
		return errors.New("user ID is required")
	}

	// 如果时间戳为零值，则设置为当前时间
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	if user.Username != "" {
		s.byUsername[strings.ToLower(user.Username)] = user.ID
	}

	return nil
}

// GetUserByID 根据ID获取用户
func (s *Store) GetUserByID(id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	return user, nil
}

// GetUserByEmail 根据邮箱获取用户
func (s *Store) GetUserByEmail(email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	user, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	return user, nil
}

// GetUserByUsername 根据用户名获取用户
func (s *Store) GetUserByUsername(username string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byUsername[strings.ToLower(username)]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	user, ok := s.users[userID]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	return user, nil
}

// UpdateUser 更新用户信息
func (s *Store) UpdateUser(user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return storage.ErrUserNotFound
	}

	user.UpdatedAt = time.Now().UTC()
	oldUsername := ""
	for username, id := range s.byUsername {
		if id == user.ID {
			oldUsername = username
			break
		}
	}

	newUsername := strings.ToLower(user.Username)
	if oldUsername != newUsername {
		// 先查冲突再动索引，失败时不留下半更新状态
		if newUsername != "" {
			if _, exists := s.byUsername[newUsername]; exists {
				return storage.ErrUsernameExists
			}
		}
		delete(s.byUsername, oldUsername)
	}

	s.users[user.ID] = user
	if newUsername != "" {
		s.byUsername[newUsername] = user.ID
	}

	return nil
}

// UpdateLastLogin 更新用户最后登录时间
func (s *Store) UpdateLastLogin(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	user.UpdatedAt = now

	return nil
}

// DeleteUser 删除用户（测试用）
func (s *Store) DeleteUser(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return storage.ErrUserNotFound
	}

	delete(s.users, userID)
	delete(s.byEmail, user.Email)
	if user.Username != "" {
		delete(s.byUsername, strings.ToLower(user.Username))
	}

	return nil
}

// ========== Listing Repository ==========

// SaveListing 保存房源信息。已存在则覆盖。
func (s *Store) SaveListing(listing *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if listing.ID == "" {
		return errors.New("listing ID is required")
	}

	now := time.Now().UTC()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now

	s.listings[listing.ID] = listing
	return nil
}

// GetListing 根据 ID 获取房源。
func (s *Store) GetListing(id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	listing, ok := s.listings[id]
	if !ok {
		return nil, storage.ErrListingNotFound
	}

	return listing, nil
}

// ListListings 按筛选条件分页返回房源，按创建时间降序。
func (s *Store) ListListings(filter domain.ListingFilter) ([]domain.Listing, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]domain.Listing, 0)
	for _, listing := range s.listings {
		if filter.City != "" && !strings.EqualFold(listing.City, filter.City) {
			continue
		}
		if filter.OwnerID != "" && listing.OwnerID != filter.OwnerID {
			continue
		}
		if filter.PublishedOnly && !listing.IsPublished {
			continue
		}
		filtered = append(filtered, *listing)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)

	// 分页处理
	page := filter.Page
	pageSize := filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	return filtered[start:end], total, nil
}

// DeleteListing 删除房源及其图片元数据。
func (s *Store) DeleteListing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[id]; !ok {
		return storage.ErrListingNotFound
	}

	delete(s.listings, id)
	for imageID, img := range s.images {
		if img.ListingID == id {
			delete(s.images, imageID)
		}
	}

	return nil
}

// SaveListingImage 保存房源图片元数据。
func (s *Store) SaveListingImage(image *domain.ListingImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.listings[image.ListingID]; !ok {
		return storage.ErrListingNotFound
	}

	if image.CreatedAt.IsZero() {
		image.CreatedAt = time.Now().UTC()
	}

	s.images[image.ID] = image
	return nil
}

// GetListingImage 获取单张图片元数据。
func (s *Store) GetListingImage(imageID string) (*domain.ListingImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	img, ok := s.images[imageID]
	if !ok {
		return nil, storage.ErrImageNotFound
	}

	return img, nil
}

// ListListingImages 列出某个房源的全部图片元数据，按创建时间升序。
func (s *Store) ListListingImages(listingID string) ([]domain.ListingImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ListingImage, 0)
	for _, img := range s.images {
		if img.ListingID == listingID {
			result = append(result, *img)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}

// DeleteListingImage 删除图片元数据。
func (s *Store) DeleteListingImage(imageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.images[imageID]; !ok {
		return storage.ErrImageNotFound
	}

	delete(s.images, imageID)
	return nil
}

// ========== Admin Repository ==========

// ListUsers 列出用户（支持分页和过滤）
func (s *Store) ListUsers(page, pageSize int, search string, role *domain.UserRole, isActive *bool) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// 收集所有符合条件的用户
	filtered := make([]domain.User, 0)
	for _, user := range s.users {
		// 搜索过滤
		if search != "" {
			if !containsIgnoreCase(user.Email, search) && !containsIgnoreCase(user.Username, search) {
				continue
			}
		}

		// 角色过滤
		if role != nil && user.Role != *role {
			continue
		}

		// 激活状态过滤
		if isActive != nil && user.IsActive != *isActive {
			continue
		}

		filtered = append(filtered, *user)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	total := len(filtered)

	// 分页处理
	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	if start > total {
		start = total
	}

	return filtered[start:end], total, nil
}

// GetSystemStatistics 获取系统统计信息
func (s *Store) GetSystemStatistics() (*domain.SystemStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.SystemStatistics{
		TotalUsers:    len(s.users),
		TotalListings: len(s.listings),
		UsersByRole:   make(map[domain.UserRole]int),
		GeneratedAt:   time.Now().UTC(),
	}

	// 统计用户信息
	for _, user := range s.users {
		if user.IsActive {
			stats.ActiveUsers++
		}
		stats.UsersByRole[user.Role]++
	}

	// 统计房源信息
	for _, listing := range s.listings {
		if listing.IsPublished {
			stats.PublishedListings++
		}
	}

	// 统计站内信信息（CreatedAt 按 UTC 存，今天的边界也取 UTC）
	today := time.Now().UTC().Truncate(24 * time.Hour)
	for _, msg := range s.messages {
		stats.TotalMessages++
		if !msg.IsRead {
			stats.UnreadMessages++
		}
		if msg.CreatedAt.After(today) {
			stats.MessagesToday++
		}
	}

	return stats, nil
}

// containsIgnoreCase 不区分大小写的字符串包含检查
func containsIgnoreCase(s, substr string) bool {
	s = strings.ToLower(s)
	substr = strings.ToLower(substr)
	return strings.Contains(s, substr)
}

// ========== JWT 黑名单 ==========

// AddToBlacklist 将 JWT 添加到黑名单
func (s *Store) AddToBlacklist(jti string, ttl time.Duration) error {
	// 内存存储不支持 JWT 黑名单，返回错误
	return errors.New("JWT blacklist not supported in memory storage")
}

// IsBlacklisted 检查 JWT 是否在黑名单中
func (s *Store) IsBlacklisted(jti string) (bool, error) {
	// 内存存储不支持 JWT 黑名单，总是返回 false
	return false, nil
}

// ========== 限流 ==========

// IncrementRateLimit 增加限流计数
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	// 清理过期的速率限制条目（每5分钟清理一次）
	if now.After(s.rateLimitsCleanup) {
		for k, v := range s.rateLimits {
			if now.After(v.ExpiresAt) {
				delete(s.rateLimits, k)
			}
		}
		s.rateLimitsCleanup = now.Add(5 * time.Minute)
	}

	// 获取或创建速率限制条目
	entry, exists := s.rateLimits[key]
	if !exists || now.After(entry.ExpiresAt) {
		// 创建新条目
		entry = &rateLimitEntry{
			Count:     1,
			ExpiresAt: now.Add(window),
		}
		s.rateLimits[key] = entry
		return 1, nil
	}

	// 增加计数
	entry.Count++
	return entry.Count, nil
}

// GetRateLimit 获取限流计数
func (s *Store) GetRateLimit(key string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.rateLimits[key]
	if !exists || time.Now().After(entry.ExpiresAt) {
		return 0, nil
	}

	return entry.Count, nil
}

// ========== 会话管理 ==========

// CacheSession 缓存用户会话
func (s *Store) CacheSession(sessionID string, userID string, ttl time.Duration) error {
	// 内存存储不支持会话缓存，返回错误
	return errors.New("session caching not supported in memory storage")
}

// GetCachedSession 获取缓存的会话
func (s *Store) GetCachedSession(sessionID string) (string, error) {
	// 内存存储不支持会话缓存，返回错误
	return "", errors.New("session caching not supported in memory storage")
}

// DeleteCachedSession 删除缓存的会话
func (s *Store) DeleteCachedSession(sessionID string) error {
	// 内存存储不支持会话缓存，返回错误
	return errors.New("session caching not supported in memory storage")
}

// ========== 工具方法 ==========

// Close 关闭存储连接
func (s *Store) Close() error {
	// 内存存储不需要关闭连接
	return nil
}

// Health 健康检查
func (s *Store) Health() error {
	// 内存存储总是健康的
	return nil
}
