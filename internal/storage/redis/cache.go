package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"renthub/backend/internal/domain"
)

// statisticsCacheTTL 统计信息缓存有效期
const statisticsCacheTTL = time.Minute

// Cache Redis 缓存实现
//
// 承担四类职责：未读角标与热点数据缓存、JWT 黑名单、
// 接口限流计数、会话缓存。
type Cache struct {
	client *redis.Client
	ctx    context.Context
}

// NewCache 创建 Redis 缓存实例
func NewCache(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx := context.Background()

	// 测试连接
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Cache{
		client: client,
		ctx:    ctx,
	}, nil
}

// ========== 未读角标缓存 ==========

// CacheUnreadCount 缓存用户的未读站内信总数
func (c *Cache) CacheUnreadCount(userID string, count int, ttl time.Duration) error {
	key := fmt.Sprintf("unread:%s", userID)
	return c.client.Set(c.ctx, key, count, ttl).Err()
}

// GetCachedUnreadCount 获取缓存的未读总数
func (c *Cache) GetCachedUnreadCount(userID string) (int, error) {
	key := fmt.Sprintf("unread:%s", userID)
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("unread count not found in cache")
		}
		return 0, err
	}
	return strconv.Atoi(data)
}

// DeleteCachedUnreadCount 删除缓存的未读总数
func (c *Cache) DeleteCachedUnreadCount(userID string) error {
	key := fmt.Sprintf("unread:%s", userID)
	return c.client.Del(c.ctx, key).Err()
}

// ========== 用户缓存 ==========

// CacheUser 缓存用户信息
func (c *Cache) CacheUser(user *domain.User, ttl time.Duration) error {
	key := fmt.Sprintf("user:%s", user.ID)
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, ttl).Err()
}

// GetCachedUser 获取缓存的用户信息
func (c *Cache) GetCachedUser(userID string) (*domain.User, error) {
	key := fmt.Sprintf("user:%s", userID)
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("user not found in cache")
		}
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// DeleteCachedUser 删除缓存的用户信息
func (c *Cache) DeleteCachedUser(userID string) error {
	key := fmt.Sprintf("user:%s", userID)
	return c.client.Del(c.ctx, key).Err()
}

// ========== 房源缓存 ==========

// CacheListing 缓存房源信息
func (c *Cache) CacheListing(listing *domain.Listing, ttl time.Duration) error {
	key := fmt.Sprintf("listing:%s", listing.ID)
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, ttl).Err()
}

// GetCachedListing 获取缓存的房源信息
func (c *Cache) GetCachedListing(listingID string) (*domain.Listing, error) {
	key := fmt.Sprintf("listing:%s", listingID)
	data, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("listing not found in cache")
		}
		return nil, err
	}

	var listing domain.Listing
	if err := json.Unmarshal([]byte(data), &listing); err != nil {
		return nil, err
	}

	return &listing, nil
}

// DeleteCachedListing 删除缓存的房源信息
func (c *Cache) DeleteCachedListing(listingID string) error {
	key := fmt.Sprintf("listing:%s", listingID)
	return c.client.Del(c.ctx, key).Err()
}

// ========== 统计信息缓存 ==========

// CacheStatistics 缓存系统统计信息
func (c *Cache) CacheStatistics(stats *domain.SystemStatistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, "stats:system", data, statisticsCacheTTL).Err()
}

// GetCachedStatistics 获取缓存的系统统计信息
func (c *Cache) GetCachedStatistics() (*domain.SystemStatistics, error) {
	data, err := c.client.Get(c.ctx, "stats:system").Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("statistics not found in cache")
		}
		return nil, err
	}

	var stats domain.SystemStatistics
	if err := json.Unmarshal([]byte(data), &stats); err != nil {
		return nil, err
	}

	return &stats, nil
}

// ========== JWT 黑名单 ==========

// AddToBlacklist 将 JWT 添加到黑名单
func (c *Cache) AddToBlacklist(jti string, ttl time.Duration) error {
	key := fmt.Sprintf("jwt:blacklist:%s", jti)
	return c.client.Set(c.ctx, key, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT 是否在黑名单中
func (c *Cache) IsBlacklisted(jti string) (bool, error) {
	key := fmt.Sprintf("jwt:blacklist:%s", jti)
	count, err := c.client.Exists(c.ctx, key).Result()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ========== 限流 ==========

// IncrementRateLimit 增加限流计数，首次访问时设置窗口过期时间
func (c *Cache) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := c.client.Incr(c.ctx, redisKey).Result()
	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := c.client.Expire(c.ctx, redisKey, window).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}

// GetRateLimit 获取限流计数
func (c *Cache) GetRateLimit(key string) (int64, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)
	data, err := c.client.Get(c.ctx, redisKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, err
	}
	return strconv.ParseInt(data, 10, 64)
}

// ========== 会话管理 ==========

// CacheSession 缓存用户会话
func (c *Cache) CacheSession(sessionID string, userID string, ttl time.Duration) error {
	key := fmt.Sprintf("session:%s", sessionID)
	return c.client.Set(c.ctx, key, userID, ttl).Err()
}

// GetCachedSession 获取缓存的会话
func (c *Cache) GetCachedSession(sessionID string) (string, error) {
	key := fmt.Sprintf("session:%s", sessionID)
	userID, err := c.client.Get(c.ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("session not found in cache")
		}
		return "", err
	}
	return userID, nil
}

// DeleteCachedSession 删除缓存的会话
func (c *Cache) DeleteCachedSession(sessionID string) error {
	key := fmt.Sprintf("session:%s", sessionID)
	return c.client.Del(c.ctx, key).Err()
}

// ========== 工具方法 ==========

// Close 关闭 Redis 连接
func (c *Cache) Close() error {
	return c.client.Close()
}

// Health 检查 Redis 健康状态
func (c *Cache) Health() error {
	ctx, cancel := context.WithTimeout(c.ctx, 3*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}
