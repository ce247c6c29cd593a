// Package cache wraps an optional redis client. Every method is a no-op on a
// nil *Cache, so callers never need to check whether redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultTTL = time.Hour
	opTimeout  = 2 * time.Second
)

type Cache struct {
	rc     *redis.Client
	logger *zap.Logger
}

// New 连接 redis，addr 为空时返回 nil（即关闭缓存）。
// 启动时的 Ping 失败只记录告警，后续读写按未命中处理。
func New(addr, password string, db int, logger *zap.Logger) *Cache {
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rc := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  opTimeout,
		WriteTimeout: opTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping failed", zap.String("addr", addr), zap.Error(err))
	}
	return &Cache{rc: rc, logger: logger}
}

// GetJSON 读取 key 并反序列化到 dst，返回是否命中。
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	b, err := c.rc.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		c.logger.Warn("cache decode failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores v as JSON; ttl <= 0 uses the default of one hour.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	b, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.rc.Set(ctx, key, b, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes the given keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if err := c.rc.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// InvalidatePrefix 使用 SCAN 删除匹配前缀的 key，最多扫描 10 轮。
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var cursor uint64
	for i := 0; i < 10; i++ {
		keys, next, err := c.rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			c.logger.Warn("cache scan failed", zap.String("prefix", prefix), zap.Error(err))
			return
		}
		cursor = next
		if len(keys) > 0 {
			c.Delete(ctx, keys...)
		}
		if cursor == 0 {
			return
		}
	}
}

// Close releases the redis connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rc.Close()
}
