// Package cache 提供求解报告的缓存抽象与实现：进程内 BigCache、带熔断的 Redis
// 以及组合两者的多级缓存。值统一以 JSON 编码存储。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// ErrCacheMiss 表示 key 不存在或已过期。
var ErrCacheMiss = errors.New("cache miss")

// Cache 定义缓存接口。
type Cache interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}

// RedisCache 使用 Redis 实现 Cache，所有命令经过熔断器。
type RedisCache struct {
	client  redis.UniversalClient
	cleanup func()
	prefix  string
	cb      *gobreaker.CircuitBreaker
}

// NewRedisCache 包装一个已连通的客户端。cleanup 在 Close 时调用，可为 nil。
func NewRedisCache(client redis.UniversalClient, cleanup func(), prefix string) *RedisCache {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "redis-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// 未命中不算失败
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss)
		},
	})

	return &RedisCache{
		client:  client,
		cleanup: cleanup,
		prefix:  prefix,
		cb:      cb,
	}
}

func (c *RedisCache) buildKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// Get 读取 key 并反序列化到 value 指针中。
func (c *RedisCache) Get(ctx context.Context, key string, value any) error {
	fullKey := c.buildKey(key)

	_, err := c.cb.Execute(func() (any, error) {
		data, err := c.client.Get(ctx, fullKey).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, ErrCacheMiss
			}
			return nil, err
		}
		return nil, json.Unmarshal(data, value)
	})

	return err
}

// Set 将 value 序列化为 JSON 后写入，expiration 为 0 表示不过期。
func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	fullKey := c.buildKey(key)
	_, err = c.cb.Execute(func() (any, error) {
		return nil, c.client.Set(ctx, fullKey, data, expiration).Err()
	})

	return err
}

// Delete 删除若干 key。
func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = c.buildKey(key)
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.client.Del(ctx, fullKeys...).Err()
	})

	return err
}

// Exists 检查 key 是否存在。
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	fullKey := c.buildKey(key)

	result, err := c.cb.Execute(func() (any, error) {
		n, err := c.client.Exists(ctx, fullKey).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// Close 释放底层客户端。
func (c *RedisCache) Close() error {
	if c.cleanup != nil {
		c.cleanup()
	}
	return nil
}

// State 返回熔断器当前状态。
func (c *RedisCache) State() gobreaker.State {
	return c.cb.State()
}
