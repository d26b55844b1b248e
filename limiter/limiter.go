// Package limiter 提供了限流器的通用接口与多种后端实现：按 key 的本地令牌桶、
// 基于 Redis 有序集合的分布式滑动窗口、支持热更新的动态封装以及并发信号量。
package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter 接口定义了限流器的通用行为。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// LocalLimiter 为每个 key 维护一个独立的令牌桶，适用于单实例部署。
type LocalLimiter struct {
	buckets sync.Map // key -> *rate.Limiter
	r       rate.Limit
	b       int
}

// NewLocalLimiter 创建本地限流器。
// r: 每个 key 每秒生成的令牌数；b: 令牌桶容量（允许的突发请求数）。
func NewLocalLimiter(r rate.Limit, b int) *LocalLimiter {
	return &LocalLimiter{r: r, b: b}
}

// Allow 从 key 对应的令牌桶中取一个令牌，桶为空时返回 false。
func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	v, ok := l.buckets.Load(key)
	if !ok {
		v, _ = l.buckets.LoadOrStore(key, rate.NewLimiter(l.r, l.b))
	}
	return v.(*rate.Limiter).Allow(), nil
}

// slidingWindowLua 在单个脚本内完成清理、计数与写入，保证窗口判断的原子性。
const slidingWindowLua = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local start = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, 0, start)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, now - start)
	return 1
end
return 0
`

// RedisLimiter 基于 Redis ZSet 的分布式滑动窗口限流器，多实例共享限流状态。
type RedisLimiter struct {
	client redis.UniversalClient
	script *redis.Script
	prefix string
	limit  int
	window time.Duration
	seq    func() string
}

// NewRedisLimiter 创建分布式限流器。
// limit: 窗口内允许的最大请求数；window: 窗口长度；seq 为窗口内成员生成唯一后缀。
func NewRedisLimiter(client redis.UniversalClient, prefix string, limit int, window time.Duration, seq func() string) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		script: redis.NewScript(slidingWindowLua),
		prefix: prefix,
		limit:  limit,
		window: window,
		seq:    seq,
	}
}

// Allow 检查 key 在当前窗口内的请求数是否仍低于上限。
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	nowMs := now.UnixMilli()
	startMs := now.Add(-l.window).UnixMilli()

	member := now.Format(time.RFC3339Nano)
	if l.seq != nil {
		member += ":" + l.seq()
	}

	res, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, nowMs, startMs, l.limit, member).Int()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}
