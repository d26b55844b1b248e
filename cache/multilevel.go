package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/wyfcoding/simplex/logging"
)

// MultiLevelCache 实现多级缓存 (L1: 本地, L2: 分布式)。l2 为 nil 时退化为单级缓存。
type MultiLevelCache struct {
	l1     Cache
	l2     Cache
	sf     singleflight.Group
	tracer trace.Tracer
	logger *logging.Logger
}

func NewMultiLevelCache(l1, l2 Cache, logger *logging.Logger) *MultiLevelCache {
	return &MultiLevelCache{
		l1:     l1,
		l2:     l2,
		tracer: otel.Tracer("github.com/wyfcoding/simplex/cache"),
		logger: logger,
	}
}

func (c *MultiLevelCache) Get(ctx context.Context, key string, value any) error {
	ctx, span := c.tracer.Start(ctx, "MultiLevelCache.Get", trace.WithAttributes(
		attribute.String("cache.key", key),
	))
	defer span.End()

	if err := c.l1.Get(ctx, key, value); err == nil {
		span.SetAttributes(attribute.String("cache.hit", "L1"))
		return nil
	}

	if c.l2 != nil {
		err := c.l2.Get(ctx, key, value)
		if err == nil {
			span.SetAttributes(attribute.String("cache.hit", "L2"))
			// 回填 L1
			if err := c.l1.Set(ctx, key, value, 0); err != nil {
				c.logger.ErrorContext(ctx, "failed to backfill L1 cache", "key", key, "error", err)
			}
			return nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.WarnContext(ctx, "L2 cache unavailable", "key", key, "error", err)
		}
	}

	span.SetAttributes(attribute.String("cache.hit", "miss"))
	return ErrCacheMiss
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	ctx, span := c.tracer.Start(ctx, "MultiLevelCache.Set", trace.WithAttributes(
		attribute.String("cache.key", key),
	))
	defer span.End()

	// 先写 L2
	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, value, expiration); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to set L2")
			return fmt.Errorf("failed to set L2: %w", err)
		}
	}

	if err := c.l1.Set(ctx, key, value, expiration); err != nil {
		c.logger.ErrorContext(ctx, "failed to set L1 cache", "key", key, "error", err)
	}
	return nil
}

// GetOrSet 未命中时调用 fn 回源并写回缓存。同一 key 的并发回源经 singleflight 合并为一次。
// 共享回源使用脱离取消信号的 ctx，单个调用方取消或超时只影响它自己的等待；
// fn 需自行设置执行时限。写回失败只记录日志，fn 的结果照常返回。
func (c *MultiLevelCache) GetOrSet(ctx context.Context, key string, value any, expiration time.Duration, fn func(ctx context.Context) (any, error)) (hit bool, err error) {
	if err := c.Get(ctx, key, value); err == nil {
		return true, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.sf.DoChan(key, func() (any, error) {
		v, err := fn(loadCtx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(loadCtx, key, v, expiration); err != nil {
			c.logger.WarnContext(loadCtx, "failed to populate cache", "key", key, "error", err)
		}
		return v, nil
	})

	var res any
	select {
	case r := <-ch:
		if r.Err != nil {
			return false, r.Err
		}
		res = r.Val
	case <-ctx.Done():
		return false, ctx.Err()
	}

	// 经 JSON 拷贝到调用方的指针，与缓存命中路径的语义一致
	data, err := json.Marshal(res)
	if err != nil {
		return false, err
	}
	return false, json.Unmarshal(data, value)
}

func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	if err := c.l1.Delete(ctx, keys...); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete from L1 cache", "keys", keys, "error", err)
	}
	if c.l2 == nil {
		return nil
	}
	return c.l2.Delete(ctx, keys...)
}

func (c *MultiLevelCache) Exists(ctx context.Context, key string) (bool, error) {
	exists, err := c.l1.Exists(ctx, key)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to check L1 cache existence", "key", key, "error", err)
	}
	if exists || c.l2 == nil {
		return exists, nil
	}
	return c.l2.Exists(ctx, key)
}

func (c *MultiLevelCache) Close() error {
	var err error
	if l1Err := c.l1.Close(); l1Err != nil {
		c.logger.Error("failed to close L1 cache", "error", l1Err)
		err = l1Err
	}
	if c.l2 != nil {
		if l2Err := c.l2.Close(); l2Err != nil {
			c.logger.Error("failed to close L2 cache", "error", l2Err)
			err = l2Err
		}
	}
	return err
}
