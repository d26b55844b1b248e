// Package redis 根据配置构建 go-redis 通用客户端，挂载命令级 Prometheus 指标。
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wyfcoding/simplex/config"
	"github.com/wyfcoding/simplex/logging"
	"github.com/wyfcoding/simplex/metrics"
)

// Client 是 redis.UniversalClient 的别名，单点、哨兵与集群共用同一接口。
type Client = redis.UniversalClient

type metricsHook struct {
	m *metrics.Metrics
}

func (h *metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		h.observe(cmd.Name(), err, time.Since(start))
		return err
	}
}

func (h *metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmds)
		h.observe("pipeline", err, time.Since(start))
		return err
	}
}

func (h *metricsHook) observe(command string, err error, elapsed time.Duration) {
	status := "success"
	if err != nil && !errors.Is(err, redis.Nil) {
		status = "error"
	}
	h.m.RedisOps.WithLabelValues(command, status).Inc()
	h.m.RedisDuration.WithLabelValues(command).Observe(elapsed.Seconds())
}

// NewClient 使用提供的配置创建 Redis 客户端并 Ping 验证连通性。
// m 为 nil 时不挂载指标钩子。返回客户端、清理函数和连接失败时的错误。
func NewClient(cfg *config.RedisConfig, m *metrics.Metrics, logger *logging.Logger) (Client, func(), error) {
	if len(cfg.Addrs) == 0 {
		return nil, nil, errors.New("redis addrs is empty")
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addrs,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if m != nil {
		m.RegisterRedisMetrics()
		client.AddHook(&metricsHook{m: m})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Successfully connected to Redis", "addrs", cfg.Addrs)

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close Redis client", "error", err)
		}
	}

	return client, cleanup, nil
}
