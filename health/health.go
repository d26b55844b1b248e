// Package health 提供依赖健康检查函数及其聚合。
package health

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

// Checker 定义健康检查函数原型。
type Checker func() error

// Named 是带名称的检查项。
type Named struct {
	Name  string
	Check Checker
}

// Result 是单个检查项的结果。
type Result struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RedisChecker 返回 Redis 健康检查函数。
func RedisChecker(client redis.UniversalClient) Checker {
	return func() error {
		if client == nil {
			return errors.New("redis client is nil")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx).Err()
	}
}

// Run 依次执行全部检查，任一失败时整体状态为 DOWN。
func Run(checks []Named) (string, []Result) {
	status := StatusUp
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		r := Result{Name: c.Name, Status: StatusUp}
		if err := c.Check(); err != nil {
			r.Status = StatusDown
			r.Error = err.Error()
			status = StatusDown
		}
		results = append(results, r)
	}
	return status, results
}
