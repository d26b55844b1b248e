package app

import (
	"context"

	"github.com/wyfcoding/simplex/health"
	"github.com/wyfcoding/simplex/server"
)

// Option 是用于配置 App 的函数式选项。
type Option func(*options)

type options struct {
	servers        []server.Server
	hooks          []Hook
	healthCheckers []health.Checker
}

// WithServer 添加需要随应用启停的服务器。
func WithServer(servers ...server.Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithHook 注册组件生命周期钩子，启动时按注册顺序执行，关闭时逆序执行。
func WithHook(hook Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hook)
	}
}

// WithCleanup 注册一个仅在关闭时执行的清理函数。
func WithCleanup(name string, cleanup func()) Option {
	return WithHook(Hook{
		Name: name,
		OnStop: func(context.Context) error {
			cleanup()
			return nil
		},
	})
}

// WithHealthChecker 注册一个健康检查函数。
func WithHealthChecker(checker health.Checker) Option {
	return func(o *options) {
		o.healthCheckers = append(o.healthCheckers, checker)
	}
}
