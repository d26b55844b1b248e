// Package app 负责应用的组装与生命周期管理：启动服务器、处理退出信号并有序释放资源。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wyfcoding/simplex/server"
)

const shutdownTimeout = 10 * time.Second

// App 是应用程序的核心容器。
type App struct {
	name      string
	logger    *slog.Logger
	opts      options
	lifecycle *Lifecycle
}

// New 创建一个新的应用程序实例。
func New(name string, logger *slog.Logger, opts ...Option) *App {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	lc := NewLifecycle(logger)
	for _, h := range o.hooks {
		lc.Append(h)
	}

	return &App{
		name:      name,
		logger:    logger,
		opts:      o,
		lifecycle: lc,
	}
}

// Healthy 依次执行已注册的健康检查，返回第一个错误。
func (a *App) Healthy() error {
	for _, check := range a.opts.healthCheckers {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

// Run 启动应用并阻塞，直到收到 SIGINT/SIGTERM 或任一服务器异常退出。
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext 与 Run 相同，但由调用方的 ctx 控制退出。
func (a *App) RunContext(ctx context.Context) error {
	a.logger.Info("Application starting...", "name", a.name, "pid", os.Getpid())

	if err := a.lifecycle.Start(ctx); err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(err, a.lifecycle.Stop(stopCtx))
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(a.opts.servers))
	for _, srv := range a.opts.servers {
		go func(s server.Server) {
			if err := s.Start(runCtx); err != nil {
				a.logger.Error("server failed", "error", err)
				errCh <- err
				cancel()
			}
		}(srv)
	}

	<-runCtx.Done()
	a.logger.Info("shutting down application", "name", a.name)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	for _, srv := range a.opts.servers {
		if err := srv.Stop(shutdownCtx); err != nil {
			a.logger.Error("server failed to stop", "error", err)
			errs = append(errs, err)
		}
	}
	if err := a.lifecycle.Stop(shutdownCtx); err != nil {
		errs = append(errs, err)
	}

	select {
	case err := <-errCh:
		errs = append(errs, err)
	default:
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	a.logger.Info("application shut down gracefully")
	return nil
}
