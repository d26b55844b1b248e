package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/simplex/cache"
	"github.com/wyfcoding/simplex/config"
	"github.com/wyfcoding/simplex/health"
	"github.com/wyfcoding/simplex/idgen"
	"github.com/wyfcoding/simplex/limiter"
	"github.com/wyfcoding/simplex/logging"
	"github.com/wyfcoding/simplex/metrics"
	"github.com/wyfcoding/simplex/middleware"
	"github.com/wyfcoding/simplex/redis"
	"github.com/wyfcoding/simplex/response"
	"github.com/wyfcoding/simplex/server"
	"github.com/wyfcoding/simplex/solve"
	"github.com/wyfcoding/simplex/tracing"
)

const (
	defaultMetricsPath = "/metrics"
	healthPath         = "/sys/health"
	rateLimitPrefix    = "simplex:ratelimit"
)

// Builder 按 配置 → 日志 → 追踪 → 指标 → 数据源 → 求解服务 → 服务器 的顺序组装 App。
type Builder struct {
	serviceName    string
	configPath     string
	cfg            *config.Config
	appOpts        []Option
	healthCheckers []health.Named
	ginMiddleware  []gin.HandlerFunc

	logger  *logging.Logger
	metrics *metrics.Metrics
	redis   redis.Client
	limiter *limiter.DynamicLimiter
	service *solve.Service
	engine  *gin.Engine
}

// NewBuilder 创建一个新的应用构建器，默认配置路径为 ./configs/{serviceName}/config.toml。
func NewBuilder(serviceName string) *Builder {
	return &Builder{
		serviceName: serviceName,
		configPath:  fmt.Sprintf("./configs/%s/config.toml", serviceName),
	}
}

// WithConfigPath 指定配置文件路径，文件变化时自动热更新。
func (b *Builder) WithConfigPath(path string) *Builder {
	if path != "" {
		b.configPath = path
	}
	return b
}

// WithConfig 直接使用给定配置，不读取文件也不监听变化。
func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg = cfg
	return b
}

// WithHealthChecker 添加自定义健康检查.
func (b *Builder) WithHealthChecker(name string, checker health.Checker) *Builder {
	b.healthCheckers = append(b.healthCheckers, health.Named{Name: name, Check: checker})
	return b
}

// WithGinMiddleware 添加在内置中间件之后执行的 Gin 中间件.
func (b *Builder) WithGinMiddleware(mw ...gin.HandlerFunc) *Builder {
	b.ginMiddleware = append(b.ginMiddleware, mw...)
	return b
}

// Engine 返回 Build 生成的 Gin 引擎，Build 之前为 nil。
func (b *Builder) Engine() *gin.Engine {
	return b.engine
}

// Service 返回 Build 生成的求解服务，Build 之前为 nil。
func (b *Builder) Service() *solve.Service {
	return b.service
}

// Build 构建并组装完整的 App 实例.
func (b *Builder) Build() (*App, error) {
	cfg, err := b.loadConfig()
	if err != nil {
		return nil, err
	}

	b.initLogger(cfg)
	defer logging.LogDuration(context.Background(), "app build", "service", b.serviceName)()
	config.PrintWithMask(cfg)

	if err := idgen.Init(cfg.Snowflake); err != nil {
		return nil, fmt.Errorf("failed to init id generator: %w", err)
	}

	var pre []gin.HandlerFunc
	if cfg.Tracing.Enabled {
		if b.initTracing(cfg) {
			pre = append(pre, middleware.TracingMiddleware(b.serviceName))
		}
	}

	b.initMetrics(cfg)

	if err := b.initRedis(cfg); err != nil {
		return nil, err
	}

	reportCache, err := b.initCache(cfg)
	if err != nil {
		return nil, err
	}

	b.initRateLimiter(cfg.RateLimit)

	opts := []solve.Option{solve.WithMetrics(b.metrics), solve.WithLogger(b.logger)}
	if reportCache != nil {
		opts = append(opts, solve.WithCache(reportCache, cfg.Cache.Prefix, cfg.Cache.DefaultExpiration))
	}
	b.service = solve.NewService(cfg.Solver, opts...)

	config.RegisterReloadHook(func(c *config.Config) {
		b.service.UpdateLimits(c.Solver)
		b.applyRateLimit(c.RateLimit)
		b.logger.Info("solver limits and rate limit reloaded")
	})

	b.engine = b.buildEngine(cfg, pre)
	b.appOpts = append(b.appOpts, WithServer(server.NewGinServer(b.engine, cfg.Server, b.logger.Logger)))

	for _, checker := range b.healthCheckers {
		b.appOpts = append(b.appOpts, WithHealthChecker(checker.Check))
	}

	return New(b.serviceName, b.logger.Logger, b.appOpts...), nil
}

func (b *Builder) loadConfig() (*config.Config, error) {
	if b.cfg != nil {
		return b.cfg, nil
	}
	cfg := &config.Config{}
	if err := config.Load(b.configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	b.cfg = cfg
	return cfg, nil
}

func (b *Builder) initLogger(cfg *config.Config) {
	b.logger = logging.NewFromConfig(&logging.Config{
		Service:    b.serviceName,
		Module:     "app",
		Level:      cfg.Log.Level,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	logging.SetDefault(b.logger)
}

func (b *Builder) initTracing(cfg *config.Config) bool {
	shutdown, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		b.logger.Error("failed to initialize tracer", "error", err)
		return false
	}

	b.appOpts = append(b.appOpts, WithHook(Hook{Name: "tracer", OnStop: shutdown}))
	return true
}

func (b *Builder) initMetrics(cfg *config.Config) {
	b.metrics = metrics.NewMetrics(b.serviceName)
	b.metrics.RegisterBuildInfo(b.serviceName, cfg.Version)

	if cfg.Metrics.Enabled && cfg.Metrics.Port != "" {
		b.appOpts = append(b.appOpts, WithCleanup("metrics-exporter", b.metrics.ExposeHTTP(cfg.Metrics.Port)))
	}
}

func (b *Builder) initRedis(cfg *config.Config) error {
	if len(cfg.Data.Redis.Addrs) == 0 {
		return nil
	}

	client, cleanup, err := redis.NewClient(&cfg.Data.Redis, b.metrics, b.logger)
	if err != nil {
		return err
	}
	b.redis = client
	b.appOpts = append(b.appOpts, WithCleanup("redis", cleanup))
	b.healthCheckers = append(b.healthCheckers, health.Named{Name: "redis", Check: health.RedisChecker(client)})
	return nil
}

// initCache 组装报告缓存：本地 BigCache 为 L1，配置了 Redis 时以其为 L2。
func (b *Builder) initCache(cfg *config.Config) (*cache.MultiLevelCache, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}

	l1, err := cache.NewBigCache(cfg.Data.BigCache)
	if err != nil {
		return nil, err
	}

	var l2 cache.Cache
	if b.redis != nil {
		// 客户端由 redis 钩子统一关闭
		l2 = cache.NewRedisCache(b.redis, nil, cfg.Cache.Prefix)
	}

	mc := cache.NewMultiLevelCache(l1, l2, b.logger)
	b.appOpts = append(b.appOpts, WithHook(Hook{
		Name:   "report-cache",
		OnStop: func(context.Context) error { return mc.Close() },
	}))
	return mc, nil
}

func (b *Builder) initRateLimiter(cfg config.RateLimitConfig) {
	b.limiter = limiter.NewDynamicLimiter(nil)
	b.applyRateLimit(cfg)
}

func (b *Builder) applyRateLimit(cfg config.RateLimitConfig) {
	switch {
	case !cfg.Enabled || cfg.Rate <= 0:
		b.limiter.Update(nil)
	case cfg.Backend == "redis" && b.redis != nil:
		window := cfg.Window
		if window <= 0 {
			window = time.Second
		}
		b.limiter.Update(limiter.NewRedisLimiter(b.redis, rateLimitPrefix, cfg.Rate, window, idgen.GenIDString))
	default:
		b.limiter.UpdateLocal(cfg.Rate, cfg.Burst)
	}
}

func (b *Builder) buildEngine(cfg *config.Config, pre []gin.HandlerFunc) *gin.Engine {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = defaultMetricsPath
	}

	mws := append(pre,
		middleware.RequestID(),
		middleware.Recovery(b.logger.Logger),
		middleware.Logger(b.logger.Logger, cfg.Log.SlowThreshold),
		middleware.HTTPMetricsMiddlewareWithOptions(b.metrics, middleware.MetricsOptions{
			SlowThreshold: cfg.Log.SlowThreshold,
			SkipPaths:     []string{healthPath, metricsPath},
		}),
		middleware.HTTPRequestSizeMiddleware(b.metrics),
		middleware.MaxBodyBytes(cfg.Server.HTTP.MaxBodyBytes),
		middleware.TimeoutMiddleware(cfg.Server.HTTP.Timeout),
		middleware.RateLimitMiddleware(b.limiter, b.metrics),
	)
	mws = append(mws, b.ginMiddleware...)

	engine := server.NewDefaultGinEngine(cfg.Server.Environment, mws...)
	b.registerAdminRoutes(engine, cfg, metricsPath)
	solve.NewHandler(b.service, b.logger).Register(engine)

	return engine
}

func (b *Builder) registerAdminRoutes(engine *gin.Engine, cfg *config.Config, metricsPath string) {
	engine.GET(healthPath, func(c *gin.Context) {
		status, checks := health.Run(b.healthCheckers)
		body := gin.H{
			"status":    status,
			"service":   b.serviceName,
			"version":   cfg.Version,
			"checks":    checks,
			"timestamp": time.Now().Unix(),
		}
		if status != health.StatusUp {
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		response.SuccessWithRawData(c, body)
	})

	if cfg.Metrics.Enabled && cfg.Metrics.Port == "" {
		engine.GET(metricsPath, gin.WrapH(b.metrics.Handler()))
	}
}
