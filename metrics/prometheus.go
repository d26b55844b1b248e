// Package metrics 封装 Prometheus 注册表及服务预定义指标：HTTP 请求、求解结果、缓存命中与限流。
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 封装了独立的 Prometheus 注册表及预定义的标准监控指标。
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal     *prometheus.CounterVec   // 维度: method, path, status
	HTTPRequestDuration   *prometheus.HistogramVec // 维度: method, path
	HTTPInFlight          *prometheus.GaugeVec     // 维度: method, path
	HTTPSlowRequestsTotal *prometheus.CounterVec   // 维度: method, path
	HTTPRequestSizeBytes  *prometheus.HistogramVec // 按需注册
	RateLimitedTotal      *prometheus.CounterVec   // 维度: path

	SolvesTotal     *prometheus.CounterVec   // 维度: direction, outcome
	SolveIterations *prometheus.HistogramVec // 维度: direction
	SolveDuration   *prometheus.HistogramVec // 维度: direction
	CacheRequests   *prometheus.CounterVec   // 维度: result (hit/miss)

	RedisOps      *prometheus.CounterVec   // 按需注册，维度: command, status
	RedisDuration *prometheus.HistogramVec // 按需注册，维度: command

	BuildInfo *prometheus.GaugeVec
}

// NewMetrics 初始化并返回一个新的指标采集器，自动注册 Go 运行时指标和进程指标。
func NewMetrics(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.HTTPRequestsTotal = m.NewCounterVec(&prometheus.CounterOpts{
		Name: "http_server_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	m.HTTPRequestDuration = m.NewHistogramVec(&prometheus.HistogramOpts{
		Name:    "http_server_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.HTTPInFlight = m.NewGaugeVec(&prometheus.GaugeOpts{
		Name: "http_server_requests_in_flight",
		Help: "HTTP requests currently being served",
	}, []string{"method", "path"})

	m.HTTPSlowRequestsTotal = m.NewCounterVec(&prometheus.CounterOpts{
		Name: "http_server_slow_requests_total",
		Help: "HTTP requests slower than the configured threshold",
	}, []string{"method", "path"})

	m.RateLimitedTotal = m.NewCounterVec(&prometheus.CounterOpts{
		Name: "http_server_rate_limited_total",
		Help: "HTTP requests rejected by the rate limiter",
	}, []string{"path"})

	m.SolvesTotal = m.NewCounterVec(&prometheus.CounterOpts{
		Name: "simplex_solves_total",
		Help: "Linear programs solved, by direction and outcome",
	}, []string{"direction", "outcome"})

	m.SolveIterations = m.NewHistogramVec(&prometheus.HistogramOpts{
		Name:    "simplex_solve_iterations",
		Help:    "Pivot iterations needed to reach the optimal tableau",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"direction"})

	m.SolveDuration = m.NewHistogramVec(&prometheus.HistogramOpts{
		Name:    "simplex_solve_duration_seconds",
		Help:    "Wall time of a single solve",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"direction"})

	m.CacheRequests = m.NewCounterVec(&prometheus.CounterOpts{
		Name: "simplex_report_cache_requests_total",
		Help: "Report cache lookups by result",
	}, []string{"result"})

	slog.Info("unified metrics registry initialized", "service", serviceName)
	return m
}

// Registry 返回内部注册表，供测试与自定义采集器使用。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// NewCounterVec 创建并注册一个新的计数器指标。
func (m *Metrics) NewCounterVec(opts *prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(*opts, labelNames)
	m.registry.MustRegister(cv)
	return cv
}

// NewGaugeVec 创建并注册一个新的仪表盘指标。
func (m *Metrics) NewGaugeVec(opts *prometheus.GaugeOpts, labelNames []string) *prometheus.GaugeVec {
	gv := prometheus.NewGaugeVec(*opts, labelNames)
	m.registry.MustRegister(gv)
	return gv
}

// NewHistogramVec 创建并注册一个新的直方图指标。
func (m *Metrics) NewHistogramVec(opts *prometheus.HistogramOpts, labelNames []string) *prometheus.HistogramVec {
	hv := prometheus.NewHistogramVec(*opts, labelNames)
	m.registry.MustRegister(hv)
	return hv
}

// ObserveSolve 记录一次求解的结果、迭代次数与耗时。迭代次数仅在成功时记录。
func (m *Metrics) ObserveSolve(direction, outcome string, iterations int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SolvesTotal.WithLabelValues(direction, outcome).Inc()
	m.SolveDuration.WithLabelValues(direction).Observe(elapsed.Seconds())
	if outcome == "optimal" {
		m.SolveIterations.WithLabelValues(direction).Observe(float64(iterations))
	}
}

// ObserveCache 记录一次缓存查询。
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

// Handler 返回用于暴露指标的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ExposeHTTP 在指定端口启动独立的 HTTP 服务器暴露指标，返回优雅关闭函数。
func (m *Metrics) ExposeHTTP(port string) func() {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown metrics server", "error", err)
		}
	}
}
