package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/wyfcoding/simplex/limiter"
	"github.com/wyfcoding/simplex/metrics"
	"github.com/wyfcoding/simplex/response"
	"github.com/wyfcoding/simplex/xerrors"
)

// RateLimitMiddleware 构造一个通用的 Gin 限流中间件，以客户端 IP 作为限流标识。
// m 可为 nil。
func RateLimitMiddleware(l limiter.Limiter, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()

		allowed, err := l.Allow(c.Request.Context(), key)
		if err != nil {
			// Fail-Open：限流组件故障时不阻断业务。
			slog.ErrorContext(c.Request.Context(), "rate limiter internal error, fail-open applied", "key", key, "error", err)
			c.Next()
			return
		}

		if !allowed {
			slog.WarnContext(c.Request.Context(), "request rejected by rate limiter", "key", key, "path", c.Request.URL.Path)
			if m != nil {
				m.RateLimitedTotal.WithLabelValues(c.FullPath()).Inc()
			}
			response.Error(c, xerrors.LimitExceeded("too many requests").WithDetail("access rate limit exceeded"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// NewLocalRateLimitMiddleware 创建基于本地令牌桶的限流中间件。
// limit: 每秒允许的请求数；burst: 允许的突发请求数。
func NewLocalRateLimitMiddleware(limit, burst int, m *metrics.Metrics) gin.HandlerFunc {
	return RateLimitMiddleware(limiter.NewLocalLimiter(rate.Limit(limit), burst), m)
}
