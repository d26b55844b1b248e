package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/simplex/contextx"
)

// Logger 访问日志中间件。耗时超过 slowThreshold 的请求以 warn 级别输出，0 表示不区分。
func Logger(logger *slog.Logger, slowThreshold time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)
		ctx := c.Request.Context()

		args := []any{
			"status", c.Writer.Status(),
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"cost", cost,
			"user_agent", c.Request.UserAgent(),
		}
		args = append(args, contextx.LogAttrs(ctx)...)
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		if slowThreshold > 0 && cost > slowThreshold {
			logger.WarnContext(ctx, "HTTP Slow Request", args...)
			return
		}
		logger.InfoContext(ctx, "HTTP Request", args...)
	}
}
