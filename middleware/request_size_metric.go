package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/simplex/metrics"
)

// HTTPRequestSizeMiddleware 记录请求体大小指标，首次使用时注册。
func HTTPRequestSizeMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	if m != nil {
		m.RegisterRequestSizeMetrics()
	}
	return func(c *gin.Context) {
		c.Next()

		if m == nil || c.Request.ContentLength <= 0 {
			return
		}
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		m.HTTPRequestSizeBytes.WithLabelValues(c.Request.Method, path).Observe(float64(c.Request.ContentLength))
	}
}
