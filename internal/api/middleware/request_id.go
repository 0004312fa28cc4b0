package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/monitor"
)

const (
	// HeaderRequestID 请求 ID 头
	HeaderRequestID = "X-Request-ID"
	// ContextKeyRequestID gin.Context 中的请求 ID
	ContextKeyRequestID = "request_id"
	// ContextKeyAPIKey gin.Context 中脱敏后的 API Key
	ContextKeyAPIKey = "api_key"
)

// RequestID 透传或生成请求 ID，并放入 Request.Context 供审计使用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(monitor.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// AccessLog 请求日志
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(ContextKeyRequestID)),
			zap.String("remote_addr", c.ClientIP()),
		)
	}
}
