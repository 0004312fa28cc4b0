package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/monitorctl/internal/monitor"
	"github.com/taoyao-code/monitorctl/internal/preset"
)

// statusFor 错误类别 -> HTTP 状态码
func statusFor(err error) int {
	if errors.Is(err, preset.ErrNotFound) {
		return http.StatusNotFound
	}
	switch monitor.Kind(err) {
	case monitor.KindUnsupported:
		return http.StatusNotFound
	case monitor.KindOverRange:
		return http.StatusUnprocessableEntity
	case monitor.KindTransportUnavailable:
		return http.StatusServiceUnavailable
	case monitor.KindCanceled:
		return http.StatusGatewayTimeout
	case monitor.KindInternal:
		return http.StatusInternalServerError
	default:
		// 设备应答异常：帧错误、结果码、值域外数据
		return http.StatusBadGateway
	}
}

// fail 统一错误响应
func fail(c *gin.Context, err error) {
	failWith(c, statusFor(err), monitor.Kind(err), err.Error())
}

func failWith(c *gin.Context, code int, kind, msg string) {
	c.AbortWithStatusJSON(code, gin.H{
		"error":      kind,
		"message":    msg,
		"request_id": monitor.RequestID(c.Request.Context()),
	})
}
