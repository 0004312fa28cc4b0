package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/monitorctl/internal/config"
	"github.com/taoyao-code/monitorctl/internal/httpserver"
)

// NewHTTPServer 根据配置创建 HTTP 服务器
func NewHTTPServer(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, readyFn func() bool, log *zap.Logger, register ...func(*gin.Engine)) *httpserver.Server {
	return httpserver.New(cfg, metricsPath, metricsHandler, readyFn, log, register...)
}
