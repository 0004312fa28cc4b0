package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/api/middleware"
	cfgpkg "github.com/taoyao-code/monitorctl/internal/config"
)

// RegisterControlRoutes 注册显示器控制路由
func RegisterControlRoutes(r gin.IRouter, h *ControlHandler, authCfg cfgpkg.AuthConfig, logger *zap.Logger) {
	if r == nil || h == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// API路由组(需要认证)
	api := r.Group("/api")
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	// 属性
	api.GET("/properties", h.ListProperties)
	api.GET("/properties/:name", h.GetProperty)
	api.PUT("/properties/:name", h.SetProperty)
	api.POST("/properties/:name/step", h.StepProperty)

	// 动作与原始命令
	api.POST("/actions/:name", h.InvokeAction)
	api.POST("/query", h.Query)
	api.GET("/scan", h.Scan)

	// 预设
	api.GET("/presets", h.ListPresets)
	api.POST("/presets/:name", h.ApplyPreset)

	// 审计
	api.GET("/audit", h.ListAudit)

	logger.Info("control routes registered", zap.Int("endpoints", 10))
}
