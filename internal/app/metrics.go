package app

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	cfgpkg "github.com/taoyao-code/monitorctl/internal/config"
	"github.com/taoyao-code/monitorctl/internal/metrics"
)

// NewMetrics 初始化串口与属性指标。
// 未启用时仍返回可用的 AppMetrics，但 handler 为 nil，不挂载 /metrics
func NewMetrics(cfg *cfgpkg.Config, version string) (*metrics.AppMetrics, http.Handler) {
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "monitorctl_build_info",
		Help: "Build version and the serial device this instance controls.",
	}, []string{"version", "device"})
	info.WithLabelValues(version, cfg.Serial.Device).Set(1)
	reg.MustRegister(info)

	if !cfg.Metrics.Enable {
		return appm, nil
	}
	return appm, metrics.Handler(reg)
}
