package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	ExchangeTotal    *prometheus.CounterVec // labels: opcode, result=ok|empty|unavailable|io_error
	ExchangeDuration prometheus.Histogram
	ExchangeBytes    *prometheus.CounterVec // labels: direction=tx|rx
	PropertyOpsTotal *prometheus.CounterVec // labels: op, property, result
	LockWait         prometheus.Histogram
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg prometheus.Registerer) *AppMetrics {
	m := &AppMetrics{
		ExchangeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_exchange_total",
			Help: "Serial request/reply exchanges by opcode and outcome.",
		}, []string{"opcode", "result"}),
		ExchangeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_exchange_duration_seconds",
			Help:    "Time spent in one serial exchange, lock wait excluded.",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2},
		}),
		ExchangeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_exchange_bytes_total",
			Help: "Bytes written to and read from the serial line.",
		}, []string{"direction"}),
		PropertyOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_property_ops_total",
			Help: "Property operations by kind, property and result.",
		}, []string{"op", "property", "result"}),
		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_lock_wait_seconds",
			Help:    "Time spent waiting for exclusive access to the serial line.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.ExchangeTotal, m.ExchangeDuration, m.ExchangeBytes, m.PropertyOpsTotal, m.LockWait)
	return m
}
