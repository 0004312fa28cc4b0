package health

import (
	"context"
	"time"
)

// Status 组件状态，按严重程度递增：healthy < degraded < unhealthy
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"  // Redis 锁或审计库异常，串口仍可控制
	StatusUnhealthy Status = "unhealthy" // 串口设备不可用
)

func (s Status) severity() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Worst 取更严重的状态；未知状态按 unhealthy 处理
func Worst(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

// CheckResult 单个组件的检查结果
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// Checker 由串口、Redis、数据库各自实现
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}
