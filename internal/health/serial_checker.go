package health

import (
	"context"
	"fmt"
	"time"
)

// DevicePresence 串口设备节点探测（transport.SerialOpener 实现）
type DevicePresence interface {
	Present() (bool, error)
	String() string
}

// SerialChecker 串口健康检查器：只检查设备节点，不打开端口，避免与控制命令争用串口
type SerialChecker struct {
	device DevicePresence
}

// NewSerialChecker 创建串口健康检查器
func NewSerialChecker(device DevicePresence) *SerialChecker {
	return &SerialChecker{device: device}
}

// Name 返回检查器名称
func (c *SerialChecker) Name() string {
	return "serial"
}

// Check 执行健康检查
func (c *SerialChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	ok, err := c.device.Present()
	details := map[string]any{"device": c.device.String()}
	switch {
	case err != nil:
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: fmt.Sprintf("probe failed: %v", err),
			Details: details,
			Latency: time.Since(start),
		}
	case !ok:
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "device not present",
			Details: details,
			Latency: time.Since(start),
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: "ok",
		Details: details,
		Latency: time.Since(start),
	}
}
