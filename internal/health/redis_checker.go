package health

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient 健康检查需要的 Redis 能力（storage/redis.Client 实现）
type RedisClient interface {
	HealthCheck(ctx context.Context) error
	Stats() *redis.PoolStats
	LockHolder(ctx context.Context) (string, error)
}

// RedisChecker Redis健康检查器。Redis 只承载串口锁，故障时降级而不是不可用：
// 本进程内的串口访问仍由互斥量保证
type RedisChecker struct {
	client RedisClient
}

// NewRedisChecker 创建Redis健康检查器
func NewRedisChecker(client RedisClient) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check 执行健康检查
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()

	// 1. Ping测试
	if err := c.client.HealthCheck(ctx); err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("ping failed: %v", err),
			Latency: time.Since(start),
		}
	}

	// 2. 获取连接池统计
	stats := c.client.Stats()

	// 3. 计算连接池利用率
	utilization := 0.0
	if stats.TotalConns > 0 {
		utilization = float64(stats.TotalConns-stats.IdleConns) / float64(stats.TotalConns)
	}

	// 4. 判断健康状态
	status := StatusHealthy
	message := "ok"

	if utilization > 0.9 {
		status = StatusDegraded
		message = "connection pool near limit"
	}

	if stats.Misses > stats.Hits && stats.Hits > 0 {
		// 连接池命中率低
		status = StatusDegraded
		message = "low connection pool hit rate"
	}

	details := map[string]any{
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
		"timeouts":    stats.Timeouts,
		"utilization": fmt.Sprintf("%.1f%%", utilization*100),
	}

	// 5. 串口锁占用情况
	switch holder, err := c.client.LockHolder(ctx); {
	case err != nil:
		status = StatusDegraded
		message = fmt.Sprintf("read serial lock: %v", err)
	case holder == "":
		details["serial_lock"] = "free"
	default:
		details["serial_lock"] = "held"
		details["serial_lock_holder"] = holder
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
