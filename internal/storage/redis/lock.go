package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/transport"
)

// ErrLockTimeout 等待串口锁超时
var ErrLockTimeout = errors.New("device lock wait timeout")

// 只有持有者才能释放
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// DeviceLock 基于 SET NX PX 的串口独占锁，多个进程共用一个串口时使用。
// TTL 应大于一次交互的最长耗时，持有者崩溃后锁自动过期。
type DeviceLock struct {
	rdb           redis.UniversalClient
	key           string
	ttl           time.Duration
	wait          time.Duration
	retryInterval time.Duration
	logger        *zap.Logger
}

// NewDeviceLock 创建锁
func NewDeviceLock(rdb redis.UniversalClient, key string, ttl, wait, retryInterval time.Duration, logger *zap.Logger) *DeviceLock {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retryInterval <= 0 {
		retryInterval = 50 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeviceLock{rdb: rdb, key: key, ttl: ttl, wait: wait, retryInterval: retryInterval, logger: logger}
}

// Acquire 获取锁，等待最长 wait；实现 transport.Locker
func (l *DeviceLock) Acquire(ctx context.Context) (transport.Release, error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return func() { l.release(token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, l.key)
		}

		timer := time.NewTimer(l.retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *DeviceLock) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n, err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Int()
	if err != nil {
		l.logger.Warn("release device lock failed", zap.String("key", l.key), zap.Error(err))
		return
	}
	if n == 0 {
		l.logger.Warn("device lock expired before release", zap.String("key", l.key))
	}
}
