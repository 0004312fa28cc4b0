package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/monitorctl/internal/config"
)

// Client 串口锁所在的 Redis 连接，同时持有锁配置
type Client struct {
	rdb    *redis.Client
	lock   cfgpkg.LockConfig
	logger *zap.Logger
}

// NewClient 连接 Redis 并 Ping 一次，失败时返回错误
func NewClient(ctx context.Context, cfg cfgpkg.RedisConfig, logger *zap.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, errors.New("redis is not enabled")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	return newClient(ctx, rdb, cfg.Lock, cfg.DialTimeout, logger)
}

func newClient(ctx context.Context, rdb *redis.Client, lock cfgpkg.LockConfig, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", rdb.Options().Addr, err)
	}
	return &Client{rdb: rdb, lock: lock, logger: logger}, nil
}

// DeviceLock 按配置创建串口锁
func (c *Client) DeviceLock() *DeviceLock {
	return NewDeviceLock(c.rdb, c.lock.Key, c.lock.TTL, c.lock.Wait, c.lock.RetryInterval, c.logger)
}

// LockKey 串口锁的键名
func (c *Client) LockKey() string { return c.lock.Key }

// LockHolder 当前持锁令牌，空闲时返回空串
func (c *Client) LockHolder(ctx context.Context) (string, error) {
	token, err := c.rdb.Get(ctx, c.lock.Key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return token, err
}

func (c *Client) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// HealthCheck Ping
func (c *Client) HealthCheck(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Stats 连接池统计
func (c *Client) Stats() *redis.PoolStats {
	return c.rdb.PoolStats()
}
