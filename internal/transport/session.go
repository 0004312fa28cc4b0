package transport

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taoyao-code/monitorctl/internal/metrics"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
)

// Release 释放 Locker 获取的独占访问
type Release func()

// Locker 跨进程的串口独占（如 Redis 锁），进程内由 Session 自身的互斥量保证
type Locker interface {
	Acquire(ctx context.Context) (Release, error)
}

// Config 会话参数
type Config struct {
	// ReadTimeout 等待应答的总时长
	ReadTimeout time.Duration
	// MaxRead 单次应答读取上限
	MaxRead int
	// MinInterval 两次交互之间的最小间隔，0 表示不限
	MinInterval time.Duration
	Framing     dell.Framing
}

// DefaultConfig 默认参数：100ms 应答等待，最多读 64 字节
func DefaultConfig() Config {
	return Config{
		ReadTimeout: 100 * time.Millisecond,
		MaxRead:     dell.MaxReplySize,
		Framing:     dell.DefaultFraming,
	}
}

// Session 设备会话：一次请求对应一次打开-写入-读取-关闭，同一时刻只允许一个交互
type Session struct {
	opener  Opener
	cfg     Config
	mu      sync.Mutex
	locker  Locker
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.AppMetrics
}

// Option 会话选项
type Option func(*Session)

// WithLocker 设置跨进程锁
func WithLocker(l Locker) Option {
	return func(s *Session) { s.locker = l }
}

// WithLogger 设置日志
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.AppMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// NewSession 创建会话
func NewSession(opener Opener, cfg Config, opts ...Option) *Session {
	if cfg.MaxRead <= 0 || cfg.MaxRead > dell.MaxReplySize {
		cfg.MaxRead = dell.MaxReplySize
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultConfig().ReadTimeout
	}
	s := &Session{
		opener: opener,
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	if cfg.MinInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Framing 会话使用的帧格式
func (s *Session) Framing() dell.Framing { return s.cfg.Framing }

// Exchange 发送一帧命令并返回设备应答的原始字节（可能为空或不完整），不做解析，不重试。
func (s *Session) Exchange(ctx context.Context, dir dell.Direction, opcode byte, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	waitStart := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx)
		if err != nil {
			s.observe(opcode, "unavailable", 0, 0, 0)
			return nil, fmt.Errorf("%w: acquire lock: %w", ErrTransportUnavailable, err)
		}
		defer release()
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if s.metrics != nil {
		s.metrics.LockWait.Observe(time.Since(waitStart).Seconds())
	}

	frame := s.cfg.Framing.BuildCommand(dir, opcode, payload)
	start := time.Now()

	port, err := s.opener.Open()
	if err != nil {
		s.observe(opcode, "unavailable", 0, 0, 0)
		s.logger.Warn("open serial port failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransportUnavailable, err)
	}
	defer func() {
		if cerr := port.Close(); cerr != nil {
			s.logger.Debug("close serial port", zap.Error(cerr))
		}
	}()

	reply, err := s.roundTrip(port, frame)
	result := "ok"
	switch {
	case err != nil:
		result = "io_error"
	case len(reply) == 0:
		result = "empty"
	}
	s.observe(opcode, result, len(frame), len(reply), time.Since(start))

	s.logger.Debug("exchange",
		zap.String("dir", dir.String()),
		zap.String("opcode", fmt.Sprintf("0x%02X", opcode)),
		zap.String("tx", hex.EncodeToString(frame)),
		zap.String("rx", hex.EncodeToString(reply)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *Session) roundTrip(port Port, frame []byte) ([]byte, error) {
	if err := port.ResetOutputBuffer(); err != nil {
		return nil, fmt.Errorf("reset output buffer: %w", err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		return nil, fmt.Errorf("reset input buffer: %w", err)
	}
	for written := 0; written < len(frame); {
		n, err := port.Write(frame[written:])
		if err != nil {
			return nil, fmt.Errorf("write frame: %w", err)
		}
		if n == 0 {
			return nil, fmt.Errorf("write frame: %w", io.ErrShortWrite)
		}
		written += n
	}
	if err := port.Drain(); err != nil {
		return nil, fmt.Errorf("drain: %w", err)
	}
	return s.readReply(port)
}

// readReply 读到上限、超时无数据或已收到完整帧为止
func (s *Session) readReply(port Port) ([]byte, error) {
	buf := make([]byte, 0, s.cfg.MaxRead)
	chunk := make([]byte, s.cfg.MaxRead)
	deadline := time.Now().Add(s.cfg.ReadTimeout)

	for len(buf) < s.cfg.MaxRead {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			break
		}
		if err := port.SetReadTimeout(remaining); err != nil {
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
		n, err := port.Read(chunk[:s.cfg.MaxRead-len(buf)])
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read reply: %w", err)
		}
		if n == 0 || s.cfg.Framing.Complete(buf) {
			break
		}
	}
	return buf, nil
}

func (s *Session) observe(opcode byte, result string, tx, rx int, d time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.ExchangeTotal.WithLabelValues(fmt.Sprintf("0x%02X", opcode), result).Inc()
	if tx > 0 {
		s.metrics.ExchangeBytes.WithLabelValues("tx").Add(float64(tx))
	}
	if rx > 0 {
		s.metrics.ExchangeBytes.WithLabelValues("rx").Add(float64(rx))
	}
	if d > 0 {
		s.metrics.ExchangeDuration.Observe(d.Seconds())
	}
}
