package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/monitorctl/internal/config"
	"github.com/taoyao-code/monitorctl/internal/metrics"
	"github.com/taoyao-code/monitorctl/internal/monitor"
	"github.com/taoyao-code/monitorctl/internal/preset"
	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
	"github.com/taoyao-code/monitorctl/internal/transport"
)

// SessionConfig 串口配置 -> 会话参数，未配置的项取默认值
func SessionConfig(cfg cfgpkg.SerialConfig) transport.Config {
	out := transport.DefaultConfig()
	if cfg.ReadTimeout > 0 {
		out.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.MaxRead > 0 {
		out.MaxRead = cfg.MaxRead
	}
	out.MinInterval = cfg.MinInterval
	out.Framing = dell.Framing{LengthIncludesChecksum: cfg.LengthIncludesChecksum}
	return out
}

// Device 控制器及其依赖
type Device struct {
	Opener     *transport.SerialOpener
	Session    *transport.Session
	Controller *monitor.Controller
}

// DeviceDeps 可选依赖
type DeviceDeps struct {
	Locker   transport.Locker
	Metrics  *metrics.AppMetrics
	Recorder monitor.Recorder
}

// NewDevice 组装串口 -> 会话 -> 控制器
func NewDevice(cfg cfgpkg.SerialConfig, deps DeviceDeps, log *zap.Logger) *Device {
	opener := transport.NewSerialOpener(cfg.Device, cfg.Baud)

	sessOpts := []transport.Option{transport.WithLogger(log)}
	if deps.Locker != nil {
		sessOpts = append(sessOpts, transport.WithLocker(deps.Locker))
	}
	if deps.Metrics != nil {
		sessOpts = append(sessOpts, transport.WithMetrics(deps.Metrics))
	}
	sess := transport.NewSession(opener, SessionConfig(cfg), sessOpts...)

	ctrlOpts := []monitor.Option{monitor.WithLogger(log)}
	if deps.Metrics != nil {
		ctrlOpts = append(ctrlOpts, monitor.WithMetrics(deps.Metrics))
	}
	if deps.Recorder != nil {
		ctrlOpts = append(ctrlOpts, monitor.WithRecorder(deps.Recorder))
	}
	ctrl := monitor.New(sess, property.DefaultTable(), ctrlOpts...)

	log.Info("serial device configured",
		zap.String("device", cfg.Device),
		zap.Int("baud", opener.Mode.BaudRate),
		zap.Bool("length_includes_checksum", cfg.LengthIncludesChecksum))
	return &Device{Opener: opener, Session: sess, Controller: ctrl}
}

// LoadPresets 加载并校验预设文件，path 为空时返回空集合
func LoadPresets(path string, reg *property.Registry, log *zap.Logger) (*preset.Book, error) {
	if path == "" {
		book, _ := preset.Parse(nil)
		return book, nil
	}
	book, err := preset.Load(path)
	if err != nil {
		return nil, err
	}
	if err := book.Validate(reg); err != nil {
		return nil, err
	}
	log.Info("presets loaded", zap.String("path", path), zap.Int("count", len(book.Presets)))
	return book, nil
}
