package transport

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.bug.st/serial"
)

// ErrTransportUnavailable 串口无法打开（或无法取得独占访问）
var ErrTransportUnavailable = errors.New("transport unavailable")

// Port 一次会话使用的串口，go.bug.st/serial.Port 满足该接口
type Port interface {
	io.ReadWriteCloser
	ResetInputBuffer() error
	ResetOutputBuffer() error
	Drain() error
	SetReadTimeout(t time.Duration) error
}

// Opener 每次交互打开一个新的 Port
type Opener interface {
	Open() (Port, error)
}

// SerialOpener 打开本地串口设备
type SerialOpener struct {
	Device string
	Mode   *serial.Mode
}

// NewSerialOpener 默认 9600 8N1
func NewSerialOpener(device string, baud int) *SerialOpener {
	if baud <= 0 {
		baud = 9600
	}
	return &SerialOpener{
		Device: device,
		Mode: &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		},
	}
}

// Open 打开设备
func (o *SerialOpener) Open() (Port, error) {
	p, err := serial.Open(o.Device, o.Mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.Device, err)
	}
	return p, nil
}

// Present 设备节点是否存在（健康检查用，不打开端口）
func (o *SerialOpener) Present() (bool, error) {
	ports, err := serial.GetPortsList()
	if err == nil {
		for _, p := range ports {
			if p == o.Device {
				return true, nil
			}
		}
	}
	// /dev/serial/by-id 之类的符号链接不在枚举结果里
	target, lerr := filepath.EvalSymlinks(o.Device)
	if lerr != nil {
		if os.IsNotExist(lerr) {
			return false, nil
		}
		return false, lerr
	}
	if _, serr := os.Stat(target); serr != nil {
		return false, nil
	}
	return true, nil
}

func (o *SerialOpener) String() string { return o.Device }
