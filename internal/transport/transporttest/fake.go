// Package transporttest 提供串口替身：记录写入的帧，按脚本或模拟设备返回应答。
package transporttest

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/taoyao-code/monitorctl/internal/transport"
)

// Handler 根据收到的命令帧生成应答，返回 nil 表示不应答（超时）
type Handler func(frame []byte) []byte

// Opener 可编程的 transport.Opener
type Opener struct {
	mu sync.Mutex

	// Handler 非空时优先于脚本队列
	Handler Handler
	// OpenErr 非空时 Open 失败
	OpenErr error
	// ChunkSize 每次 Read 最多返回的字节数，0 表示一次返回全部
	ChunkSize int

	replies [][]byte
	frames  [][]byte
	opens   int
	closes  int
}

// NewOpener 按顺序返回 replies（每次交互一条）
func NewOpener(replies ...[]byte) *Opener {
	return &Opener{replies: replies}
}

// Push 追加脚本应答
func (o *Opener) Push(replies ...[]byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.replies = append(o.replies, replies...)
}

func (o *Opener) Open() (transport.Port, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.OpenErr != nil {
		return nil, o.OpenErr
	}
	o.opens++
	return &port{owner: o}, nil
}

// Writes 写入的帧数
func (o *Opener) Writes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.frames)
}

// Frames 写入的全部帧
func (o *Opener) Frames() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([][]byte, len(o.frames))
	copy(out, o.frames)
	return out
}

// LastFrame 最后一次写入的帧
func (o *Opener) LastFrame() []byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.frames) == 0 {
		return nil
	}
	return o.frames[len(o.frames)-1]
}

// Opens 打开次数
func (o *Opener) Opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.opens
}

// Closes 关闭次数
func (o *Opener) Closes() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes
}

func (o *Opener) record(frame []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.frames = append(o.frames, frame)
}

func (o *Opener) answer(frame []byte) []byte {
	o.mu.Lock()
	h := o.Handler
	if h == nil {
		defer o.mu.Unlock()
		if len(o.replies) == 0 {
			return nil
		}
		r := o.replies[0]
		o.replies = o.replies[1:]
		return r
	}
	o.mu.Unlock()
	return h(frame)
}

type port struct {
	owner   *Opener
	pending []byte
	inbox   []byte
	closed  bool
}

var errClosed = errors.New("port closed")

func (p *port) Write(b []byte) (int, error) {
	if p.closed {
		return 0, errClosed
	}
	p.pending = append(p.pending, b...)
	return len(b), nil
}

// Drain 视为帧已发出：记录并准备应答
func (p *port) Drain() error {
	if p.closed {
		return errClosed
	}
	if len(p.pending) == 0 {
		return nil
	}
	frame := p.pending
	p.pending = nil
	p.owner.record(frame)
	p.inbox = append(p.inbox, p.owner.answer(frame)...)
	return nil
}

// Read 无数据时模拟读超时：返回 0, nil
func (p *port) Read(b []byte) (int, error) {
	if p.closed {
		return 0, io.EOF
	}
	n := len(p.inbox)
	if c := p.owner.ChunkSize; c > 0 && n > c {
		n = c
	}
	n = copy(b, p.inbox[:n])
	p.inbox = p.inbox[n:]
	return n, nil
}

func (p *port) ResetInputBuffer() error {
	p.inbox = nil
	return nil
}

func (p *port) ResetOutputBuffer() error {
	p.pending = nil
	return nil
}

func (p *port) SetReadTimeout(time.Duration) error { return nil }

func (p *port) Close() error {
	if p.closed {
		return errClosed
	}
	p.closed = true
	p.owner.mu.Lock()
	p.owner.closes++
	p.owner.mu.Unlock()
	return nil
}
