package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/metrics"
	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
	"github.com/taoyao-code/monitorctl/internal/transport"
)

// Exchanger 一次请求/应答交互，transport.Session 实现该接口
type Exchanger interface {
	Exchange(ctx context.Context, dir dell.Direction, opcode byte, payload []byte) ([]byte, error)
}

// Controller 按属性名读写显示器
type Controller struct {
	ex       Exchanger
	reg      *property.Registry
	framing  dell.Framing
	logger   *zap.Logger
	metrics  *metrics.AppMetrics
	recorder Recorder
}

// Option 控制器选项
type Option func(*Controller)

// WithFraming 指定帧约定（默认取 Exchanger 的设置）
func WithFraming(f dell.Framing) Option {
	return func(c *Controller) { c.framing = f }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.AppMetrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithRecorder 写类操作的审计
func WithRecorder(r Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// New 创建控制器
func New(ex Exchanger, reg *property.Registry, opts ...Option) *Controller {
	c := &Controller{
		ex:      ex,
		reg:     reg,
		framing: dell.DefaultFraming,
		logger:  zap.NewNop(),
	}
	if f, ok := ex.(interface{ Framing() dell.Framing }); ok {
		c.framing = f.Framing()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry 属性表
func (c *Controller) Registry() *property.Registry { return c.reg }

// Get 读取属性当前值
func (c *Controller) Get(ctx context.Context, name string) (v property.Value, err error) {
	defer func() { c.observe("get", name, err) }()

	d, err := c.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	return c.get(ctx, d)
}

func (c *Controller) get(ctx context.Context, d *property.Descriptor) (property.Value, error) {
	if err := property.AssertDirection(d, dell.Read); err != nil {
		return nil, err
	}
	data, err := c.exchange(ctx, dell.Read, d.Opcode, d.ReadPayload())
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", d.Name, err)
	}
	return d.Decode(data)
}

// Set 写入属性值；值域校验在任何 I/O 之前完成
func (c *Controller) Set(ctx context.Context, name string, v property.Value) (err error) {
	var d *property.Descriptor
	defer func() { c.audit(ctx, "set", name, d, v, err) }()

	d, err = c.reg.Resolve(name)
	if err != nil {
		return err
	}
	return c.set(ctx, d, v)
}

func (c *Controller) set(ctx context.Context, d *property.Descriptor, v property.Value) error {
	if err := property.AssertDirection(d, dell.Write); err != nil {
		return err
	}
	data, err := d.Encode(v)
	if err != nil {
		return err
	}
	if _, err := c.exchange(ctx, dell.Write, d.Opcode, d.WritePayload(data)); err != nil {
		return fmt.Errorf("set %s: %w", d.Name, err)
	}
	return nil
}

// SetText 解析文本值后写入，返回解析得到的值
func (c *Controller) SetText(ctx context.Context, name, text string) (v property.Value, err error) {
	var d *property.Descriptor
	defer func() { c.audit(ctx, "set", name, d, text, err) }()

	d, err = c.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	if err = property.AssertDirection(d, dell.Write); err != nil {
		return nil, err
	}
	v, err = d.Codec.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	if err = c.set(ctx, d, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Step 相对调整：读取当前值，按排序策略取下一个值并写入。
// 有界整数越界时不写入，返回原值。
func (c *Controller) Step(ctx context.Context, name string, step property.Step) (v property.Value, err error) {
	var d *property.Descriptor
	defer func() { c.audit(ctx, "step_"+step.String(), name, d, v, err) }()

	d, err = c.reg.Resolve(name)
	if err != nil {
		return nil, err
	}
	if d.Policy == property.PolicyNone {
		return nil, fmt.Errorf("%w: %s cannot be stepped", property.ErrUnsupportedCommand, d.Name)
	}
	current, err := c.get(ctx, d)
	if err != nil {
		return nil, err
	}
	next, ok, err := d.Next(current, step)
	if err != nil {
		return nil, err
	}
	if !ok {
		c.logger.Debug("step out of range, value kept",
			zap.String("property", d.Name), zap.Any("value", current))
		return current, nil
	}
	if err := c.set(ctx, d, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Invoke 执行无数据的动作命令（复位类）
func (c *Controller) Invoke(ctx context.Context, name string) (err error) {
	var d *property.Descriptor
	defer func() { c.audit(ctx, "action", name, d, nil, err) }()

	d, err = c.reg.Resolve(name)
	if err != nil {
		return err
	}
	if !d.Action() {
		return fmt.Errorf("%w: %s is not an action", property.ErrUnsupportedCommand, d.Name)
	}
	return c.set(ctx, d, nil)
}

// Query 原始命令：不经属性表，返回校验后的应答数据
func (c *Controller) Query(ctx context.Context, dir dell.Direction, opcode byte, payload []byte) ([]byte, error) {
	return c.exchange(ctx, dir, opcode, payload)
}

// Reading 一个属性的读取结果
type Reading struct {
	Descriptor *property.Descriptor
	Value      property.Value
	Err        error
}

// Text 值的文本形式
func (r Reading) Text() string {
	if r.Err != nil {
		return ""
	}
	return r.Descriptor.Codec.Format(r.Value)
}

// ReadAll 依次读取所有可读属性，单个属性失败不影响其余；串口不可用时立即返回
func (c *Controller) ReadAll(ctx context.Context) ([]Reading, error) {
	var out []Reading
	for _, d := range c.reg.All() {
		if !d.Access.Allows(dell.Read) {
			continue
		}
		v, err := c.get(ctx, d)
		c.observe("get", d.Name, err)
		if errors.Is(err, transport.ErrTransportUnavailable) || ctx.Err() != nil {
			return out, err
		}
		out = append(out, Reading{Descriptor: d, Value: v, Err: err})
	}
	return out, nil
}

// exchange 一次交互并完整校验应答
func (c *Controller) exchange(ctx context.Context, dir dell.Direction, opcode byte, payload []byte) ([]byte, error) {
	raw, err := c.ex.Exchange(ctx, dir, opcode, payload)
	if err != nil {
		return nil, err
	}
	data, err := c.framing.ParseReply(opcode, raw)
	if err != nil {
		c.logger.Debug("reply rejected",
			zap.String("opcode", fmt.Sprintf("0x%02X", opcode)),
			zap.Binary("raw", raw),
			zap.Error(err))
		return nil, err
	}
	return data, nil
}

func (c *Controller) observe(op, name string, err error) {
	if c.metrics == nil {
		return
	}
	if _, rerr := c.reg.Resolve(name); rerr == nil {
		name = property.NormalizeName(name)
	} else {
		name = "unknown"
	}
	c.metrics.PropertyOpsTotal.WithLabelValues(op, name, Kind(err)).Inc()
}

func (c *Controller) audit(ctx context.Context, op, name string, d *property.Descriptor, v property.Value, err error) {
	c.observe(op, name, err)
	if err != nil {
		c.logger.Warn("property operation failed",
			zap.String("op", op), zap.String("property", name), zap.String("kind", Kind(err)), zap.Error(err))
	}
	if c.recorder == nil {
		return
	}
	e := AuditEntry{
		RequestID: RequestID(ctx),
		Property:  name,
		Op:        op,
		Result:    Kind(err),
		At:        time.Now(),
	}
	if d != nil {
		e.Property = d.Name
		if v != nil {
			if s, ok := v.(string); ok {
				e.Value = s
			} else {
				e.Value = d.Codec.Format(v)
			}
		}
	}
	if err != nil {
		e.Error = err.Error()
	}
	// 审计失败不影响操作结果
	if rerr := c.recorder.Record(context.WithoutCancel(ctx), e); rerr != nil {
		c.logger.Warn("audit record failed", zap.Error(rerr))
	}
}
