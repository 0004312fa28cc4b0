package property

import (
	"fmt"

	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
)

// Access 属性支持的读写方向
type Access int

const (
	ReadOnly Access = iota + 1
	WriteOnly
	ReadWrite
)

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "ro"
	case WriteOnly:
		return "wo"
	case ReadWrite:
		return "rw"
	default:
		return fmt.Sprintf("access(%d)", int(a))
	}
}

// Allows 是否支持 dir 方向
func (a Access) Allows(dir dell.Direction) bool {
	switch dir {
	case dell.Read:
		return a == ReadOnly || a == ReadWrite
	case dell.Write:
		return a == WriteOnly || a == ReadWrite
	default:
		return false
	}
}

// Policy 相对调整（up/down）使用的排序策略
type Policy int

const (
	// PolicyNone 不支持相对调整
	PolicyNone Policy = iota
	// PolicyRange 有界整数：越界则保持原值
	PolicyRange
	// PolicyCycle 封闭枚举：越过两端时回绕
	PolicyCycle
)

func (p Policy) String() string {
	switch p {
	case PolicyRange:
		return "range"
	case PolicyCycle:
		return "cycle"
	default:
		return "none"
	}
}

// Descriptor 属性描述：名称 -> 命令码、读写方向、值编码
type Descriptor struct {
	Name   string
	Group  string
	Opcode byte
	// Selector 固定前缀，读写时都放在 data 之前（如 PxP 窗口号）
	Selector []byte
	Access   Access
	Codec    Codec
	// DataLength 编码后的值长度（不含 Selector），0 表示无数据或变长只读
	DataLength int
	Policy     Policy
}

// ReadPayload 读请求携带的数据
func (d *Descriptor) ReadPayload() []byte {
	if len(d.Selector) == 0 {
		return nil
	}
	return append([]byte(nil), d.Selector...)
}

// WritePayload 写请求携带的数据：Selector + 编码值
func (d *Descriptor) WritePayload(value []byte) []byte {
	if len(d.Selector) == 0 {
		return value
	}
	out := make([]byte, 0, len(d.Selector)+len(value))
	out = append(out, d.Selector...)
	return append(out, value...)
}

// Action 是否为无数据的动作命令（复位类）
func (d *Descriptor) Action() bool {
	_, ok := d.Codec.(None)
	return ok && d.Access == WriteOnly
}

// Encode 校验并编码写入值，值域外返回 ErrParameterOverRange
func (d *Descriptor) Encode(v Value) ([]byte, error) {
	b, err := d.Codec.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	return b, nil
}

// Decode 解码应答数据
func (d *Descriptor) Decode(data []byte) (Value, error) {
	v, err := d.Codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name, err)
	}
	return v, nil
}

// Next 按排序策略计算相对调整的候选值。
// ok 为 false 表示候选值越界（PolicyRange），调用方应保持原值。
func (d *Descriptor) Next(current Value, step Step) (next Value, ok bool, err error) {
	switch d.Policy {
	case PolicyRange:
		r, isRange := d.Codec.(*Range)
		if !isRange {
			return nil, false, fmt.Errorf("%s: range policy on %T", d.Name, d.Codec)
		}
		next, ok = r.Next(current, int(step))
		return next, ok, nil
	case PolicyCycle:
		e, isEnum := d.Codec.(*Enum)
		if !isEnum {
			return nil, false, fmt.Errorf("%s: cycle policy on %T", d.Name, d.Codec)
		}
		next, err = e.Cycle(current, int(step))
		return next, err == nil, err
	default:
		return nil, false, fmt.Errorf("%w: %s cannot be stepped", ErrUnsupportedCommand, d.Name)
	}
}

// AssertDirection 校验属性是否支持 dir 方向
func AssertDirection(d *Descriptor, dir dell.Direction) error {
	if !d.Access.Allows(dir) {
		return fmt.Errorf("%w: %s does not support %s", ErrUnsupportedCommand, d.Name, dir)
	}
	return nil
}
