package transporttest

import (
	"fmt"
	"sync"

	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
)

// Device 按属性表应答的模拟显示器。读取返回当前值（不含 Selector），写入解码后保存。
type Device struct {
	mu      sync.Mutex
	framing dell.Framing
	reg     *property.Registry
	values  map[string][]byte
	fail    map[byte]dell.ResultCode
	// Writes 收到的写命令（按属性名）
	Writes []string
}

// NewDevice 创建模拟设备，每个属性取值域内的默认值
func NewDevice(reg *property.Registry, framing dell.Framing) *Device {
	d := &Device{
		framing: framing,
		reg:     reg,
		values:  make(map[string][]byte),
		fail:    make(map[byte]dell.ResultCode),
	}
	for _, desc := range reg.All() {
		if v := initialValue(desc); v != nil {
			if data, err := desc.Codec.Encode(v); err == nil {
				d.values[desc.Name] = data
			}
		}
	}
	return d
}

func initialValue(desc *property.Descriptor) property.Value {
	switch c := desc.Codec.(type) {
	case *property.Range:
		return c.Min
	case *property.Enum:
		return c.Members()[0]
	case *property.RGBCodec:
		return property.RGB{Red: 50, Green: 50, Blue: 50}
	case *property.Flags:
		v, _ := c.Parse("")
		return v
	case property.Text:
		return "DELL P4317Q " + desc.Name
	default:
		return nil
	}
}

// Opener 以该设备作为应答方的 Opener
func (d *Device) Opener() *Opener {
	return &Opener{Handler: d.Handle}
}

// Set 直接设置属性值（测试准备）
func (d *Device) Set(name string, v property.Value) error {
	desc, err := d.reg.Resolve(name)
	if err != nil {
		return err
	}
	data, err := desc.Codec.Encode(v)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[desc.Name] = data
	return nil
}

// SetRaw 直接设置属性的原始字节（可用于构造值域外的数据）
func (d *Device) SetRaw(name string, data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.values[name] = append([]byte(nil), data...)
}

// Raw 属性当前的原始字节
func (d *Device) Raw(name string) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.values[name]...)
}

// Fail 让该命令码返回指定结果码
func (d *Device) Fail(opcode byte, code dell.ResultCode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[opcode] = code
}

// Handle 处理一帧命令
func (d *Device) Handle(frame []byte) []byte {
	cmd, err := d.framing.ParseCommand(frame)
	if err != nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if code, ok := d.fail[cmd.Opcode]; ok {
		return d.framing.BuildReply(code, cmd.Opcode, nil)
	}
	desc, ok := d.reg.Lookup(cmd.Opcode, cmd.Data)
	if !ok || !desc.Access.Allows(cmd.Dir) {
		return d.framing.BuildReply(dell.ResultParametersError, cmd.Opcode, nil)
	}
	value := cmd.Data[len(desc.Selector):]

	switch cmd.Dir {
	case dell.Read:
		return d.framing.BuildReply(dell.ResultSuccess, cmd.Opcode, d.values[desc.Name])
	case dell.Write:
		if !desc.Action() {
			if !d.accepts(desc, value) {
				return d.framing.BuildReply(dell.ResultParametersError, cmd.Opcode, nil)
			}
			d.values[desc.Name] = append([]byte(nil), value...)
		}
		d.Writes = append(d.Writes, desc.Name)
		return d.framing.BuildReply(dell.ResultSuccess, cmd.Opcode, nil)
	default:
		return d.framing.BuildReply(dell.ResultOtherFailure, cmd.Opcode, nil)
	}
}

// accepts 数据长度正确且解码后的值在值域内
func (d *Device) accepts(desc *property.Descriptor, value []byte) bool {
	if len(value) != desc.DataLength {
		return false
	}
	v, err := desc.Decode(value)
	if err != nil {
		return false
	}
	_, err = desc.Encode(v)
	return err == nil
}

func (d *Device) String() string {
	return fmt.Sprintf("simulated monitor (%d properties)", len(d.values))
}
