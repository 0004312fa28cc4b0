package property

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
)

// Registry 属性表：名称到描述的只读映射，构造后不可变，可并发读取
type Registry struct {
	byName map[string]*Descriptor
	order  []*Descriptor
}

// NewRegistry 构造属性表。
// 重名、(命令码, Selector) 重复、编码宽度与 DataLength 不符、策略与编码不匹配都视为编程错误。
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Descriptor, len(descs))}
	for i := range descs {
		d := descs[i]
		if err := validateDescriptor(&d); err != nil {
			return nil, err
		}
		key := NormalizeName(d.Name)
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("duplicate property name %q", d.Name)
		}
		for _, o := range r.order {
			if o.Opcode == d.Opcode && bytes.Equal(o.Selector, d.Selector) {
				return nil, fmt.Errorf("property %s reuses opcode 0x%02X of %s", d.Name, d.Opcode, o.Name)
			}
		}
		r.byName[key] = &d
		r.order = append(r.order, &d)
	}
	return r, nil
}

// MustRegistry 同 NewRegistry，出错时 panic（用于包级默认表）
func MustRegistry(descs ...Descriptor) *Registry {
	r, err := NewRegistry(descs...)
	if err != nil {
		panic(err)
	}
	return r
}

func validateDescriptor(d *Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("property with opcode 0x%02X has no name", d.Opcode)
	}
	if d.Codec == nil {
		return fmt.Errorf("property %s has no codec", d.Name)
	}
	if d.Access < ReadOnly || d.Access > ReadWrite {
		return fmt.Errorf("property %s: invalid access %s", d.Name, d.Access)
	}
	if w := d.Codec.Width(); w != d.DataLength {
		return fmt.Errorf("property %s: codec width %d, data length %d", d.Name, w, d.DataLength)
	}
	if e, ok := d.Codec.(*Enum); ok {
		if err := e.validate(); err != nil {
			return fmt.Errorf("property %s: %w", d.Name, err)
		}
	}
	switch d.Policy {
	case PolicyRange:
		if _, ok := d.Codec.(*Range); !ok {
			return fmt.Errorf("property %s: range policy needs an integer codec", d.Name)
		}
	case PolicyCycle:
		if _, ok := d.Codec.(*Enum); !ok {
			return fmt.Errorf("property %s: cycle policy needs an enum codec", d.Name)
		}
	}
	if d.Policy != PolicyNone && d.Access != ReadWrite {
		return fmt.Errorf("property %s: stepping needs read and write", d.Name)
	}
	return nil
}

// NormalizeName 属性名规范化：小写，'-' 与空格视为 '_'
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("-", "_", " ", "_").Replace(name)
}

// Resolve 按名称查找属性，未知名称返回 ErrUnsupportedCommand
func (r *Registry) Resolve(name string) (*Descriptor, error) {
	d, ok := r.byName[NormalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: unknown property %q", ErrUnsupportedCommand, name)
	}
	return d, nil
}

// All 按注册顺序返回全部属性
func (r *Registry) All() []*Descriptor {
	return append([]*Descriptor(nil), r.order...)
}

// Groups 分组名（排序）
func (r *Registry) Groups() []string {
	seen := map[string]bool{}
	var out []string
	for _, d := range r.order {
		if d.Group != "" && !seen[d.Group] {
			seen[d.Group] = true
			out = append(out, d.Group)
		}
	}
	sort.Strings(out)
	return out
}

// ByOpcode 查找命令码对应的全部属性（带 Selector 的命令可能有多个）
func (r *Registry) ByOpcode(op byte) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.order {
		if d.Opcode == op {
			out = append(out, d)
		}
	}
	return out
}

// Lookup 按命令码与请求数据定位属性（用于模拟设备与扫描结果标注）
func (r *Registry) Lookup(op byte, data []byte) (*Descriptor, bool) {
	for _, d := range r.order {
		if d.Opcode == op && bytes.HasPrefix(data, d.Selector) {
			return d, true
		}
	}
	return nil, false
}

// Supports 属性是否存在且支持 dir 方向
func (r *Registry) Supports(name string, dir dell.Direction) bool {
	d, err := r.Resolve(name)
	if err != nil {
		return false
	}
	return d.Access.Allows(dir)
}
