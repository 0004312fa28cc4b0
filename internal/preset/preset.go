package preset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
)

// ErrNotFound 预设不存在
var ErrNotFound = errors.New("preset not found")

// Step 一次写入：属性名与文本值（动作命令的值为空）
type Step struct {
	Property string `json:"property"`
	Value    string `json:"value"`
}

// UnmarshalYAML 每一步写作单键映射，如 `- brightness: 30`
func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return fmt.Errorf("line %d: preset step must be a single `property: value` pair", node.Line)
	}
	s.Property = node.Content[0].Value
	s.Value = node.Content[1].Value
	return nil
}

// MarshalYAML 与 UnmarshalYAML 对称
func (s Step) MarshalYAML() (any, error) {
	return map[string]string{s.Property: s.Value}, nil
}

// Preset 一组按顺序执行的写入
type Preset struct {
	Name        string `yaml:"-" json:"name"`
	Description string `yaml:"description" json:"description,omitempty"`
	Steps       []Step `yaml:"steps" json:"steps"`
}

// Book 预设集合
type Book struct {
	Presets map[string]*Preset `yaml:"presets"`
}

// Load 读取预设文件
func Load(path string) (*Book, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	return Parse(b)
}

// Parse 解析预设内容
func Parse(data []byte) (*Book, error) {
	var book Book
	if err := yaml.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("unmarshal presets: %w", err)
	}
	if book.Presets == nil {
		book.Presets = make(map[string]*Preset)
	}
	for name, p := range book.Presets {
		if p == nil {
			return nil, fmt.Errorf("preset %s is empty", name)
		}
		p.Name = name
	}
	return &book, nil
}

// Names 预设名（排序）
func (b *Book) Names() []string {
	names := make([]string, 0, len(b.Presets))
	for n := range b.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get 按名称取预设
func (b *Book) Get(name string) (*Preset, error) {
	p, ok := b.Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

// Validate 检查每一步的属性可写且值可解析并在值域内（不访问设备）
func (b *Book) Validate(reg *property.Registry) error {
	for _, name := range b.Names() {
		for i, s := range b.Presets[name].Steps {
			d, err := reg.Resolve(s.Property)
			if err == nil {
				err = property.AssertDirection(d, dell.Write)
			}
			if err == nil {
				var v property.Value
				if v, err = d.Codec.Parse(s.Value); err == nil {
					_, err = d.Encode(v)
				}
			}
			if err != nil {
				return fmt.Errorf("preset %s step %d: %w", name, i+1, err)
			}
		}
	}
	return nil
}

// Setter 按文本写入属性，monitor.Controller 实现该接口
type Setter interface {
	SetText(ctx context.Context, name, text string) (property.Value, error)
}

// Apply 依次执行预设，遇到第一个错误即停止，返回已成功的步数
func Apply(ctx context.Context, s Setter, p *Preset) (int, error) {
	for i, step := range p.Steps {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if _, err := s.SetText(ctx, step.Property, step.Value); err != nil {
			return i, fmt.Errorf("preset %s step %d (%s): %w", p.Name, i+1, step.Property, err)
		}
	}
	return len(p.Steps), nil
}
