package property

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value 属性值：uint32 / Member / RGB / FlagSet / string / []byte / nil
type Value any

// Codec 属性值域：负责数据与值之间的编解码以及文本解析。
// 对任意合法值 x 满足 Decode(Encode(x)) == x。
type Codec interface {
	// Width 编码后的字节数，0 表示变长或无数据
	Width() int
	Decode(data []byte) (Value, error)
	// Encode 校验值域并编码，值域外返回 ErrParameterOverRange
	Encode(v Value) ([]byte, error)
	Parse(s string) (Value, error)
	Format(v Value) string
}

func overRange(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrParameterOverRange}, args...)...)
}

// ParseUint 解析十进制整数，仅显式 0x 前缀按十六进制解析；前导零不视为八进制
func ParseUint(s string, bitSize int) (uint64, error) {
	s = strings.TrimSpace(s)
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return strconv.ParseUint(s[2:], 16, bitSize)
	}
	return strconv.ParseUint(s, 10, bitSize)
}

func toUint32(v Value) (uint32, bool) {
	var n int64
	switch x := v.(type) {
	case uint32:
		return x, true
	case uint8:
		return uint32(x), true
	case uint16:
		return uint32(x), true
	case uint:
		if uint64(x) > math.MaxUint32 {
			return 0, false
		}
		return uint32(x), true
	case uint64:
		if x > math.MaxUint32 {
			return 0, false
		}
		return uint32(x), true
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64: // encoding/json 数字
		if x != math.Trunc(x) {
			return 0, false
		}
		n = int64(x)
	default:
		return 0, false
	}
	if n < 0 || n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

func beUint(b []byte) uint32 {
	var n uint32
	for _, v := range b {
		n = n<<8 | uint32(v)
	}
	return n
}

// ---- Range ----

// Range 大端无符号整数，可带上下界（如 0-99）
type Range struct {
	Bytes   int
	Min     uint32
	Max     uint32
	Bounded bool
}

// NewRange 有界整数
func NewRange(width int, min, max uint32) *Range {
	return &Range{Bytes: width, Min: min, Max: max, Bounded: true}
}

// NewUint 无界整数，width 为 0 时按应答实际长度（1-4 字节）解码
func NewUint(width int) *Range {
	max := uint32(math.MaxUint32)
	if width > 0 && width < 4 {
		max = uint32(1)<<(8*width) - 1
	}
	return &Range{Bytes: width, Max: max}
}

func (r *Range) Width() int { return r.Bytes }

// Contains 是否在值域内
func (r *Range) Contains(n uint32) bool {
	return n >= r.Min && n <= r.Max
}

func (r *Range) Decode(data []byte) (Value, error) {
	if len(data) == 0 || len(data) > 4 || (r.Bytes > 0 && len(data) != r.Bytes) {
		return nil, fmt.Errorf("%w: integer of %d bytes", ErrBadPayload, len(data))
	}
	return beUint(data), nil
}

func (r *Range) Encode(v Value) ([]byte, error) {
	n, ok := toUint32(v)
	if !ok {
		return nil, overRange("%v is not an unsigned integer", v)
	}
	if !r.Contains(n) {
		return nil, overRange("%d not in [%d, %d]", n, r.Min, r.Max)
	}
	width := r.Bytes
	if width == 0 {
		width = 4
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return append([]byte(nil), buf[4-width:]...), nil
}

func (r *Range) Parse(s string) (Value, error) {
	n, err := ParseUint(s, 32)
	if err != nil {
		return nil, overRange("%q is not an unsigned integer", s)
	}
	return uint32(n), nil
}

func (r *Range) Format(v Value) string {
	return fmt.Sprint(v)
}

// Next 候选值 current+step；越界时返回原值与 false
func (r *Range) Next(current Value, step int) (Value, bool) {
	n, ok := toUint32(current)
	if !ok {
		return current, false
	}
	cand := int64(n) + int64(step)
	if cand < 0 || cand > math.MaxUint32 || !r.Contains(uint32(cand)) {
		return n, false
	}
	return uint32(cand), true
}

// ---- Enum ----

// Member 枚举成员：名称与固定字节模式
type Member struct {
	Name string
	Code []byte
}

func (m Member) String() string { return m.Name }

// Equal 按字节模式比较
func (m Member) Equal(o Member) bool { return bytes.Equal(m.Code, o.Code) }

// Enum 封闭枚举，成员顺序即声明顺序
type Enum struct {
	members []Member
	width   int
}

// NewEnum 创建枚举；所有成员的字节模式长度必须一致
func NewEnum(members ...Member) *Enum {
	e := &Enum{members: members}
	if len(members) > 0 {
		e.width = len(members[0].Code)
	}
	return e
}

func (e *Enum) Width() int { return e.width }

// Members 按声明顺序返回成员
func (e *Enum) Members() []Member {
	return append([]Member(nil), e.members...)
}

func (e *Enum) validate() error {
	if len(e.members) == 0 {
		return fmt.Errorf("empty enum")
	}
	for i, m := range e.members {
		if len(m.Code) != e.width {
			return fmt.Errorf("member %s has %d bytes, want %d", m.Name, len(m.Code), e.width)
		}
		for _, o := range e.members[:i] {
			if o.Equal(m) || normalizeName(o.Name) == normalizeName(m.Name) {
				return fmt.Errorf("duplicate member %s", m.Name)
			}
		}
	}
	return nil
}

func (e *Enum) index(v Value) int {
	switch x := v.(type) {
	case Member:
		for i, m := range e.members {
			if m.Equal(x) {
				return i
			}
		}
	case string:
		key := normalizeName(x)
		for i, m := range e.members {
			if normalizeName(m.Name) == key {
				return i
			}
		}
	}
	return -1
}

func (e *Enum) Decode(data []byte) (Value, error) {
	if len(data) != e.width {
		return nil, fmt.Errorf("%w: enum of %d bytes, want %d", ErrBadPayload, len(data), e.width)
	}
	for _, m := range e.members {
		if bytes.Equal(m.Code, data) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: % X", ErrUnknownValue, data)
}

func (e *Enum) Encode(v Value) ([]byte, error) {
	i := e.index(v)
	if i < 0 {
		return nil, overRange("%v is not one of %s", v, e.names())
	}
	return append([]byte(nil), e.members[i].Code...), nil
}

func (e *Enum) Parse(s string) (Value, error) {
	i := e.index(s)
	if i < 0 {
		return nil, overRange("%q is not one of %s", s, e.names())
	}
	return e.members[i], nil
}

func (e *Enum) Format(v Value) string {
	if i := e.index(v); i >= 0 {
		return e.members[i].Name
	}
	return fmt.Sprint(v)
}

// Cycle 按声明顺序移动 step 位，越过末尾回到第一个，越过开头回到最后一个
func (e *Enum) Cycle(current Value, step int) (Value, error) {
	i := e.index(current)
	if i < 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnknownValue, current)
	}
	n := i + step
	switch {
	case n >= len(e.members):
		n = 0
	case n < 0:
		n = len(e.members) - 1
	}
	return e.members[n], nil
}

func (e *Enum) names() string {
	names := make([]string, len(e.members))
	for i, m := range e.members {
		names[i] = m.Name
	}
	return strings.Join(names, "|")
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "", ":", "").Replace(s)
}

// ---- RGB ----

// RGB 自定义颜色，三个通道
type RGB struct {
	Red   uint8 `json:"red"`
	Green uint8 `json:"green"`
	Blue  uint8 `json:"blue"`
}

func (c RGB) String() string {
	return fmt.Sprintf("Red:%d Green:%d Blue:%d", c.Red, c.Green, c.Blue)
}

// RGBCodec 三通道结构体；写入时按 Bytes 补零
type RGBCodec struct {
	Bytes int
	Max   uint8
}

func (c *RGBCodec) Width() int { return c.Bytes }

func (c *RGBCodec) check(v RGB) bool {
	return v.Red <= c.Max && v.Green <= c.Max && v.Blue <= c.Max
}

func (c *RGBCodec) Decode(data []byte) (Value, error) {
	if len(data) < 3 {
		return nil, fmt.Errorf("%w: rgb of %d bytes", ErrBadPayload, len(data))
	}
	v := RGB{Red: data[0], Green: data[1], Blue: data[2]}
	if !c.check(v) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownValue, v)
	}
	return v, nil
}

func (c *RGBCodec) Encode(v Value) ([]byte, error) {
	rgb, ok := v.(RGB)
	if !ok {
		return nil, overRange("%v is not a color", v)
	}
	if !c.check(rgb) {
		return nil, overRange("%s channel above %d", rgb, c.Max)
	}
	width := c.Bytes
	if width < 3 {
		width = 3
	}
	out := make([]byte, width)
	out[0], out[1], out[2] = rgb.Red, rgb.Green, rgb.Blue
	return out, nil
}

func (c *RGBCodec) Parse(s string) (Value, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
	if len(parts) != 3 {
		return nil, overRange("%q is not r,g,b", s)
	}
	var ch [3]uint8
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return nil, overRange("%q is not r,g,b", s)
		}
		ch[i] = uint8(n)
	}
	return RGB{Red: ch[0], Green: ch[1], Blue: ch[2]}, nil
}

func (c *RGBCodec) Format(v Value) string {
	if rgb, ok := v.(RGB); ok {
		return fmt.Sprintf("%d,%d,%d", rgb.Red, rgb.Green, rgb.Blue)
	}
	return fmt.Sprint(v)
}

// ---- Flags ----

// FlagSet 位图值
type FlagSet struct {
	Word  uint32   `json:"word"`
	Names []string `json:"names"`
}

func (f FlagSet) String() string {
	if len(f.Names) == 0 {
		return fmt.Sprintf("none (0x%08X)", f.Word)
	}
	return fmt.Sprintf("%s (0x%08X)", strings.Join(f.Names, ","), f.Word)
}

// Flags 位图编码，每个位以枚举成员的字节模式给出（能力查询应答）
type Flags struct {
	bits  []Member
	width int
}

// NewFlags 以成员字节模式作为位掩码
func NewFlags(width int, bits ...Member) *Flags {
	return &Flags{bits: bits, width: width}
}

func (f *Flags) Width() int { return f.width }

func (f *Flags) names(word uint32) []string {
	names := make([]string, 0, len(f.bits))
	for _, b := range f.bits {
		mask := beUint(b.Code)
		if mask != 0 && word&mask == mask {
			names = append(names, b.Name)
		}
	}
	return names
}

func (f *Flags) Decode(data []byte) (Value, error) {
	if len(data) == 0 || len(data) > 4 || (f.width > 0 && len(data) != f.width) {
		return nil, fmt.Errorf("%w: flags of %d bytes", ErrBadPayload, len(data))
	}
	word := beUint(data)
	return FlagSet{Word: word, Names: f.names(word)}, nil
}

func (f *Flags) Encode(v Value) ([]byte, error) {
	fs, ok := v.(FlagSet)
	if !ok {
		return nil, overRange("%v is not a flag set", v)
	}
	width := f.width
	if width == 0 {
		width = 4
	}
	if width < 4 && fs.Word >= uint32(1)<<(8*width) {
		return nil, overRange("0x%X wider than %d bytes", fs.Word, width)
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], fs.Word)
	return append([]byte(nil), buf[4-width:]...), nil
}

func (f *Flags) Parse(s string) (Value, error) {
	var word uint32
	for _, p := range strings.Split(s, ",") {
		p = normalizeName(p)
		if p == "" {
			continue
		}
		found := false
		for _, b := range f.bits {
			if normalizeName(b.Name) == p {
				word |= beUint(b.Code)
				found = true
				break
			}
		}
		if !found {
			return nil, overRange("unknown flag %q", p)
		}
	}
	return FlagSet{Word: word, Names: f.names(word)}, nil
}

func (f *Flags) Format(v Value) string {
	return fmt.Sprint(v)
}

// ---- Text ----

// Text 字符串（设备标识类），尾部 NUL 与空白被去除
type Text struct {
	Bytes int
}

func (t Text) Width() int { return t.Bytes }

func (t Text) Decode(data []byte) (Value, error) {
	return strings.TrimRight(string(data), "\x00 \r\n"), nil
}

func (t Text) Encode(v Value) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, overRange("%v is not text", v)
	}
	if t.Bytes > 0 && len(s) > t.Bytes {
		return nil, overRange("text longer than %d bytes", t.Bytes)
	}
	return []byte(s), nil
}

func (t Text) Parse(s string) (Value, error) { return s, nil }

func (t Text) Format(v Value) string { return fmt.Sprint(v) }

// ---- Raw ----

// Raw 不透明字节
type Raw struct{}

func (Raw) Width() int { return 0 }

func (Raw) Decode(data []byte) (Value, error) {
	return append([]byte{}, data...), nil
}

func (Raw) Encode(v Value) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, overRange("%v is not bytes", v)
	}
	return append([]byte{}, b...), nil
}

func (Raw) Parse(s string) (Value, error) {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, overRange("%q is not hex", s)
	}
	return b, nil
}

func (Raw) Format(v Value) string {
	if b, ok := v.([]byte); ok {
		return fmt.Sprintf("% X", b)
	}
	return fmt.Sprint(v)
}

// ---- None ----

// None 无数据（动作命令）
type None struct{}

func (None) Width() int { return 0 }

// Decode 动作应答的数据没有意义，忽略
func (None) Decode([]byte) (Value, error) { return nil, nil }

func (None) Encode(v Value) ([]byte, error) {
	if v != nil {
		return nil, overRange("action takes no value")
	}
	return nil, nil
}

func (None) Parse(s string) (Value, error) {
	if strings.TrimSpace(s) != "" {
		return nil, overRange("action takes no value")
	}
	return nil, nil
}

func (None) Format(Value) string { return "" }
