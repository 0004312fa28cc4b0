package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		codec Codec
		value Value
	}{
		{name: "亮度下界", codec: percent(), value: uint32(0)},
		{name: "亮度上界", codec: percent(), value: uint32(99)},
		{name: "OSD计时", codec: NewRange(1, 5, 59), value: uint32(30)},
		{name: "变长整数", codec: NewUint(0), value: uint32(12345)},
		{name: "开关", codec: State, value: Member{"On", bs(0x01)}},
		{name: "四字节枚举", codec: VideoInput, value: Member{"DP2", bs(0x10, 0x00, 0x00, 0x00)}},
		{name: "自定义颜色", codec: &RGBCodec{Bytes: 7, Max: 99}, value: RGB{Red: 99, Green: 0, Blue: 42}},
		{name: "位图", codec: NewFlags(4, VideoInput.Members()...), value: FlagSet{Word: 0x09000000, Names: []string{"HDMI1", "DP1"}}},
		{name: "文本", codec: Text{}, value: "DELL P4317Q"},
		{name: "原始字节", codec: Raw{}, value: []byte{0xDE, 0xAD}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.codec.Encode(tt.value)
			require.NoError(t, err)
			if w := tt.codec.Width(); w > 0 {
				assert.Len(t, data, w)
			}
			got, err := tt.codec.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
}

func TestEveryEnumMemberRoundTrips(t *testing.T) {
	for _, e := range []*Enum{State, AspectRatio, ColorFormat, ColorPreset, VideoInput, PxPMode, PxPLocation, Language} {
		require.NoError(t, e.validate())
		for _, m := range e.Members() {
			data, err := e.Encode(m)
			require.NoError(t, err)
			got, err := e.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		}
	}
}

func TestRangeEncode_OverRange(t *testing.T) {
	tests := []struct {
		name  string
		codec *Range
		value Value
	}{
		{name: "亮度150", codec: percent(), value: 150},
		{name: "亮度100", codec: percent(), value: uint32(100)},
		{name: "负数", codec: percent(), value: -1},
		{name: "OSD计时4", codec: NewRange(1, 5, 59), value: 4},
		{name: "OSD计时60", codec: NewRange(1, 5, 59), value: 60},
		{name: "非整数", codec: percent(), value: "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.codec.Encode(tt.value)
			assert.ErrorIs(t, err, ErrParameterOverRange)
		})
	}
}

func TestRangeParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want uint32
	}{
		{name: "十进制", text: "50", want: 50},
		{name: "前导零", text: "010", want: 10},
		{name: "前导零8", text: "08", want: 8},
		{name: "十六进制", text: "0x1F", want: 31},
		{name: "空白", text: " 7 ", want: 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := percent().Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	for _, bad := range []string{"", "-1", "abc", "0x", "1e3"} {
		_, err := percent().Parse(bad)
		assert.ErrorIs(t, err, ErrParameterOverRange, bad)
	}
}

func TestRangeDecode(t *testing.T) {
	v, err := percent().Decode([]byte{0x32})
	require.NoError(t, err)
	assert.Equal(t, uint32(50), v)

	// 读取不做值域检查
	v, err = percent().Decode([]byte{0xC8})
	require.NoError(t, err)
	assert.Equal(t, uint32(200), v)

	_, err = percent().Decode(nil)
	assert.ErrorIs(t, err, ErrBadPayload)
	_, err = percent().Decode([]byte{0x00, 0x32})
	assert.ErrorIs(t, err, ErrBadPayload)

	v, err = NewUint(0).Decode([]byte{0x00, 0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, uint32(256), v)
}

func TestRangeNext(t *testing.T) {
	r := percent()

	next, ok := r.Next(uint32(50), 1)
	assert.True(t, ok)
	assert.Equal(t, uint32(51), next)

	next, ok = r.Next(uint32(0), -1)
	assert.False(t, ok)
	assert.Equal(t, uint32(0), next)

	next, ok = r.Next(uint32(99), 1)
	assert.False(t, ok)
	assert.Equal(t, uint32(99), next)

	timer := NewRange(1, 5, 59)
	next, ok = timer.Next(uint32(5), -1)
	assert.False(t, ok)
	assert.Equal(t, uint32(5), next)
}

func TestEnumCycle(t *testing.T) {
	members := ColorPreset.Members()
	first, last := members[0], members[len(members)-1]

	next, err := ColorPreset.Cycle(last, 1)
	require.NoError(t, err)
	assert.Equal(t, first, next)

	prev, err := ColorPreset.Cycle(first, -1)
	require.NoError(t, err)
	assert.Equal(t, last, prev)

	next, err = ColorPreset.Cycle(members[1], 1)
	require.NoError(t, err)
	assert.Equal(t, members[2], next)

	_, err = ColorPreset.Cycle(Member{"Bogus", bs(0xFF, 0, 0, 0)}, 1)
	assert.ErrorIs(t, err, ErrUnknownValue)
}

func TestEnumDecode_Unknown(t *testing.T) {
	_, err := State.Decode([]byte{0x07})
	assert.ErrorIs(t, err, ErrUnknownValue)

	_, err = VideoInput.Decode([]byte{0x01})
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestEnumParse(t *testing.T) {
	tests := []struct {
		name  string
		codec *Enum
		text  string
		want  string
	}{
		{name: "小写", codec: State, text: "on", want: "On"},
		{name: "冒号比例", codec: AspectRatio, text: "16:9", want: "16:9"},
		{name: "下划线", codec: PxPMode, text: "pip_small", want: "PIPSmall"},
		{name: "大写", codec: VideoInput, text: "HDMI2", want: "HDMI2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.codec.Parse(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tt.codec.Format(v))
		})
	}

	_, err := State.Parse("maybe")
	assert.ErrorIs(t, err, ErrParameterOverRange)
}

func TestRGBCodec(t *testing.T) {
	c := &RGBCodec{Bytes: 7, Max: 99}

	data, err := c.Encode(RGB{Red: 1, Green: 2, Blue: 3})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0}, data)

	_, err = c.Encode(RGB{Red: 100})
	assert.ErrorIs(t, err, ErrParameterOverRange)

	v, err := c.Parse("10, 20, 30")
	require.NoError(t, err)
	assert.Equal(t, RGB{Red: 10, Green: 20, Blue: 30}, v)
	assert.Equal(t, "10,20,30", c.Format(v))

	_, err = c.Decode([]byte{1, 2})
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestFlags(t *testing.T) {
	f := NewFlags(4, ColorPreset.Members()...)

	v, err := f.Decode([]byte{0x91, 0x02, 0x00, 0x00})
	require.NoError(t, err)
	fs := v.(FlagSet)
	assert.Equal(t, []string{"Standard", "Paper", "CustomColor", "Cool"}, fs.Names)

	v, err = f.Parse("standard,warm")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x01010000), v.(FlagSet).Word)
}

func TestTextAndNone(t *testing.T) {
	v, err := Text{}.Decode([]byte("P4317Q\x00\x00 "))
	require.NoError(t, err)
	assert.Equal(t, "P4317Q", v)

	data, err := None{}.Encode(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = None{}.Encode(uint32(1))
	assert.ErrorIs(t, err, ErrParameterOverRange)
}
