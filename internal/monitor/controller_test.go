package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/monitorctl/internal/metrics"
	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
	"github.com/taoyao-code/monitorctl/internal/transport"
	"github.com/taoyao-code/monitorctl/internal/transport/transporttest"
)

type rig struct {
	ctrl   *Controller
	device *transporttest.Device
	opener *transporttest.Opener
}

func newRig(t *testing.T, opts ...Option) *rig {
	t.Helper()
	reg := property.DefaultTable()
	device := transporttest.NewDevice(reg, dell.DefaultFraming)
	opener := device.Opener()
	session := transport.NewSession(opener, transport.DefaultConfig())
	return &rig{ctrl: New(session, reg, opts...), device: device, opener: opener}
}

func TestGet_Brightness(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.device.Set("brightness", uint32(50)))

	v, err := r.ctrl.Get(context.Background(), "brightness")
	require.NoError(t, err)
	assert.Equal(t, uint32(50), v)
	assert.Equal(t, []byte{0x37, 0x51, 0x02, 0xEB, 0x30, 0xBF}, r.opener.LastFrame())
}

func TestGet_BrightnessInclusiveLength(t *testing.T) {
	reply := []byte{0x6F, 0x37, 0x05, 0x02, 0x00, 0x30, 0x32, 0x5D}
	cfg := transport.DefaultConfig()
	cfg.Framing = dell.Framing{LengthIncludesChecksum: true}

	opener := transporttest.NewOpener(reply)
	ctrl := New(transport.NewSession(opener, cfg), property.DefaultTable())
	v, err := ctrl.Get(context.Background(), "brightness")
	require.NoError(t, err)
	assert.Equal(t, uint32(50), v)
	assert.Equal(t, []byte{0x37, 0x51, 0x03, 0xEB, 0x30, 0xBE}, opener.LastFrame())

	// 默认约定下同一应答长度不符
	opener = transporttest.NewOpener(reply)
	ctrl = New(transport.NewSession(opener, transport.DefaultConfig()), property.DefaultTable())
	_, err = ctrl.Get(context.Background(), "brightness")
	assert.Error(t, err)
}

func TestSet_Brightness(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.ctrl.Set(context.Background(), "brightness", 75))
	assert.Equal(t, []byte{75}, r.device.Raw("brightness"))
	assert.Equal(t, dell.BuildCommand(dell.Write, dell.OpBrightness, []byte{75}), r.opener.LastFrame())
}

func TestSet_RejectedBeforeIO(t *testing.T) {
	tests := []struct {
		name    string
		prop    string
		value   property.Value
		wantErr error
	}{
		{name: "亮度越界", prop: "brightness", value: 150, wantErr: property.ErrParameterOverRange},
		{name: "OSD计时过小", prop: "osd_timer", value: 4, wantErr: property.ErrParameterOverRange},
		{name: "OSD计时过大", prop: "osd_timer", value: 60, wantErr: property.ErrParameterOverRange},
		{name: "颜色通道越界", prop: "custom_color", value: property.RGB{Red: 100}, wantErr: property.ErrParameterOverRange},
		{name: "只读属性", prop: "monitor_name", value: "x", wantErr: property.ErrUnsupportedCommand},
		{name: "未知属性", prop: "volume", value: 1, wantErr: property.ErrUnsupportedCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			err := r.ctrl.Set(context.Background(), tt.prop, tt.value)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, r.opener.Writes())
		})
	}
}

func TestGet_WriteOnly(t *testing.T) {
	r := newRig(t)
	_, err := r.ctrl.Get(context.Background(), "factory_reset")
	assert.ErrorIs(t, err, property.ErrUnsupportedCommand)
	assert.Equal(t, 0, r.opener.Writes())
}

func TestStep_RangeHoldsAtBound(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.device.Set("brightness", uint32(0)))

	v, err := r.ctrl.Step(context.Background(), "brightness", property.Down)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
	// 只有一次读取，没有写入
	assert.Equal(t, 1, r.opener.Writes())
	assert.Empty(t, r.device.Writes)
}

func TestStep_RangeUp(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.device.Set("contrast", uint32(41)))

	v, err := r.ctrl.Step(context.Background(), "contrast", property.Up)
	require.NoError(t, err)
	assert.Equal(t, uint32(42), v)
	assert.Equal(t, []byte{42}, r.device.Raw("contrast"))
}

func TestStep_EnumWraps(t *testing.T) {
	r := newRig(t)
	members := property.ColorPreset.Members()

	require.NoError(t, r.device.Set("color_preset", members[len(members)-1]))
	v, err := r.ctrl.Step(context.Background(), "color_preset", property.Up)
	require.NoError(t, err)
	assert.Equal(t, members[0], v)
	assert.Equal(t, members[0].Code, r.device.Raw("color_preset"))

	v, err = r.ctrl.Step(context.Background(), "color_preset", property.Down)
	require.NoError(t, err)
	assert.Equal(t, members[len(members)-1], v)
}

func TestStep_NoPolicy(t *testing.T) {
	r := newRig(t)
	_, err := r.ctrl.Step(context.Background(), "custom_color", property.Up)
	assert.ErrorIs(t, err, property.ErrUnsupportedCommand)
	assert.Equal(t, 0, r.opener.Writes())
}

func TestSetText_SelectorProperty(t *testing.T) {
	r := newRig(t)

	v, err := r.ctrl.SetText(context.Background(), "pxp_sub_input_win2", "dp1")
	require.NoError(t, err)
	assert.Equal(t, "DP1", property.VideoInput.Format(v))
	assert.Equal(t, []byte{0x08, 0, 0, 0}, r.device.Raw("pxp_sub_input_win2"))
	assert.Equal(t,
		dell.BuildCommand(dell.Write, dell.OpPxPSubInput, []byte{property.Window2, 0x08, 0, 0, 0}),
		r.opener.LastFrame())

	got, err := r.ctrl.Get(context.Background(), "pxp_sub_input_win2")
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestSetText_CustomColor(t *testing.T) {
	r := newRig(t)

	_, err := r.ctrl.SetText(context.Background(), "custom_color", "10,20,30")
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 20, 30, 0, 0, 0, 0}, r.device.Raw("custom_color"))

	_, err = r.ctrl.SetText(context.Background(), "custom_color", "10,20")
	assert.ErrorIs(t, err, property.ErrParameterOverRange)
}

func TestInvoke(t *testing.T) {
	r := newRig(t)

	require.NoError(t, r.ctrl.Invoke(context.Background(), "factory_reset"))
	assert.Equal(t, []byte{0x37, 0x51, 0x02, 0xEA, 0xAF, 0x21}, r.opener.LastFrame())

	err := r.ctrl.Invoke(context.Background(), "brightness")
	assert.ErrorIs(t, err, property.ErrUnsupportedCommand)
}

func TestGet_DeviceErrors(t *testing.T) {
	r := newRig(t)
	r.device.Fail(dell.OpContrast, dell.ResultParametersError)

	_, err := r.ctrl.Get(context.Background(), "contrast")
	var rc *dell.ResultCodeError
	require.ErrorAs(t, err, &rc)
	assert.Equal(t, dell.ResultParametersError, rc.Code)
	assert.Equal(t, KindResultCode, Kind(err))

	r.device.SetRaw("power_state", []byte{0x09})
	_, err = r.ctrl.Get(context.Background(), "power_state")
	assert.ErrorIs(t, err, property.ErrUnknownValue)
}

func TestGet_NoReply(t *testing.T) {
	reg := property.DefaultTable()
	ctrl := New(transport.NewSession(transporttest.NewOpener(), transport.DefaultConfig()), reg)

	_, err := ctrl.Get(context.Background(), "brightness")
	assert.ErrorIs(t, err, dell.ErrHeader)
}

func TestGet_TransportUnavailable(t *testing.T) {
	opener := transporttest.NewOpener()
	opener.OpenErr = errors.New("permission denied")
	ctrl := New(transport.NewSession(opener, transport.DefaultConfig()), property.DefaultTable())

	_, err := ctrl.Get(context.Background(), "brightness")
	assert.ErrorIs(t, err, transport.ErrTransportUnavailable)
	assert.Equal(t, KindTransportUnavailable, Kind(err))
}

func TestScan(t *testing.T) {
	r := newRig(t)

	var visited []byte
	found, err := r.ctrl.Scan(context.Background(), 0x30, 0x35, func(op byte, _ error) {
		visited = append(visited, op)
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x31, 0x32, 0x33, 0x34, 0x35}, visited)

	var ops []byte
	for _, f := range found {
		ops = append(ops, f.Opcode)
	}
	assert.Equal(t, []byte{0x30, 0x31, 0x33, 0x34}, ops)
	assert.Equal(t, "brightness", found[0].Property)

	_, err = r.ctrl.Scan(context.Background(), 0x10, 0x01, nil)
	assert.Error(t, err)
}

func TestScan_AbortsWhenUnavailable(t *testing.T) {
	opener := transporttest.NewOpener()
	opener.OpenErr = errors.New("gone")
	ctrl := New(transport.NewSession(opener, transport.DefaultConfig()), property.DefaultTable())

	found, err := ctrl.Scan(context.Background(), 0x00, 0xFE, nil)
	assert.ErrorIs(t, err, transport.ErrTransportUnavailable)
	assert.Empty(t, found)
}

func TestReadAll(t *testing.T) {
	r := newRig(t)
	r.device.Fail(dell.OpBacklightHours, dell.ResultNotConnected)

	readings, err := r.ctrl.ReadAll(context.Background())
	require.NoError(t, err)
	for _, rd := range readings {
		assert.True(t, rd.Descriptor.Access.Allows(dell.Read))
		if rd.Descriptor.Name == "backlight_hours" {
			assert.Error(t, rd.Err)
		} else {
			assert.NoError(t, rd.Err, rd.Descriptor.Name)
		}
	}
}

func TestQuery(t *testing.T) {
	r := newRig(t)
	require.NoError(t, r.device.Set("sharpness", uint32(60)))

	data, err := r.ctrl.Query(context.Background(), dell.Read, dell.OpSharpness, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{60}, data)
}

type memRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (m *memRecorder) Record(_ context.Context, e AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func TestAudit(t *testing.T) {
	rec := &memRecorder{}
	m := metrics.NewAppMetrics(metrics.NewRegistry())
	r := newRig(t, WithRecorder(rec), WithMetrics(m))
	ctx := WithRequestID(context.Background(), "req-1")

	require.NoError(t, r.ctrl.Set(ctx, "osd_language", property.Member{Name: "German", Code: []byte{0x03}}))
	assert.ErrorIs(t, r.ctrl.Set(ctx, "brightness", 150), property.ErrParameterOverRange)
	_, err := r.ctrl.Get(ctx, "brightness")
	require.NoError(t, err)

	require.Len(t, rec.entries, 2)
	assert.Equal(t, AuditEntry{
		RequestID: "req-1", Property: "osd_language", Op: "set", Value: "German", Result: KindOK,
		At: rec.entries[0].At,
	}, rec.entries[0])
	assert.Equal(t, KindOverRange, rec.entries[1].Result)
	assert.NotEmpty(t, rec.entries[1].Error)
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, KindOK},
		{dell.ErrChecksum, KindChecksum},
		{&dell.ResultCodeError{Code: 0x7F}, KindResultCode},
		{context.Canceled, KindCanceled},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Kind(tt.err))
		})
	}
}
