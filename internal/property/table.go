package property

import "github.com/taoyao-code/monitorctl/internal/protocol/dell"

// 分组
const (
	GroupMonitor = "monitor"
	GroupPower   = "power"
	GroupImage   = "image"
	GroupColor   = "color"
	GroupInput   = "input"
	GroupPxP     = "pxp"
	GroupOSD     = "osd"
	GroupSystem  = "system"
)

func bs(v ...byte) []byte { return v }

// 值域
var (
	State = NewEnum(
		Member{"Off", bs(0x00)},
		Member{"On", bs(0x01)},
	)

	AspectRatio = NewEnum(
		Member{"16:9", bs(0x00)},
		Member{"4:3", bs(0x02)},
		Member{"5:4", bs(0x04)},
	)

	ColorFormat = NewEnum(
		Member{"RGB", bs(0x00)},
		Member{"YPbPr", bs(0x01)},
	)

	ColorPreset = NewEnum(
		Member{"Standard", bs(0x01, 0x00, 0x00, 0x00)},
		Member{"Paper", bs(0x10, 0x00, 0x00, 0x00)},
		Member{"CustomColor", bs(0x80, 0x00, 0x00, 0x00)},
		Member{"Warm", bs(0x00, 0x01, 0x00, 0x00)},
		Member{"Cool", bs(0x00, 0x02, 0x00, 0x00)},
	)

	VideoInput = NewEnum(
		Member{"HDMI1", bs(0x01, 0x00, 0x00, 0x00)},
		Member{"HDMI2", bs(0x02, 0x00, 0x00, 0x00)},
		Member{"DP1", bs(0x08, 0x00, 0x00, 0x00)},
		Member{"DP2", bs(0x10, 0x00, 0x00, 0x00)},
		Member{"VGA1", bs(0x40, 0x00, 0x00, 0x00)},
	)

	PxPMode = NewEnum(
		Member{"Off", bs(0x00)},
		Member{"PIPSmall", bs(0x01)},
		Member{"PIPLarge", bs(0x02)},
		Member{"PBP2Windows", bs(0x05)},
		Member{"PBP3WindowsMode1", bs(0x06)},
		Member{"PBP3WindowsMode2", bs(0x07)},
		Member{"PBP4Windows", bs(0x08)},
	)

	PxPLocation = NewEnum(
		Member{"TopRight", bs(0x00)},
		Member{"TopLeft", bs(0x01)},
		Member{"BottomRight", bs(0x02)},
		Member{"BottomLeft", bs(0x03)},
	)

	Language = NewEnum(
		Member{"English", bs(0x00)},
		Member{"Spanish", bs(0x01)},
		Member{"French", bs(0x02)},
		Member{"German", bs(0x03)},
		Member{"Portuguese", bs(0x04)},
		Member{"Russian", bs(0x05)},
		Member{"Chinese", bs(0x06)},
		Member{"Japanese", bs(0x07)},
	)
)

// PxP 窗口号（Selector）
const (
	Window1 byte = 0x00
	Window2 byte = 0x01
	Window3 byte = 0x02
	Window4 byte = 0x03
)

func percent() *Range { return NewRange(1, 0, 99) }

func state(name, group string, op byte) Descriptor {
	return Descriptor{Name: name, Group: group, Opcode: op, Access: ReadWrite, Codec: State, DataLength: 1, Policy: PolicyCycle}
}

func level(name, group string, op byte) Descriptor {
	return Descriptor{Name: name, Group: group, Opcode: op, Access: ReadWrite, Codec: percent(), DataLength: 1, Policy: PolicyRange}
}

func action(name, group string, op byte) Descriptor {
	return Descriptor{Name: name, Group: group, Opcode: op, Access: WriteOnly, Codec: None{}}
}

func subInput(name string, win byte) Descriptor {
	return Descriptor{
		Name: name, Group: GroupPxP, Opcode: dell.OpPxPSubInput, Selector: []byte{win},
		Access: ReadWrite, Codec: VideoInput, DataLength: 4, Policy: PolicyCycle,
	}
}

// Descriptors P4317Q 属性表（按命令码顺序）
func Descriptors() []Descriptor {
	return []Descriptor{
		{Name: "asset_tag", Group: GroupMonitor, Opcode: dell.OpAssetTag, Access: ReadOnly, Codec: Text{}},
		{Name: "monitor_name", Group: GroupMonitor, Opcode: dell.OpMonitorName, Access: ReadOnly, Codec: Text{}},
		{Name: "monitor_serial_number", Group: GroupMonitor, Opcode: dell.OpMonitorSerial, Access: ReadOnly, Codec: Text{}},
		{Name: "backlight_hours", Group: GroupMonitor, Opcode: dell.OpBacklightHours, Access: ReadOnly, Codec: NewUint(0)},

		state("power_state", GroupPower, dell.OpPowerState),
		state("power_led", GroupPower, dell.OpPowerLED),
		state("power_usb", GroupPower, dell.OpPowerUSB),
		action("reset_power", GroupPower, dell.OpResetPower),

		level("brightness", GroupImage, dell.OpBrightness),
		level("contrast", GroupImage, dell.OpContrast),
		{Name: "aspect_ratio", Group: GroupImage, Opcode: dell.OpAspectRatio, Access: ReadWrite, Codec: AspectRatio, DataLength: 1, Policy: PolicyCycle},
		level("sharpness", GroupImage, dell.OpSharpness),

		{Name: "input_color_format", Group: GroupColor, Opcode: dell.OpInputColorFormat, Access: ReadWrite, Codec: ColorFormat, DataLength: 1, Policy: PolicyCycle},
		{Name: "color_preset_caps", Group: GroupColor, Opcode: dell.OpColorPresetCaps, Access: ReadOnly, Codec: NewFlags(4, ColorPreset.Members()...), DataLength: 4},
		{Name: "color_preset", Group: GroupColor, Opcode: dell.OpColorPreset, Access: ReadWrite, Codec: ColorPreset, DataLength: 4, Policy: PolicyCycle},
		{Name: "custom_color", Group: GroupColor, Opcode: dell.OpCustomColor, Access: ReadWrite, Codec: &RGBCodec{Bytes: 7, Max: 99}, DataLength: 7},
		action("reset_color", GroupColor, dell.OpResetColor),

		state("auto_select", GroupInput, dell.OpAutoSelect),
		{Name: "video_input_caps", Group: GroupInput, Opcode: dell.OpVideoInputCaps, Access: ReadOnly, Codec: NewFlags(4, VideoInput.Members()...), DataLength: 4},
		{Name: "video_input", Group: GroupInput, Opcode: dell.OpVideoInput, Access: ReadWrite, Codec: VideoInput, DataLength: 4, Policy: PolicyCycle},

		{Name: "pxp_mode", Group: GroupPxP, Opcode: dell.OpPxPMode, Access: ReadWrite, Codec: PxPMode, DataLength: 1, Policy: PolicyCycle},
		subInput("pxp_sub_input_win1", Window1),
		subInput("pxp_sub_input_win2", Window2),
		subInput("pxp_sub_input_win3", Window3),
		subInput("pxp_sub_input_win4", Window4),
		{Name: "pxp_location", Group: GroupPxP, Opcode: dell.OpPxPLocation, Access: ReadWrite, Codec: PxPLocation, DataLength: 1, Policy: PolicyCycle},

		level("osd_transparency", GroupOSD, dell.OpOSDTransparency),
		{Name: "osd_language", Group: GroupOSD, Opcode: dell.OpOSDLanguage, Access: ReadWrite, Codec: Language, DataLength: 1, Policy: PolicyCycle},
		{Name: "osd_timer", Group: GroupOSD, Opcode: dell.OpOSDTimer, Access: ReadWrite, Codec: NewRange(1, 5, 59), DataLength: 1, Policy: PolicyRange},
		state("osd_button_lock", GroupOSD, dell.OpOSDButtonLock),
		action("reset_osd", GroupOSD, dell.OpResetOSD),

		{Name: "firmware_version", Group: GroupSystem, Opcode: dell.OpFirmwareVersion, Access: ReadOnly, Codec: Text{}},
		state("ddcci", GroupSystem, dell.OpDDCCI),
		state("lcd_conditioning", GroupSystem, dell.OpLCDConditioning),
		action("factory_reset", GroupSystem, dell.OpFactoryReset),
	}
}

// DefaultTable 默认属性表
func DefaultTable() *Registry {
	return MustRegistry(Descriptors()...)
}
