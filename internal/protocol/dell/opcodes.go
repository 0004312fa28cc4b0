package dell

// 命令码
const (
	// 显示器信息
	OpAssetTag       byte = 0x00
	OpMonitorName    byte = 0x01
	OpMonitorSerial  byte = 0x02
	OpBacklightHours byte = 0x04

	// 电源管理
	OpPowerState byte = 0x20
	OpPowerLED   byte = 0x21
	OpPowerUSB   byte = 0x22
	OpResetPower byte = 0x2F

	// 图像调整
	OpBrightness  byte = 0x30
	OpContrast    byte = 0x31
	OpAspectRatio byte = 0x33
	OpSharpness   byte = 0x34

	// 色彩管理
	OpInputColorFormat byte = 0x46
	OpColorPresetCaps  byte = 0x47
	OpColorPreset      byte = 0x48
	OpCustomColor      byte = 0x49
	OpResetColor       byte = 0x4F

	// 视频输入
	OpAutoSelect     byte = 0x60
	OpVideoInputCaps byte = 0x61
	OpVideoInput     byte = 0x62

	// PIP/PBP
	OpPxPMode     byte = 0x70
	OpPxPSubInput byte = 0x71
	OpPxPLocation byte = 0x72

	// OSD
	OpOSDTransparency byte = 0x80
	OpOSDLanguage     byte = 0x81
	OpOSDTimer        byte = 0x83
	OpOSDButtonLock   byte = 0x84
	OpResetOSD        byte = 0x8F

	// 系统
	OpFirmwareVersion byte = 0xA0
	OpDDCCI           byte = 0xA2
	OpLCDConditioning byte = 0xA3
	OpFactoryReset    byte = 0xAF
)
