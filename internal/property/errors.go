package property

import "errors"

var (
	// ErrUnsupportedCommand 属性名未知或该属性不支持请求的读写方向
	ErrUnsupportedCommand = errors.New("unsupported command")
	// ErrParameterOverRange 写入值超出属性值域（在任何 I/O 之前拦截）
	ErrParameterOverRange = errors.New("parameter over range")
	// ErrUnknownValue 设备返回的数据不属于该属性的值域
	ErrUnknownValue = errors.New("unknown value")
	// ErrBadPayload 设备返回的数据长度不符合该属性的编码
	ErrBadPayload = errors.New("bad payload")
)
