package dell

import (
	"errors"
	"fmt"
)

var (
	ErrHeader   = errors.New("reply header mismatch")
	ErrLength   = errors.New("reply length mismatch")
	ErrFormat   = errors.New("reply format error")
	ErrCommand  = errors.New("reply opcode mismatch")
	ErrChecksum = errors.New("reply checksum mismatch")
)

// ResultCodeError 设备返回非成功结果码，保留原始码值供调用方判断
type ResultCodeError struct {
	Code ResultCode
}

func (e *ResultCodeError) Error() string {
	return fmt.Sprintf("device result: %s (0x%02X)", e.Code, byte(e.Code))
}

// IsProtocolError 是否为帧校验阶段产生的错误
func IsProtocolError(err error) bool {
	var rc *ResultCodeError
	return errors.Is(err, ErrHeader) ||
		errors.Is(err, ErrLength) ||
		errors.Is(err, ErrFormat) ||
		errors.Is(err, ErrCommand) ||
		errors.Is(err, ErrChecksum) ||
		errors.As(err, &rc)
}
