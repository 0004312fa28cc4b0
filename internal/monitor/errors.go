package monitor

import (
	"context"
	"errors"

	"github.com/taoyao-code/monitorctl/internal/property"
	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
	"github.com/taoyao-code/monitorctl/internal/transport"
)

// 错误类别（日志、审计、HTTP 响应中使用）
const (
	KindOK                   = "ok"
	KindUnsupported          = "unsupported_command"
	KindOverRange            = "parameter_over_range"
	KindUnknownValue         = "unknown_value"
	KindBadPayload           = "bad_payload"
	KindHeader               = "header_error"
	KindLength               = "length_error"
	KindFormat               = "format_error"
	KindResultCode           = "result_code_error"
	KindCommand              = "command_error"
	KindChecksum             = "checksum_error"
	KindTransportUnavailable = "transport_unavailable"
	KindCanceled             = "canceled"
	KindInternal             = "internal"
)

// Kind 错误类别
func Kind(err error) string {
	var rc *dell.ResultCodeError
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, property.ErrUnsupportedCommand):
		return KindUnsupported
	case errors.Is(err, property.ErrParameterOverRange):
		return KindOverRange
	case errors.Is(err, property.ErrUnknownValue):
		return KindUnknownValue
	case errors.Is(err, property.ErrBadPayload):
		return KindBadPayload
	case errors.Is(err, transport.ErrTransportUnavailable):
		return KindTransportUnavailable
	case errors.Is(err, dell.ErrHeader):
		return KindHeader
	case errors.Is(err, dell.ErrLength):
		return KindLength
	case errors.Is(err, dell.ErrFormat):
		return KindFormat
	case errors.As(err, &rc):
		return KindResultCode
	case errors.Is(err, dell.ErrCommand):
		return KindCommand
	case errors.Is(err, dell.ErrChecksum):
		return KindChecksum
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
