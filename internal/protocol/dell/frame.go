package dell

import "fmt"

// 帧结构：
// header[2] | length[1] | body | checksum[1]
// 命令 body: rw[1] | opcode[1] | data[..]
// 应答 body: 0x02 | result[1] | opcode[1] | data[..]
// checksum 为 header[0] 至 body 最后一个字节的异或值
var (
	commandHeader = [2]byte{0x37, 0x51}
	replyHeader   = [2]byte{0x6F, 0x37}
)

const (
	// ReplyMarker 应答 body 的首字节固定值
	ReplyMarker = 0x02

	// MaxReplySize 单次应答读取上限
	MaxReplySize = 64

	// headerLen + lengthLen + checksumLen
	frameOverhead = 4
	// 应答 body 中 data 之前的固定字节：marker + result + opcode
	replyFixedLen = 3
)

// Direction 读写方向（命令 body 的 rw 字节）
type Direction byte

const (
	Read  Direction = 0xEB
	Write Direction = 0xEA
)

func (d Direction) String() string {
	switch d {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("direction(0x%02X)", byte(d))
	}
}

// ResultCode 设备应答结果码
type ResultCode byte

const (
	ResultSuccess         ResultCode = 0x00
	ResultTimeout         ResultCode = 0x01
	ResultParametersError ResultCode = 0x02
	ResultNotConnected    ResultCode = 0x03
	ResultOtherFailure    ResultCode = 0x04
)

func (c ResultCode) String() string {
	switch c {
	case ResultSuccess:
		return "success"
	case ResultTimeout:
		return "timeout"
	case ResultParametersError:
		return "parameters error"
	case ResultNotConnected:
		return "not connected"
	case ResultOtherFailure:
		return "other failure"
	default:
		return fmt.Sprintf("unknown result code 0x%02X", byte(c))
	}
}

// Known 是否为协议定义的结果码
func (c ResultCode) Known() bool {
	return c <= ResultOtherFailure
}

// Framing 帧长度约定。
// 默认 length 只统计 body；LengthIncludesChecksum 为 true 时 length 额外计入校验字节。
type Framing struct {
	LengthIncludesChecksum bool
}

// DefaultFraming 默认帧约定
var DefaultFraming = Framing{}

func (f Framing) lengthAdjust() int {
	if f.LengthIncludesChecksum {
		return 1
	}
	return 0
}

// bodyLen 由 length 字段换算出 body 字节数
func (f Framing) bodyLen(declared byte) int {
	return int(declared) - f.lengthAdjust()
}

// Complete 判断缓冲区是否已包含一帧完整应答（仅用于提前结束读取，不做校验）
func (f Framing) Complete(buf []byte) bool {
	if len(buf) < 3 {
		return false
	}
	if buf[0] != replyHeader[0] || buf[1] != replyHeader[1] {
		return false
	}
	need := f.bodyLen(buf[2]) + frameOverhead
	if need < 3 {
		need = 3
	}
	return len(buf) >= need
}
