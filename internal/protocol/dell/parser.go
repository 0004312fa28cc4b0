package dell

// ParseReply 按默认帧约定解析应答
func ParseReply(opcode byte, raw []byte) ([]byte, error) {
	return DefaultFraming.ParseReply(opcode, raw)
}

// ParseReply 顺序校验应答帧，遇到第一个不满足的条件立即返回：
// header -> length -> marker -> result -> opcode -> checksum。
// header 与 length 通过后，后续检查使用的下标才有意义，顺序不可调整。
// 无数据时返回 nil。
func (f Framing) ParseReply(opcode byte, raw []byte) ([]byte, error) {
	if len(raw) < 2 || raw[0] != replyHeader[0] || raw[1] != replyHeader[1] {
		return nil, ErrHeader
	}
	if len(raw) < 3 {
		return nil, ErrLength
	}
	n := f.bodyLen(raw[2])
	if n != len(raw)-frameOverhead {
		return nil, ErrLength
	}
	if n < replyFixedLen || raw[3] != ReplyMarker {
		return nil, ErrFormat
	}
	if code := ResultCode(raw[4]); code != ResultSuccess {
		return nil, &ResultCodeError{Code: code}
	}
	if raw[5] != opcode {
		return nil, ErrCommand
	}
	if Checksum(raw[:n+3]) != raw[n+3] {
		return nil, ErrChecksum
	}
	if n <= replyFixedLen {
		return nil, nil
	}
	return raw[6 : n+3], nil
}

// Command 设备侧解析出的命令帧
type Command struct {
	Dir    Direction
	Opcode byte
	Data   []byte
}

// ParseCommand 解析命令帧（设备侧），用于模拟设备
func (f Framing) ParseCommand(raw []byte) (Command, error) {
	if len(raw) < 2 || raw[0] != commandHeader[0] || raw[1] != commandHeader[1] {
		return Command{}, ErrHeader
	}
	if len(raw) < 3 {
		return Command{}, ErrLength
	}
	n := f.bodyLen(raw[2])
	if n != len(raw)-frameOverhead {
		return Command{}, ErrLength
	}
	if n < 2 {
		return Command{}, ErrFormat
	}
	if Checksum(raw[:n+3]) != raw[n+3] {
		return Command{}, ErrChecksum
	}
	cmd := Command{Dir: Direction(raw[3]), Opcode: raw[4]}
	if n > 2 {
		cmd.Data = append([]byte(nil), raw[5:n+3]...)
	}
	return cmd, nil
}
