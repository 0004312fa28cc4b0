package dell

// BuildCommand 按默认帧约定构造命令帧
func BuildCommand(dir Direction, opcode byte, data []byte) []byte {
	return DefaultFraming.BuildCommand(dir, opcode, data)
}

// BuildCommand 构造一帧命令。
// length 按实际字节数计算，不校验 data 长度（由属性表负责）。
func (f Framing) BuildCommand(dir Direction, opcode byte, data []byte) []byte {
	bodyLen := 2 + len(data)
	buf := make([]byte, 0, frameOverhead+bodyLen)
	buf = append(buf, commandHeader[:]...)
	buf = append(buf, byte(bodyLen+f.lengthAdjust()))
	buf = append(buf, byte(dir), opcode)
	buf = append(buf, data...)
	return append(buf, Checksum(buf))
}

// BuildReply 构造一帧应答（设备侧格式），用于模拟设备与测试
func (f Framing) BuildReply(code ResultCode, opcode byte, data []byte) []byte {
	bodyLen := replyFixedLen + len(data)
	buf := make([]byte, 0, frameOverhead+bodyLen)
	buf = append(buf, replyHeader[:]...)
	buf = append(buf, byte(bodyLen+f.lengthAdjust()))
	buf = append(buf, ReplyMarker, byte(code), opcode)
	buf = append(buf, data...)
	return append(buf, Checksum(buf))
}
