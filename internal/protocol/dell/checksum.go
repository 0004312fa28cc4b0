package dell

// Checksum 异或校验，覆盖 b 的全部字节
func Checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum ^= v
	}
	return sum
}
