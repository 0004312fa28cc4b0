package monitor

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taoyao-code/monitorctl/internal/protocol/dell"
)

// ScanResult 扫描中设备成功应答的命令码
type ScanResult struct {
	Opcode   byte
	Data     []byte
	Property string
}

func (r ScanResult) String() string {
	name := r.Property
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("0x%02X %-24s % X", r.Opcode, name, r.Data)
}

// Scan 读取 [from, to] 内的每个命令码，保留设备成功应答的结果。
// 协议错误（包括结果码错误）跳过；串口不可用等其他错误立即返回已得到的结果。
func (c *Controller) Scan(ctx context.Context, from, to byte, progress func(op byte, err error)) ([]ScanResult, error) {
	if from > to {
		return nil, fmt.Errorf("scan range 0x%02X-0x%02X is empty", from, to)
	}
	var out []ScanResult
	for op := int(from); op <= int(to); op++ {
		opcode := byte(op)
		data, err := c.exchange(ctx, dell.Read, opcode, nil)
		if progress != nil {
			progress(opcode, err)
		}
		if err != nil {
			if dell.IsProtocolError(err) {
				continue
			}
			return out, fmt.Errorf("scan 0x%02X: %w", opcode, err)
		}
		r := ScanResult{Opcode: opcode, Data: data}
		if d, ok := c.reg.Lookup(opcode, nil); ok {
			r.Property = d.Name
		}
		out = append(out, r)
	}
	c.logger.Info("scan finished", zap.Int("found", len(out)),
		zap.String("from", fmt.Sprintf("0x%02X", from)), zap.String("to", fmt.Sprintf("0x%02X", to)))
	return out, nil
}
