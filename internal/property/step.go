package property

import (
	"fmt"
	"strings"
)

// Step 相对调整方向
type Step int

const (
	Up   Step = 1
	Down Step = -1
)

func (s Step) String() string {
	if s == Down {
		return "down"
	}
	return "up"
}

// ParseStep 解析调整方向，兼容 next/inc 与 previous/prev/dec 别名
func ParseStep(s string) (Step, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "next", "inc", "+":
		return Up, nil
	case "down", "previous", "prev", "dec", "-":
		return Down, nil
	default:
		return 0, fmt.Errorf("invalid step direction %q", s)
	}
}
