package lp

import (
	"fmt"
	"strings"
)

// Direction 优化方向。
type Direction int

const (
	// Maximize 最大化目标函数。
	Maximize Direction = iota
	// Minimize 最小化目标函数。
	Minimize
)

func (d Direction) String() string {
	if d == Minimize {
		return "minimize"
	}
	return "maximize"
}

// ParseDirection 解析优化方向，大小写不敏感，空串视为 Maximize。
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max", "maximize", "maximizar":
		return Maximize, nil
	case "min", "minimize", "minimizar":
		return Minimize, nil
	default:
		return Maximize, fmt.Errorf("unknown optimization direction %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler。
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler。
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
