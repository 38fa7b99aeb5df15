package generation

import (
	"fmt"
	"strconv"
	"time"
)

// Mode selects the generation pipeline
type Mode string

const (
	ModeReal Mode = "real"
	ModeMock Mode = "mock"
)

// ParseMode parses a mode string. Empty input selects mock mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeMock, nil
	case ModeReal, ModeMock:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown generation mode %q", s)
	}
}

// String returns the string representation of Mode
func (m Mode) String() string {
	return string(m)
}

// NewTaskID builds a task identifier such as "voxel_1718000000000".
func NewTaskID(prefix string, now time.Time) string {
	return prefix + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// Task ID prefixes
const (
	TaskPrefixVoxel = "voxel"
	TaskPrefixMock  = "mock"
)
