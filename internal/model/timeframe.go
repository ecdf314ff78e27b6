package model

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe selects the history window for balance reconstruction.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

// Block counts assume a fixed block time.
const (
	DayBlocks   uint64 = 6_500
	WeekBlocks  uint64 = 45_500
	MonthBlocks uint64 = 195_000
)

// ParseTimeframe parses day, week or month.
func ParseTimeframe(input string) (Timeframe, error) {
	switch Timeframe(strings.ToLower(strings.TrimSpace(input))) {
	case TimeframeDay:
		return TimeframeDay, nil
	case TimeframeWeek:
		return TimeframeWeek, nil
	case TimeframeMonth:
		return TimeframeMonth, nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %q", input)
	}
}

// Blocks returns the approximate block count covered by the timeframe.
func (t Timeframe) Blocks() uint64 {
	switch t {
	case TimeframeDay:
		return DayBlocks
	case TimeframeWeek:
		return WeekBlocks
	case TimeframeMonth:
		return MonthBlocks
	default:
		return 0
	}
}

// Duration returns the wall-clock span the timeframe approximates.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case TimeframeDay:
		return 24 * time.Hour
	case TimeframeWeek:
		return 7 * 24 * time.Hour
	case TimeframeMonth:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}
