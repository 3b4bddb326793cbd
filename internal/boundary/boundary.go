package boundary

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPeriod is returned for an unrecognized period token. It is a
// caller bug and never worth retrying.
var ErrInvalidPeriod = errors.New("invalid period")

type Period string

const (
	PeriodToday       Period = "TODAY"
	PeriodYesterday   Period = "YESTERDAY"
	PeriodLast7Days   Period = "LAST_7_DAYS"
	PeriodLast30Days  Period = "LAST_30_DAYS"
	PeriodLast90Days  Period = "LAST_90_DAYS"
	PeriodLast365Days Period = "LAST_365_DAYS"
	PeriodAllTime     Period = "ALL_TIME"
)

// Window is a [Start, End] filter over order timestamps. Both bounds nil
// means no constraint at all, not a zero-width range.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// All reports whether the window carries no constraint.
func (w Window) All() bool {
	return w.Start == nil && w.End == nil
}

func (w Window) Contains(t time.Time) bool {
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// Resolve maps a period token to a concrete window relative to now.
// The caller injects now so the mapping stays deterministic under test.
func Resolve(period Period, now time.Time) (Window, error) {
	switch period {
	case PeriodToday:
		return dayWindow(now, now), nil
	case PeriodYesterday:
		y := now.AddDate(0, 0, -1)
		return dayWindow(y, y), nil
	case PeriodLast7Days:
		return dayWindow(now.AddDate(0, 0, -7), now), nil
	case PeriodLast30Days:
		return dayWindow(now.AddDate(0, 0, -30), now), nil
	case PeriodLast90Days:
		return dayWindow(now.AddDate(0, 0, -90), now), nil
	case PeriodLast365Days:
		return dayWindow(now.AddDate(0, 0, -365), now), nil
	case PeriodAllTime:
		return Window{}, nil
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrInvalidPeriod, period)
	}
}

func dayWindow(from, to time.Time) Window {
	start := startOfDay(from)
	end := endOfDay(to)
	return Window{Start: &start, End: &end}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay is the last representable instant of t's day, matching the
// inclusive upper bound the dashboards filter with.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
