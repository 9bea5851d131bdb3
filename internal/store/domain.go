package store

import (
	"errors"
	"fmt"
	"time"
)

// ChangeType distinguishes operator toggles from schedule-driven ones.
type ChangeType string

const (
	ChangeManual    ChangeType = "manual"
	ChangeAutomatic ChangeType = "automatic"
)

// ReasonType is the closed vocabulary for close reasons.
type ReasonType string

const (
	ReasonOutOfStock       ReasonType = "out_of_stock"
	ReasonStaffUnavailable ReasonType = "staff_unavailable"
	ReasonClosedForDay     ReasonType = "closed_for_day"
	ReasonCustom           ReasonType = "custom"
	ReasonScheduled        ReasonType = "scheduled"
)

// Schedule describes the automatic opening hours. Times are local "HH:mm";
// DaysOfWeek uses 0=Sunday..6=Saturday. A close time earlier than the open
// time wraps past midnight.
type Schedule struct {
	Enabled    bool   `json:"enabled"`
	OpenTime   string `json:"open_time"`
	CloseTime  string `json:"close_time"`
	DaysOfWeek []int  `json:"days_of_week"`
}

// Info is the store's current availability state.
type Info struct {
	IsOpen           bool       `json:"is_open"`
	CloseReason      string     `json:"close_reason,omitempty"`
	CloseReasonType  ReasonType `json:"close_reason_type,omitempty"`
	LastStatusChange time.Time  `json:"last_status_change"`
	Schedule         Schedule   `json:"schedule"`
}

// LogEntry records one open/close transition, newest first in the log.
type LogEntry struct {
	ID         string     `json:"id"`
	Status     string     `json:"status"`
	Timestamp  time.Time  `json:"timestamp"`
	ChangeType ChangeType `json:"change_type"`
	Reason     string     `json:"reason,omitempty"`
	ReasonType ReasonType `json:"reason_type,omitempty"`
	ChangedBy  string     `json:"changed_by,omitempty"`
}

// ErrInvalidSchedule indicates a schedule that fails validation.
var ErrInvalidSchedule = errors.New("store: invalid schedule")

// parseClock converts "HH:mm" into minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("store: parse time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// Validate checks the schedule fields. A disabled schedule is always valid.
func (s Schedule) Validate() error {
	if !s.Enabled {
		return nil
	}
	if _, err := parseClock(s.OpenTime); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if _, err := parseClock(s.CloseTime); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	for _, d := range s.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day %d out of range", ErrInvalidSchedule, d)
		}
	}
	return nil
}

// includesDay reports whether the weekday is a scheduled operating day.
func (s Schedule) includesDay(weekday int) bool {
	for _, d := range s.DaysOfWeek {
		if d == weekday {
			return true
		}
	}
	return false
}

// withinHours reports whether the minute of day falls inside the
// half-open [open, close) window. Windows with close < open wrap past
// midnight; open == close is a zero-length window.
func (s Schedule) withinHours(minute int) bool {
	open, err := parseClock(s.OpenTime)
	if err != nil {
		return false
	}
	close, err := parseClock(s.CloseTime)
	if err != nil {
		return false
	}
	switch {
	case open == close:
		return false
	case open < close:
		return minute >= open && minute < close
	default:
		return minute >= open || minute < close
	}
}
