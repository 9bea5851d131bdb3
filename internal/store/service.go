package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zaffran-mart/zaffran-mart/internal/notify"
	"github.com/zaffran-mart/zaffran-mart/internal/observability"
)

// statusLogCap bounds the status log to the most recent transitions.
const statusLogCap = 50

// Clock abstracts wall time so schedule evaluation is testable.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now() }

// SnapshotPort persists store state after mutations, best-effort.
type SnapshotPort interface {
	SaveStore(ctx context.Context, info Info, logs []LogEntry) error
}

// Service owns the store open/closed state, its schedule and the bounded
// transition log. Its lock is independent of the inventory and order
// locks; the two subsystems never contend.
type Service struct {
	mu       sync.Mutex
	logger   *slog.Logger
	info     Info
	logs     []LogEntry
	notifier notify.Notifier
	snap     SnapshotPort
	metrics  *observability.Metrics
	clock    Clock
}

// NewService builds the scheduler state from a persisted snapshot. A zero
// Info starts the store open with a disabled schedule.
func NewService(logger *slog.Logger, info Info, logs []LogEntry, notifier notify.Notifier, snap SnapshotPort, metrics *observability.Metrics, clock Clock) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if info.LastStatusChange.IsZero() {
		info.IsOpen = true
		info.LastStatusChange = clock.Now().UTC()
	}
	if len(logs) > statusLogCap {
		logs = logs[:statusLogCap]
	}
	return &Service{
		logger:   logger,
		info:     info,
		logs:     append([]LogEntry(nil), logs...),
		notifier: notifier,
		snap:     snap,
		metrics:  metrics,
		clock:    clock,
	}
}

// Info returns the current store state.
func (s *Service) Info(ctx context.Context) Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Logs returns up to limit transitions, newest first. limit <= 0 returns all.
func (s *Service) Logs(ctx context.Context, limit int) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.logs)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]LogEntry, n)
	copy(out, s.logs[:n])
	return out
}

// Toggle flips the store state manually. Reason fields apply when closing.
func (s *Service) Toggle(ctx context.Context, reason string, reasonType ReasonType) Info {
	s.mu.Lock()
	target := !s.info.IsOpen
	info := s.transitionLocked(target, ChangeManual, reason, reasonType, "")
	logs := append([]LogEntry(nil), s.logs...)
	s.mu.Unlock()

	s.announce(ctx, info, ChangeManual, reason, "")
	s.persist(ctx, info, logs)
	return info
}

// Force sets the store state on behalf of an administrator. Unlike Toggle
// it is idempotent on the target state.
func (s *Service) Force(ctx context.Context, open bool, reason, actor string) Info {
	s.mu.Lock()
	if s.info.IsOpen == open {
		info := s.info
		s.mu.Unlock()
		return info
	}
	reasonType := ReasonCustom
	if open {
		reasonType = ""
	}
	info := s.transitionLocked(open, ChangeManual, reason, reasonType, actor)
	logs := append([]LogEntry(nil), s.logs...)
	s.mu.Unlock()

	s.announce(ctx, info, ChangeManual, reason, actor)
	s.persist(ctx, info, logs)
	return info
}

// UpdateSchedule replaces the schedule wholesale without changing the
// current open state.
func (s *Service) UpdateSchedule(ctx context.Context, schedule Schedule) (Info, error) {
	if err := schedule.Validate(); err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	s.info.Schedule = schedule
	info := s.info
	logs := append([]LogEntry(nil), s.logs...)
	s.mu.Unlock()

	s.persist(ctx, info, logs)
	return info, nil
}

// Tick evaluates the schedule against the clock and applies at most one
// automatic transition. It reports whether the state changed.
func (s *Service) Tick(ctx context.Context) bool {
	now := s.clock.Now()
	weekday := int(now.Weekday())
	minute := now.Hour()*60 + now.Minute()

	s.mu.Lock()
	schedule := s.info.Schedule
	if !schedule.Enabled {
		s.mu.Unlock()
		return false
	}

	var target bool
	var reason string
	switch {
	case !schedule.includesDay(weekday) && s.info.IsOpen:
		target, reason = false, "Scheduled day off"
	case schedule.includesDay(weekday) && schedule.withinHours(minute) && !s.info.IsOpen:
		target, reason = true, "Scheduled opening"
	case schedule.includesDay(weekday) && !schedule.withinHours(minute) && s.info.IsOpen:
		target, reason = false, "Scheduled closing"
	default:
		s.mu.Unlock()
		return false
	}

	info := s.transitionLocked(target, ChangeAutomatic, reason, ReasonScheduled, "")
	logs := append([]LogEntry(nil), s.logs...)
	s.mu.Unlock()

	s.announce(ctx, info, ChangeAutomatic, reason, "")
	s.persist(ctx, info, logs)
	return true
}

// transitionLocked applies the state change and appends the log entry.
// Caller holds the lock.
func (s *Service) transitionLocked(open bool, change ChangeType, reason string, reasonType ReasonType, actor string) Info {
	now := s.clock.Now().UTC()
	s.info.IsOpen = open
	s.info.LastStatusChange = now
	if open {
		s.info.CloseReason = ""
		s.info.CloseReasonType = ""
	} else {
		s.info.CloseReason = reason
		s.info.CloseReasonType = reasonType
	}

	status := "closed"
	if open {
		status = "open"
	}
	entry := LogEntry{
		ID:         uuid.NewString(),
		Status:     status,
		Timestamp:  now,
		ChangeType: change,
		Reason:     reason,
		ReasonType: reasonType,
		ChangedBy:  actor,
	}
	s.logs = append([]LogEntry{entry}, s.logs...)
	if len(s.logs) > statusLogCap {
		s.logs = s.logs[:statusLogCap]
	}
	s.metrics.StoreTransition(string(change), status)
	return s.info
}

func (s *Service) announce(ctx context.Context, info Info, change ChangeType, reason, actor string) {
	if s.notifier == nil {
		return
	}
	state := "closed"
	if info.IsOpen {
		state = "open"
	}
	desc := fmt.Sprintf("Store is now %s", state)
	if reason != "" {
		desc += ": " + reason
	}
	if actor != "" {
		desc = fmt.Sprintf("%s (by %s)", desc, actor)
	}
	category := notify.CategoryInfo
	if !info.IsOpen {
		category = notify.CategoryAlert
	}
	title := "Store Status Changed"
	if change == ChangeAutomatic {
		title = "Store Schedule"
	}
	s.notifier.Notify(ctx, title, desc, category)
}

func (s *Service) persist(ctx context.Context, info Info, logs []LogEntry) {
	if s.snap == nil {
		return
	}
	if err := s.snap.SaveStore(ctx, info, logs); err != nil {
		s.metrics.SnapshotFailure()
		s.logger.Error("persist store info", slog.Any("error", err))
	}
}
