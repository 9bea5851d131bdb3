package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zaffran-mart/zaffran-mart/internal/notify"
)

// fakeClock pins schedule evaluation to a chosen instant.
type fakeClock struct {
	at time.Time
}

func (c *fakeClock) Now() time.Time { return c.at }

func (c *fakeClock) set(year int, month time.Month, day, hour, min int) {
	c.at = time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

type fakeStoreSnapshot struct {
	info  Info
	logs  []LogEntry
	saves int
}

func (f *fakeStoreSnapshot) SaveStore(ctx context.Context, info Info, logs []LogEntry) error {
	f.info = info
	f.logs = logs
	f.saves++
	return nil
}

type titleRecorder struct {
	titles []string
}

func (n *titleRecorder) Notify(ctx context.Context, title, desc string, category notify.Category) {
	n.titles = append(n.titles, title)
}

func weekdaySchedule() Schedule {
	// Monday to Friday, 09:00-21:00.
	return Schedule{Enabled: true, OpenTime: "09:00", CloseTime: "21:00", DaysOfWeek: []int{1, 2, 3, 4, 5}}
}

func newTestService(t *testing.T, info Info, clock Clock) (*Service, *titleRecorder, *fakeStoreSnapshot) {
	t.Helper()
	notes := &titleRecorder{}
	snap := &fakeStoreSnapshot{}
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), info, nil, notes, snap, nil, clock)
	return svc, notes, snap
}

func TestNewServiceStartsOpen(t *testing.T) {
	svc, _, _ := newTestService(t, Info{}, nil)
	info := svc.Info(context.Background())
	require.True(t, info.IsOpen)
	require.False(t, info.LastStatusChange.IsZero())
}

func TestToggleFlipsState(t *testing.T) {
	svc, notes, snap := newTestService(t, Info{}, nil)
	ctx := context.Background()

	info := svc.Toggle(ctx, "Staff shortage", ReasonStaffUnavailable)
	require.False(t, info.IsOpen)
	require.Equal(t, "Staff shortage", info.CloseReason)
	require.Equal(t, ReasonStaffUnavailable, info.CloseReasonType)
	require.Equal(t, []string{"Store Status Changed"}, notes.titles)
	require.Equal(t, 1, snap.saves)

	info = svc.Toggle(ctx, "", "")
	require.True(t, info.IsOpen)
	require.Empty(t, info.CloseReason)
	require.Empty(t, info.CloseReasonType)

	logs := svc.Logs(ctx, 0)
	require.Len(t, logs, 2)
	require.Equal(t, "open", logs[0].Status)
	require.Equal(t, "closed", logs[1].Status)
	require.Equal(t, ChangeManual, logs[0].ChangeType)
}

func TestForceIsIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t, Info{}, nil)
	ctx := context.Background()

	info := svc.Force(ctx, false, "Festival holiday", "manager")
	require.False(t, info.IsOpen)
	logs := svc.Logs(ctx, 0)
	require.Len(t, logs, 1)
	require.Equal(t, "manager", logs[0].ChangedBy)

	info = svc.Force(ctx, false, "Festival holiday", "manager")
	require.False(t, info.IsOpen)
	require.Len(t, svc.Logs(ctx, 0), 1)

	info = svc.Force(ctx, true, "", "manager")
	require.True(t, info.IsOpen)
	require.Len(t, svc.Logs(ctx, 0), 2)
}

func TestUpdateScheduleValidates(t *testing.T) {
	svc, _, _ := newTestService(t, Info{}, nil)
	ctx := context.Background()

	info, err := svc.UpdateSchedule(ctx, weekdaySchedule())
	require.NoError(t, err)
	require.True(t, info.Schedule.Enabled)
	require.True(t, info.IsOpen)

	_, err = svc.UpdateSchedule(ctx, Schedule{Enabled: true, OpenTime: "9am", CloseTime: "21:00"})
	require.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = svc.UpdateSchedule(ctx, Schedule{Enabled: true, OpenTime: "09:00", CloseTime: "21:00", DaysOfWeek: []int{7}})
	require.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestTickOpensAndCloses(t *testing.T) {
	clock := &fakeClock{}
	// Monday 2025-03-17, 08:59: before opening.
	clock.set(2025, time.March, 17, 8, 59)
	svc, notes, _ := newTestService(t, Info{IsOpen: false, LastStatusChange: clock.at, Schedule: weekdaySchedule()}, clock)
	ctx := context.Background()

	require.False(t, svc.Tick(ctx))
	require.False(t, svc.Info(ctx).IsOpen)

	clock.set(2025, time.March, 17, 9, 0)
	require.True(t, svc.Tick(ctx))
	info := svc.Info(ctx)
	require.True(t, info.IsOpen)
	require.Equal(t, []string{"Store Schedule"}, notes.titles)

	// Repeated ticks inside the window do nothing.
	clock.set(2025, time.March, 17, 14, 0)
	require.False(t, svc.Tick(ctx))

	clock.set(2025, time.March, 17, 21, 0)
	require.True(t, svc.Tick(ctx))
	info = svc.Info(ctx)
	require.False(t, info.IsOpen)
	require.Equal(t, "Scheduled closing", info.CloseReason)
	require.Equal(t, ReasonScheduled, info.CloseReasonType)
}

func TestTickClosesOnDayOff(t *testing.T) {
	clock := &fakeClock{}
	// Saturday 2025-03-15, 10:00: inside hours but not a scheduled day.
	clock.set(2025, time.March, 15, 10, 0)
	svc, _, _ := newTestService(t, Info{IsOpen: true, LastStatusChange: clock.at, Schedule: weekdaySchedule()}, clock)
	ctx := context.Background()

	require.True(t, svc.Tick(ctx))
	info := svc.Info(ctx)
	require.False(t, info.IsOpen)
	require.Equal(t, "Scheduled day off", info.CloseReason)

	// A closed store stays closed on a day off.
	require.False(t, svc.Tick(ctx))
}

func TestTickDisabledSchedule(t *testing.T) {
	clock := &fakeClock{}
	clock.set(2025, time.March, 17, 10, 0)
	svc, _, _ := newTestService(t, Info{IsOpen: false, LastStatusChange: clock.at}, clock)

	require.False(t, svc.Tick(context.Background()))
	require.False(t, svc.Info(context.Background()).IsOpen)
}

func TestTickWrapAroundMidnight(t *testing.T) {
	clock := &fakeClock{}
	schedule := Schedule{Enabled: true, OpenTime: "18:00", CloseTime: "02:00", DaysOfWeek: []int{0, 1, 2, 3, 4, 5, 6}}

	// Monday 23:30 is inside an 18:00-02:00 window.
	clock.set(2025, time.March, 17, 23, 30)
	svc, _, _ := newTestService(t, Info{IsOpen: false, LastStatusChange: clock.at, Schedule: schedule}, clock)
	ctx := context.Background()

	require.True(t, svc.Tick(ctx))
	require.True(t, svc.Info(ctx).IsOpen)

	// Tuesday 01:30 still is.
	clock.set(2025, time.March, 18, 1, 30)
	require.False(t, svc.Tick(ctx))

	// Tuesday 02:00 is not.
	clock.set(2025, time.March, 18, 2, 0)
	require.True(t, svc.Tick(ctx))
	require.False(t, svc.Info(ctx).IsOpen)
}

func TestLogsCapped(t *testing.T) {
	svc, _, _ := newTestService(t, Info{}, nil)
	ctx := context.Background()

	for i := 0; i < statusLogCap+10; i++ {
		svc.Toggle(ctx, "", "")
	}
	require.Len(t, svc.Logs(ctx, 0), statusLogCap)
	require.Len(t, svc.Logs(ctx, 5), 5)
}

func TestWithinHoursEdges(t *testing.T) {
	s := weekdaySchedule()
	require.True(t, s.withinHours(9*60))
	require.True(t, s.withinHours(20*60+59))
	require.False(t, s.withinHours(21*60))
	require.False(t, s.withinHours(8*60+59))

	zero := Schedule{Enabled: true, OpenTime: "09:00", CloseTime: "09:00"}
	require.False(t, zero.withinHours(9*60))
}
