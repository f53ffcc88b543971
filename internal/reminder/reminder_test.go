package reminder

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-tracker/config"
	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/metrics"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/notification"
	"maintenance-tracker/internal/status"
	"maintenance-tracker/internal/store"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	got  []notification.Reminder
	fail error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, r notification.Reminder) error {
	if d.fail != nil {
		return d.fail
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.got = append(d.got, r)
	return nil
}

type failingLister struct{}

func (failingLister) List(context.Context) ([]model.Machine, error) {
	return nil, errors.New("backend down")
}

// 2024-01-11 23:30 UTC is already 2024-01-12 in Tokyo.
var scanTime = time.Date(2024, time.January, 11, 23, 30, 0, 0, time.UTC)

func seededStore(t *testing.T) store.Store {
	t.Helper()
	s := store.New(kv.NewMemory())
	jan1 := model.NewDate(2024, time.January, 1)
	for _, in := range []store.NewMachine{
		{Name: "Lathe", Type: "CNC", LastServiced: jan1, Interval: 10},
		{Name: "Pump", Type: "Hydraulic", LastServiced: jan1, Interval: 5},
		{Name: "Mill", Type: "CNC", LastServiced: jan1, Interval: 90},
	} {
		_, err := s.Create(context.Background(), in)
		require.NoError(t, err)
	}
	return s
}

func TestScanOnce(t *testing.T) {
	d := &recordingDispatcher{}
	rec := metrics.NewRecorder(prom.NewRegistry())
	svc := NewService(config.ReminderConfig{}, time.UTC, seededStore(t), d,
		WithClock(func() time.Time { return scanTime }),
		WithMetrics(rec),
	)

	sum, err := svc.ScanOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2024-01-11", sum.Today.String())
	assert.Equal(t, map[status.Status]int{status.OK: 1, status.DueSoon: 1, status.Overdue: 1}, sum.Counts)
	assert.Equal(t, 2, sum.Dispatched)

	require.Len(t, d.got, 2)
	byName := map[string]notification.Reminder{}
	for _, r := range d.got {
		byName[r.Name] = r
	}
	assert.Equal(t, status.DueSoon, byName["Lathe"].Status)
	assert.Equal(t, 0, byName["Lathe"].DaysRemaining)
	assert.Equal(t, status.Overdue, byName["Pump"].Status)
	assert.Equal(t, -5, byName["Pump"].DaysRemaining)
	assert.Equal(t, "2024-01-06", byName["Pump"].NextServiceDate.String())
}

func TestScanOnce_UsesConfiguredTimezone(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	d := &recordingDispatcher{}
	svc := NewService(config.ReminderConfig{}, tokyo, seededStore(t), d,
		WithClock(func() time.Time { return scanTime }))

	sum, err := svc.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-01-12", sum.Today.String())
	assert.Equal(t, 2, sum.Counts[status.Overdue], "the lathe turns overdue a day after its due date")
}

func TestScanOnce_WithoutPool(t *testing.T) {
	svc := NewService(config.ReminderConfig{}, time.UTC, seededStore(t), nil,
		WithClock(func() time.Time { return scanTime }))

	sum, err := svc.ScanOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.Dispatched)
	assert.Equal(t, 3, sum.Counts[status.OK]+sum.Counts[status.DueSoon]+sum.Counts[status.Overdue])
}

func TestScanOnce_Errors(t *testing.T) {
	t.Run("list failure", func(t *testing.T) {
		svc := NewService(config.ReminderConfig{}, time.UTC, failingLister{}, &recordingDispatcher{})
		_, err := svc.ScanOnce(context.Background())
		assert.ErrorContains(t, err, "backend down")
	})

	t.Run("dispatch failure", func(t *testing.T) {
		d := &recordingDispatcher{fail: context.Canceled}
		svc := NewService(config.ReminderConfig{}, time.UTC, seededStore(t), d,
			WithClock(func() time.Time { return scanTime }))
		_, err := svc.ScanOnce(context.Background())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStart(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		svc := NewService(config.ReminderConfig{Enabled: false, Schedule: "not a schedule"}, time.UTC, seededStore(t), nil)
		assert.NoError(t, svc.Start(context.Background()))
		svc.Stop()
	})

	t.Run("invalid schedule", func(t *testing.T) {
		svc := NewService(config.ReminderConfig{Enabled: true, Schedule: "every tuesday"}, time.UTC, seededStore(t), nil)
		assert.ErrorContains(t, svc.Start(context.Background()), "invalid reminder schedule")
	})

	t.Run("valid schedule", func(t *testing.T) {
		svc := NewService(config.ReminderConfig{Enabled: true, Schedule: "0 8 * * *"}, time.UTC, seededStore(t), nil)
		require.NoError(t, svc.Start(context.Background()))
		assert.Len(t, svc.cron.Entries(), 1)
		svc.Stop()
	})
}

func TestRun_ScansThenStopsOnCancel(t *testing.T) {
	d := &recordingDispatcher{}
	svc := NewService(config.ReminderConfig{Enabled: true, Schedule: "0 8 * * *"}, time.UTC, seededStore(t), d,
		WithClock(func() time.Time { return scanTime }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.got) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type blockingDispatcher struct {
	entered atomic.Bool
}

func (d *blockingDispatcher) Dispatch(ctx context.Context, _ notification.Reminder) error {
	d.entered.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func TestStop_CancelsBlockedScheduledScan(t *testing.T) {
	d := &blockingDispatcher{}
	svc := NewService(config.ReminderConfig{Enabled: true, Schedule: "@every 1s"}, time.UTC, seededStore(t), d,
		WithClock(func() time.Time { return scanTime }))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, svc.Start(ctx))
	require.Eventually(t, d.entered.Load, 3*time.Second, 10*time.Millisecond)

	cancel()
	stopped := make(chan struct{})
	go func() {
		svc.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop waited on a scan whose context had ended")
	}
}
