// Package reminder periodically scans the records and queues reminders for
// machines that are due soon or overdue.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"maintenance-tracker/config"
	"maintenance-tracker/internal/logging"
	"maintenance-tracker/internal/metrics"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/notification"
	"maintenance-tracker/internal/status"
	"maintenance-tracker/internal/view"
)

// Lister is the read side of the record store.
type Lister interface {
	List(ctx context.Context) ([]model.Machine, error)
}

// Dispatcher accepts reminders for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, r notification.Reminder) error
}

// Summary reports one scan.
type Summary struct {
	Today      model.Date
	Counts     map[status.Status]int
	Dispatched int
}

// Service runs the reminder scan on a cron schedule.
type Service struct {
	cfg     config.ReminderConfig
	records Lister
	pool    Dispatcher
	loc     *time.Location
	now     status.Clock
	metrics *metrics.Recorder
	log     *zap.Logger
	cron    *cron.Cron
	timeout time.Duration
}

type Option func(*Service)

func WithClock(now status.Clock) Option { return func(s *Service) { s.now = now } }

func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.log = logging.OrNop(l) } }

func WithMetrics(m *metrics.Recorder) Option { return func(s *Service) { s.metrics = m } }

// NewService creates a Service. pool may be nil, in which case scans only
// refresh the status gauge.
func NewService(cfg config.ReminderConfig, loc *time.Location, records Lister, pool Dispatcher, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		cfg:     cfg,
		records: records,
		pool:    pool,
		loc:     loc,
		now:     time.Now,
		log:     zap.NewNop(),
		timeout: 2 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = cron.New(cron.WithLocation(loc))
	return s
}

// Start registers the scan on the configured schedule and starts the cron runner.
// Scheduled scans are cancelled when ctx ends. It does nothing when reminders
// are disabled.
func (s *Service) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("reminders disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.scheduledScan(ctx) }); err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", s.cfg.Schedule, err)
	}
	s.log.Info("starting reminder scheduler", zap.String("schedule", s.cfg.Schedule))
	s.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running scan to finish.
func (s *Service) Stop() {
	<-s.cron.Stop().Done()
}

// Run scans once, then on schedule, until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.log.Info("reminders disabled, not starting")
		return nil
	}
	if _, err := s.ScanOnce(ctx); err != nil {
		s.log.Error("initial reminder scan failed", zap.Error(err))
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.log.Info("reminder scheduler shutting down")
	s.Stop()
	return nil
}

func (s *Service) scheduledScan(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	if _, err := s.ScanOnce(ctx); err != nil {
		s.log.Error("reminder scan failed", zap.Error(err))
	}
}

// ScanOnce derives every record's status for today, refreshes the gauge and
// queues a reminder for each machine that is Due Soon or Overdue.
func (s *Service) ScanOnce(ctx context.Context) (Summary, error) {
	now := s.now()
	today := status.Today(now, s.loc)

	machines, err := s.records.List(ctx)
	if err != nil {
		return Summary{Today: today}, fmt.Errorf("failed to list machines: %w", err)
	}

	rows := view.Rows(machines, today)
	sum := Summary{Today: today, Counts: view.Counts(rows)}
	s.metrics.SetStatusCounts(sum.Counts, now)

	if s.pool == nil {
		return sum, nil
	}
	for _, r := range rows {
		if r.Status == status.OK {
			continue
		}
		err := s.pool.Dispatch(ctx, notification.Reminder{
			MachineID:       r.ID,
			Name:            r.Name,
			Type:            r.Type,
			Status:          r.Status,
			NextServiceDate: r.NextServiceDate,
			DaysRemaining:   r.DaysRemaining,
		})
		if err != nil {
			return sum, fmt.Errorf("failed to queue reminder for machine %d: %w", r.ID, err)
		}
		s.metrics.IncReminder(r.Status)
		sum.Dispatched++
	}

	s.log.Info("reminder scan finished",
		zap.String("today", today.String()),
		zap.Int("ok", sum.Counts[status.OK]),
		zap.Int("due_soon", sum.Counts[status.DueSoon]),
		zap.Int("overdue", sum.Counts[status.Overdue]),
		zap.Int("dispatched", sum.Dispatched))
	return sum, nil
}
