// Package notification delivers service reminders as web push messages.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"maintenance-tracker/internal/logging"
	"maintenance-tracker/internal/metrics"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/status"
)

// Sender delivers one web push message.
type Sender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender sends through the webpush library.
type WebPushSender struct{}

func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Subscriptions is the part of the subscription store the pool needs.
type Subscriptions interface {
	List(ctx context.Context) ([]model.PushSubscription, error)
	Delete(ctx context.Context, endpoint string) error
}

// Reminder is one machine that needs attention.
type Reminder struct {
	MachineID       int64         `json:"machineId"`
	Name            string        `json:"name"`
	Type            string        `json:"type"`
	Status          status.Status `json:"status"`
	NextServiceDate model.Date    `json:"nextServiceDate"`
	DaysRemaining   int           `json:"daysRemaining"`
}

// Message is the push payload.
type Message struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Reminder Reminder `json:"reminder"`
}

// NewMessage renders the text for r.
func NewMessage(r Reminder) Message {
	var body string
	switch {
	case r.Status == status.Overdue:
		body = fmt.Sprintf("%s (%s) was due on %s, %d day(s) ago.", r.Name, r.Type, r.NextServiceDate, -r.DaysRemaining)
	case r.DaysRemaining == 0:
		body = fmt.Sprintf("%s (%s) is due for service today.", r.Name, r.Type)
	default:
		body = fmt.Sprintf("%s (%s) is due on %s, in %d day(s).", r.Name, r.Type, r.NextServiceDate, r.DaysRemaining)
	}
	return Message{Title: "Maintenance " + string(r.Status), Body: body, Reminder: r}
}

// WorkerPool fans reminders out to subscribed browsers.
type WorkerPool struct {
	size    int
	jobs    chan Reminder
	subs    Subscriptions
	webpush *webpush.Options
	sender  Sender
	log     *zap.Logger
	metrics *metrics.Recorder
	wg      sync.WaitGroup
}

type Option func(*WorkerPool)

func WithSender(s Sender) Option { return func(wp *WorkerPool) { wp.sender = s } }

func WithLogger(l *zap.Logger) Option { return func(wp *WorkerPool) { wp.log = logging.OrNop(l) } }

func WithMetrics(m *metrics.Recorder) Option { return func(wp *WorkerPool) { wp.metrics = m } }

func NewWorkerPool(size int, subs Subscriptions, webpushOptions *webpush.Options, opts ...Option) *WorkerPool {
	if size < 1 {
		size = 1
	}
	wp := &WorkerPool{
		size:    size,
		jobs:    make(chan Reminder, size*8),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(wp)
	}
	return wp
}

// Start launches the workers. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	log := wp.log.With(zap.Int("worker", id))
	log.Debug("worker started")
	for {
		select {
		case r := <-wp.jobs:
			log.Debug("processing reminder", zap.Int64("machine_id", r.MachineID), zap.String("status", string(r.Status)))
			wp.deliver(ctx, r)
		case <-ctx.Done():
			log.Debug("worker shutting down")
			return
		}
	}
}

// Dispatch queues r, blocking while the queue is full.
func (wp *WorkerPool) Dispatch(ctx context.Context, r Reminder) error {
	select {
	case wp.jobs <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs exposes the queue for tests.
func (wp *WorkerPool) Jobs() chan Reminder {
	return wp.jobs
}

func (wp *WorkerPool) deliver(ctx context.Context, r Reminder) {
	subs, err := wp.subs.List(ctx)
	if err != nil {
		wp.log.Error("listing subscriptions", zap.Int64("machine_id", r.MachineID), zap.Error(err))
		return
	}

	payload, err := json.Marshal(NewMessage(r))
	if err != nil {
		wp.log.Error("encoding reminder", zap.Int64("machine_id", r.MachineID), zap.Error(err))
		return
	}

	for _, sub := range subs {
		if !sub.Wants(r.MachineID) {
			continue
		}
		wp.send(ctx, sub, payload)
	}
}

func (wp *WorkerPool) send(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.metrics.IncPushResult("failed")
		wp.log.Warn("sending notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		wp.metrics.IncPushResult("expired")
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.subs.Delete(ctx, sub.Endpoint); err != nil {
			wp.log.Error("deleting expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	case resp.StatusCode >= 400:
		wp.metrics.IncPushResult("failed")
		wp.log.Warn("push service rejected notification", zap.String("endpoint", sub.Endpoint), zap.Int("status", resp.StatusCode))
	default:
		wp.metrics.IncPushResult("sent")
	}
}
