package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/model"
	"maintenance-tracker/internal/status"
	"maintenance-tracker/internal/store"
)

// mockSender records every send and answers with a fixed status.
type mockSender struct {
	mu     sync.Mutex
	status int
	err    error
	sent   map[string][]byte
	done   chan struct{}
}

func newMockSender(status int) *mockSender {
	return &mockSender{status: status, sent: map[string][]byte{}, done: make(chan struct{}, 16)}
}

func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, _ *webpush.Options) (*http.Response, error) {
	m.mu.Lock()
	m.sent[sub.Endpoint] = payload
	m.mu.Unlock()
	defer func() { m.done <- struct{}{} }()
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.status,
		Body:       io.NopCloser(bytes.NewBufferString("")),
	}, nil
}

func (m *mockSender) wait(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for send %d of %d", i+1, n)
		}
	}
}

func (m *mockSender) endpoints() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for e := range m.sent {
		out = append(out, e)
	}
	return out
}

func newSubs(t *testing.T, subs ...model.PushSubscription) *store.SubscriptionStore {
	t.Helper()
	s := store.NewSubscriptionStore(kv.NewMemory())
	for _, sub := range subs {
		require.NoError(t, s.Put(context.Background(), sub))
	}
	return s
}

func sub(endpoint string, machines ...int64) model.PushSubscription {
	return model.PushSubscription{Endpoint: endpoint, P256DH: "p256dh", Auth: "auth", Machines: machines}
}

var overdue = Reminder{
	MachineID:       101,
	Name:            "Lathe",
	Type:            "CNC",
	Status:          status.Overdue,
	NextServiceDate: model.NewDate(2024, time.January, 10),
	DaysRemaining:   -3,
}

func TestWorkerPool_Dispatch(t *testing.T) {
	wp := NewWorkerPool(1, newSubs(t), &webpush.Options{})

	require.NoError(t, wp.Dispatch(context.Background(), overdue))

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, overdue, job)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchHonoursContext(t *testing.T) {
	wp := NewWorkerPool(1, newSubs(t), &webpush.Options{})
	for i := 0; i < cap(wp.Jobs()); i++ {
		require.NoError(t, wp.Dispatch(context.Background(), overdue))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, wp.Dispatch(ctx, overdue), context.Canceled)
}

func TestWorkerPool_SendsToInterestedSubscriptions(t *testing.T) {
	subs := newSubs(t,
		sub("https://push.example/all"),
		sub("https://push.example/lathe", 101),
		sub("https://push.example/other", 202),
	)
	sender := newMockSender(http.StatusCreated)
	wp := NewWorkerPool(2, subs, &webpush.Options{}, WithSender(sender))

	ctx, cancel := context.WithCancel(context.Background())
	wp.Start(ctx)

	require.NoError(t, wp.Dispatch(ctx, overdue))
	sender.wait(t, 2)

	cancel()
	wp.Wait()

	assert.ElementsMatch(t, []string{"https://push.example/all", "https://push.example/lathe"}, sender.endpoints())

	var msg Message
	require.NoError(t, json.Unmarshal(sender.sent["https://push.example/all"], &msg))
	assert.Equal(t, "Maintenance Overdue", msg.Title)
	assert.Equal(t, "Lathe (CNC) was due on 2024-01-10, 3 day(s) ago.", msg.Body)
	assert.Equal(t, int64(101), msg.Reminder.MachineID)

	list, err := subs.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestWorkerPool_DeletesExpiredSubscription(t *testing.T) {
	subs := newSubs(t, sub("https://push.example/expired"))
	sender := newMockSender(http.StatusGone)
	wp := NewWorkerPool(1, subs, &webpush.Options{}, WithSender(sender))

	wp.deliver(context.Background(), overdue)

	sender.wait(t, 1)
	_, err := subs.Get(context.Background(), "https://push.example/expired")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestWorkerPool_KeepsSubscriptionOnFailure(t *testing.T) {
	subs := newSubs(t, sub("https://push.example/flaky"))
	sender := newMockSender(0)
	sender.err = errors.New("connection refused")
	wp := NewWorkerPool(1, subs, &webpush.Options{}, WithSender(sender))

	wp.deliver(context.Background(), overdue)

	sender.wait(t, 1)
	_, err := subs.Get(context.Background(), "https://push.example/flaky")
	assert.NoError(t, err)
}

func TestNewMessage(t *testing.T) {
	testCases := []struct {
		name     string
		reminder Reminder
		title    string
		body     string
	}{
		{
			name:     "Overdue",
			reminder: overdue,
			title:    "Maintenance Overdue",
			body:     "Lathe (CNC) was due on 2024-01-10, 3 day(s) ago.",
		},
		{
			name:     "Due today",
			reminder: Reminder{Name: "Pump", Type: "Hydraulic", Status: status.DueSoon, NextServiceDate: model.NewDate(2024, time.March, 1)},
			title:    "Maintenance Due Soon",
			body:     "Pump (Hydraulic) is due for service today.",
		},
		{
			name:     "Due in a few days",
			reminder: Reminder{Name: "Pump", Type: "Hydraulic", Status: status.DueSoon, NextServiceDate: model.NewDate(2024, time.March, 5), DaysRemaining: 4},
			title:    "Maintenance Due Soon",
			body:     "Pump (Hydraulic) is due on 2024-03-05, in 4 day(s).",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			msg := NewMessage(tc.reminder)
			assert.Equal(t, tc.title, msg.Title)
			assert.Equal(t, tc.body, msg.Body)
		})
	}
}
