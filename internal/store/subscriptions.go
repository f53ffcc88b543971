package store

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/model"
)

// SubscriptionStore keeps browser push subscriptions under one key.
type SubscriptionStore struct {
	backend kv.Backend
	log     *zap.Logger
	now     func() time.Time
	mu      sync.Mutex
}

// SubscriptionOption configures a SubscriptionStore.
type SubscriptionOption func(*SubscriptionStore)

// WithSubscriptionLogger sets the logger used to report unreadable stored data.
func WithSubscriptionLogger(l *zap.Logger) SubscriptionOption {
	return func(s *SubscriptionStore) { s.log = l }
}

// NewSubscriptionStore creates a SubscriptionStore.
func NewSubscriptionStore(backend kv.Backend, opts ...SubscriptionOption) *SubscriptionStore {
	s := &SubscriptionStore{backend: backend, log: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put creates or replaces the subscription with the same endpoint.
func (s *SubscriptionStore) Put(ctx context.Context, sub model.PushSubscription) error {
	switch {
	case strings.TrimSpace(sub.Endpoint) == "":
		return invalid("endpoint", "is required")
	case sub.P256DH == "":
		return invalid("p256dh", "is required")
	case sub.Auth == "":
		return invalid("auth", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	if i := s.index(subs, sub.Endpoint); i >= 0 {
		sub.CreatedAt = subs[i].CreatedAt
		subs[i] = sub
	} else {
		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = s.now().UTC()
		}
		subs = append(subs, sub)
	}
	return s.save(ctx, subs)
}

// Get returns the subscription for endpoint.
func (s *SubscriptionStore) Get(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	subs, err := s.List(ctx)
	if err != nil {
		return model.PushSubscription{}, err
	}
	if i := s.index(subs, endpoint); i >= 0 {
		return subs[i], nil
	}
	return model.PushSubscription{}, ErrNotFound
}

// List returns all subscriptions.
func (s *SubscriptionStore) List(ctx context.Context) ([]model.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Delete removes the subscription for endpoint. A missing endpoint is a no-op.
func (s *SubscriptionStore) Delete(ctx context.Context, endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs, err := s.load(ctx)
	if err != nil {
		return err
	}
	i := s.index(subs, endpoint)
	if i < 0 {
		return nil
	}
	return s.save(ctx, slices.Delete(subs, i, i+1))
}

func (s *SubscriptionStore) index(subs []model.PushSubscription, endpoint string) int {
	return slices.IndexFunc(subs, func(p model.PushSubscription) bool { return p.Endpoint == endpoint })
}

func (s *SubscriptionStore) load(ctx context.Context) ([]model.PushSubscription, error) {
	raw, err := s.backend.Get(ctx, kv.KeyPushSubscriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	var subs []model.PushSubscription
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &subs); err != nil {
			s.log.Warn("stored subscriptions are unreadable, treating as empty", zap.Error(err))
			return []model.PushSubscription{}, nil
		}
	}
	return subs, nil
}

func (s *SubscriptionStore) save(ctx context.Context, subs []model.PushSubscription) error {
	raw, err := json.Marshal(subs)
	if err != nil {
		return fmt.Errorf("failed to encode subscriptions: %w", err)
	}
	if err := s.backend.Set(ctx, kv.KeyPushSubscriptions, raw); err != nil {
		return fmt.Errorf("failed to save subscriptions: %w", err)
	}
	return nil
}
