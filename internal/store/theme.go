package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"maintenance-tracker/internal/kv"
	"maintenance-tracker/internal/model"
)

// ThemeStore persists the light/dark preference, independent of record data.
type ThemeStore struct {
	backend kv.Backend
	mu      sync.Mutex
}

// NewThemeStore creates a ThemeStore.
func NewThemeStore(backend kv.Backend) *ThemeStore {
	return &ThemeStore{backend: backend}
}

// Get returns the saved theme. Missing or unknown values read as light.
func (s *ThemeStore) Get(ctx context.Context) (model.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx)
}

func (s *ThemeStore) get(ctx context.Context) (model.Theme, error) {
	raw, err := s.backend.Get(ctx, kv.KeyTheme)
	if err != nil {
		return "", fmt.Errorf("failed to load theme: %w", err)
	}
	t := model.Theme(strings.TrimSpace(string(raw)))
	if !t.Valid() {
		return model.ThemeLight, nil
	}
	return t, nil
}

// Set saves t.
func (s *ThemeStore) Set(ctx context.Context, t model.Theme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set(ctx, t)
}

func (s *ThemeStore) set(ctx context.Context, t model.Theme) error {
	if !t.Valid() {
		return invalid("theme", fmt.Sprintf("must be %q or %q", model.ThemeLight, model.ThemeDark))
	}
	if err := s.backend.Set(ctx, kv.KeyTheme, []byte(t)); err != nil {
		return fmt.Errorf("failed to save theme: %w", err)
	}
	return nil
}

// Toggle flips the saved theme and returns the new value.
func (s *ThemeStore) Toggle(ctx context.Context) (model.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.get(ctx)
	if err != nil {
		return "", err
	}
	next := cur.Toggled()
	if err := s.set(ctx, next); err != nil {
		return "", err
	}
	return next, nil
}
