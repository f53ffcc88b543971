// Package kv provides the single key-value namespace the tracker persists into.
package kv

import "context"

// Well-known keys of the namespace.
const (
	KeyMachines          = "machines"
	KeyTheme             = "theme"
	KeyPushSubscriptions = "push_subscriptions"
)

// Backend stores opaque values by key. Get returns (nil, nil) for a missing key.
// Set replaces the whole value in one write.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
