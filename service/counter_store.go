// service/counter_store.go
package service

import (
	"context"
	"time"
)

// CounterStore is the contract the rate limiter needs from the shared counter
// store. All cross-request coordination is delegated to the store's atomic
// primitives; implementations must never emulate Increment with a
// read-modify-write at the client.
//
// A missing key reads as (0, false) from Get, never as an error; store faults
// are reported wrapping errors.ErrStoreUnavailable.
type CounterStore interface {
	// Increment atomically adds 1 to key and returns the post-increment value.
	Increment(ctx context.Context, key string) (int64, error)
	// SetExpiryIfAbsent arms an expiry only if none is set and reports whether
	// it took effect.
	SetExpiryIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the current count and whether the key exists.
	Get(ctx context.Context, key string) (int64, bool, error)
	// TTL returns the remaining lifetime and whether an expiry is armed.
	TTL(ctx context.Context, key string) (time.Duration, bool, error)
	// Delete removes the key.
	Delete(ctx context.Context, key string) error
}
