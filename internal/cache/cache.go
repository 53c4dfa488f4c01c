// Package cache provides the injected cache abstraction shared by the
// external result cache and the category-average-price cache. Writes are
// idempotent recomputations, so last-writer-wins semantics are acceptable.
package cache

import (
	"context"
	"time"
)

// Cache is the minimal get/set/expire surface both implementations satisfy.
type Cache interface {
	// Get returns the value and whether the key was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
