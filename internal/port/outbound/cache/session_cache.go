package cache

import (
	"context"
	"time"

	"github.com/0xsj/overwatch-payments/internal/domain/model"
)

// SessionCache defines the interface for stored session caching.
// Used to avoid a database round trip on every protocol round.
type SessionCache interface {
	// Get retrieves a session from the cache.
	// Returns nil if not found (cache miss).
	Get(ctx context.Context, sessionID string) (*model.StoredSession, error)

	// Set stores a session in the cache with TTL.
	Set(ctx context.Context, session *model.StoredSession, ttl time.Duration) error

	// Delete removes a session from the cache.
	Delete(ctx context.Context, sessionID string) error
}
