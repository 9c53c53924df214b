package presence

import (
	"context"
	"time"
)

// Store tracks live connections per user with a TTL per (user, connection)
// entry. A user is online while at least one unexpired entry exists, so
// any instance can answer the question statelessly.
type Store interface {
	// Touch records or refreshes a connection entry.
	Touch(ctx context.Context, userID, connID string, ttl time.Duration) error

	// Remove drops a connection entry and stamps last-seen.
	Remove(ctx context.Context, userID, connID string) error

	IsOnline(ctx context.Context, userID string) (bool, error)
	LastSeen(ctx context.Context, userID string) (time.Time, bool, error)
}
