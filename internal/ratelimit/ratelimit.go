package ratelimit

import (
	"context"
	"time"
)

// Limiter bounds request rates per key over a one-minute window. The
// limit is supplied per call so premium callers can get a higher quota
// on the same backend.
type Limiter interface {
	// Allow reports whether the request identified by key fits within
	// limit requests per minute. It returns the remaining quota and the
	// time the current window resets.
	Allow(ctx context.Context, key string, limit int) (bool, int, time.Time, error)

	// Reset clears the counter for a key.
	Reset(ctx context.Context, key string) error
}
