// Package ratelimiter provides per-provider token and request budgets.
package ratelimiter

import (
	"context"
	"time"
)

// Budget names reported by Limiter.Blocking.
const (
	LimitTokens   = "tokens"
	LimitRequests = "requests"
)

// Limiter defines the interface for rate limiters.
// Implementations can be local (in-memory) or distributed.
type Limiter interface {
	// TryConsume atomically checks capacity and consumes tokens plus one request if available.
	TryConsume(tokens int) bool

	// TimeUntilAvailable returns how long until tokens would be available (read-only).
	TimeUntilAvailable(tokens int) time.Duration

	// Blocking reports which budget would refuse tokens right now:
	// LimitTokens, LimitRequests, or "" if the request fits (read-only).
	Blocking(tokens int) string

	// WaitAndConsume waits until tokens are available, then consumes them.
	// Returns an error if ctx is done or maxWait would be exceeded.
	WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error
}
