package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrExceedsCapacity is returned when a request can never fit in the budget.
	ErrExceedsCapacity = errors.New("request exceeds rate limit capacity")

	// ErrWaitTooLong is returned when capacity would free up only after maxWait.
	ErrWaitTooLong = errors.New("rate limit wait exceeds max wait")
)

// Option configures a RateLimiter.
type Option func(*RateLimiter)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(rl *RateLimiter) {
		rl.now = now
	}
}

// WithInterval changes the refill window (default one minute).
func WithInterval(d time.Duration) Option {
	return func(rl *RateLimiter) {
		rl.interval = d
	}
}

// WithTimer replaces time.After used while waiting, mainly for tests.
func WithTimer(after func(time.Duration) <-chan time.Time) Option {
	return func(rl *RateLimiter) {
		rl.after = after
	}
}

// RateLimiter keeps a token budget and a request budget that both refill in
// full at the start of every interval. A limit of zero or less is unlimited.
type RateLimiter struct {
	tokens   bucket
	requests bucket

	interval time.Duration
	now      func() time.Time
	after    func(time.Duration) <-chan time.Time

	mu sync.Mutex
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

type bucket struct {
	capacity   int
	remaining  int
	lastRefill time.Time
}

func (b *bucket) unlimited() bool { return b.capacity <= 0 }

func (b *bucket) refill(now time.Time, interval time.Duration) {
	if now.Sub(b.lastRefill) >= interval {
		b.remaining = b.capacity
		b.lastRefill = now
	}
}

func (b *bucket) fits(n int) bool {
	return b.unlimited() || n <= b.remaining
}

func (b *bucket) wait(n int, now time.Time, interval time.Duration) time.Duration {
	if b.fits(n) {
		return 0
	}
	return b.lastRefill.Add(interval).Sub(now)
}

// New creates a limiter allowing tokensPerMinute tokens and requestsPerMinute requests.
func New(tokensPerMinute, requestsPerMinute int, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		interval: time.Minute,
		now:      time.Now,
		after:    time.After,
	}
	for _, opt := range opts {
		opt(rl)
	}

	start := rl.now()
	rl.tokens = bucket{capacity: tokensPerMinute, remaining: tokensPerMinute, lastRefill: start}
	rl.requests = bucket{capacity: requestsPerMinute, remaining: requestsPerMinute, lastRefill: start}
	return rl
}

// TryConsume consumes tokens and one request only if both budgets allow it.
func (rl *RateLimiter) TryConsume(tokens int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens.refill(now, rl.interval)
	rl.requests.refill(now, rl.interval)

	if !rl.tokens.fits(tokens) || !rl.requests.fits(1) {
		return false
	}
	if !rl.tokens.unlimited() {
		rl.tokens.remaining -= tokens
	}
	if !rl.requests.unlimited() {
		rl.requests.remaining--
	}
	return true
}

// TimeUntilAvailable returns how long until tokens and one request fit.
// It returns a negative duration if the tokens exceed the capacity.
func (rl *RateLimiter) TimeUntilAvailable(tokens int) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.tokens.unlimited() && tokens > rl.tokens.capacity {
		return -1
	}

	now := rl.now()
	tokens0, requests0 := rl.tokens, rl.requests
	tokens0.refill(now, rl.interval)
	requests0.refill(now, rl.interval)

	return max(tokens0.wait(tokens, now, rl.interval), requests0.wait(1, now, rl.interval), 0)
}

// Blocking reports which budget would refuse tokens right now. The token
// budget is reported first when both are short.
func (rl *RateLimiter) Blocking(tokens int) string {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	tokens0, requests0 := rl.tokens, rl.requests
	tokens0.refill(now, rl.interval)
	requests0.refill(now, rl.interval)

	switch {
	case !tokens0.fits(tokens):
		return LimitTokens
	case !requests0.fits(1):
		return LimitRequests
	default:
		return ""
	}
}

// WaitAndConsume waits until tokens are available (up to maxWait), then consumes them.
// If maxWait is 0, there is no limit on how long to wait.
func (rl *RateLimiter) WaitAndConsume(ctx context.Context, tokens int, maxWait time.Duration) error {
	var waited time.Duration
	for {
		if rl.TryConsume(tokens) {
			return nil
		}

		wait := rl.TimeUntilAvailable(tokens)
		if wait < 0 {
			return fmt.Errorf("%w: %d tokens", ErrExceedsCapacity, tokens)
		}
		if maxWait > 0 && waited+wait > maxWait {
			return fmt.Errorf("%w: need %v, max %v", ErrWaitTooLong, waited+wait, maxWait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rl.after(wait):
			waited += wait
		}
	}
}

// Remaining returns the tokens and requests left in the current interval.
// Unlimited budgets report -1.
func (rl *RateLimiter) Remaining() (tokens, requests int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.tokens.refill(now, rl.interval)
	rl.requests.refill(now, rl.interval)

	tokens, requests = rl.tokens.remaining, rl.requests.remaining
	if rl.tokens.unlimited() {
		tokens = -1
	}
	if rl.requests.unlimited() {
		requests = -1
	}
	return tokens, requests
}
