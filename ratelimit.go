package showdown

import (
	"context"
	"math"
	"unicode/utf8"

	"github.com/mhpenta/showdown/ratelimiter"
)

// promptOverhead is charged on top of the estimated prompt tokens for every generation.
const promptOverhead = 100

// TokenEstimator estimates how many tokens a prompt costs against a rate limit.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// SimpleTokenEstimator approximates four characters per token, padded by SafetyMargin.
type SimpleTokenEstimator struct {
	SafetyMargin float64
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{SafetyMargin: 1.2}
}

func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	estimate := float64(utf8.RuneCountInString(text)) / 4.0 * e.SafetyMargin
	return int(math.Ceil(estimate)) + 3
}

// checkRateLimit charges the prompt against the provider's limiter, waiting if configured to.
func (m *Manager) checkRateLimit(ctx context.Context, providerID string, config *GenerateConfig, prompt string) error {
	limiter, err := m.rateLimiters.Get(providerID)
	if err != nil {
		// No limiter configured for this provider.
		return nil
	}

	m.mu.RLock()
	estimator := m.tokenEstimator
	m.mu.RUnlock()

	tokens := estimator.EstimateTokens(prompt) + promptOverhead

	if config.WaitOnRateLimit {
		if err := limiter.WaitAndConsume(ctx, tokens, config.MaxWaitDuration); err != nil {
			return &RateLimitError{
				RetryAfter: limiter.TimeUntilAvailable(tokens),
				LimitType:  limitType(limiter, tokens),
				Provider:   providerID,
				Err:        err,
			}
		}
		return nil
	}

	if !limiter.TryConsume(tokens) {
		return &RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(tokens),
			LimitType:  limitType(limiter, tokens),
			Provider:   providerID,
		}
	}
	return nil
}

// limitType names the budget that refused. A budget that refilled since the
// refusal is reported as tokens.
func limitType(limiter ratelimiter.Limiter, tokens int) string {
	if t := limiter.Blocking(tokens); t != "" {
		return t
	}
	return ratelimiter.LimitTokens
}
