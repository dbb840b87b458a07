package ratelimiter

import (
	"fmt"
	"sync"
)

// Registry holds one limiter per provider id.
type Registry interface {
	Get(providerID string) (Limiter, error)
	Set(providerID string, limiter Limiter)
}

type mapRegistry struct {
	limiters map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates an in-memory registry.
func NewRegistry() Registry {
	return &mapRegistry{
		limiters: make(map[string]Limiter),
	}
}

func (r *mapRegistry) Get(providerID string) (Limiter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, ok := r.limiters[providerID]
	if !ok {
		return nil, fmt.Errorf("no rate limiter for provider: %s", providerID)
	}
	return limiter, nil
}

func (r *mapRegistry) Set(providerID string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limiters[providerID] = limiter
}
