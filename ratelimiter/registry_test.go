package ratelimiter

import (
	"sync"
	"testing"
)

func TestRegistry(t *testing.T) {
	registry := NewRegistry()

	if _, err := registry.Get("sd"); err == nil {
		t.Error("expected error for unknown provider, got nil")
	}

	limiter := New(100, 10)
	registry.Set("sd", limiter)

	got, err := registry.Get("sd")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != limiter {
		t.Error("retrieved limiter does not match the one set")
	}

	replacement := New(200, 20)
	registry.Set("sd", replacement)
	if got, _ := registry.Get("sd"); got != replacement {
		t.Error("Set should replace an existing limiter")
	}
}

func TestRegistry_Concurrent(t *testing.T) {
	registry := NewRegistry()
	ids := []string{"sd", "mj", "dalle", "fal"}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := ids[i%len(ids)]
			registry.Set(id, New(10, 1))
			if _, err := registry.Get(id); err != nil {
				t.Errorf("get %s: %v", id, err)
			}
		}()
	}
	wg.Wait()
}
