package showdown

import (
	"context"
	"sync"
)

// MockImageGenerator is a mock implementation of ImageGenerator.
type MockImageGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error)
	ModelsFunc   func() []ModelInfo
	CloseFunc    func() error
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt, config)
	}
	return &GenerateResult{}, nil
}

func (m *MockImageGenerator) Models() []ModelInfo {
	if m.ModelsFunc != nil {
		return m.ModelsFunc()
	}
	return []ModelInfo{}
}

func (m *MockImageGenerator) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// mockComparer records every request it receives.
type mockComparer struct {
	CompareFunc func(ctx context.Context, req *ComparisonRequest) ([]ProviderResult, error)

	mu    sync.Mutex
	calls []*ComparisonRequest
}

func (m *mockComparer) Compare(ctx context.Context, req *ComparisonRequest) ([]ProviderResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CompareFunc != nil {
		return m.CompareFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockComparer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// staticModel returns a ModelsFunc advertising a single provider.
func staticModel(id string, limits RateLimits) func() []ModelInfo {
	return func() []ModelInfo {
		return []ModelInfo{{
			Provider:     Provider{ID: id, Name: id},
			APIModelName: id + "-api",
			Backend:      "mock",
			RateLimits:   limits,
		}}
	}
}

// imageResult returns a GenerateFunc producing one hosted image.
func imageResult(url string) func(context.Context, string, *GenerateConfig) (*GenerateResult, error) {
	return func(context.Context, string, *GenerateConfig) (*GenerateResult, error) {
		return &GenerateResult{Images: []GeneratedImage{{URL: url}}}, nil
	}
}
