package showdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhpenta/showdown/ratelimiter"
)

// Manager routes generations to registered providers and runs comparisons
// in-process by fanning a prompt out to every requested provider.
type Manager struct {
	// Generator and model info per catalog provider id
	generators map[string]ImageGenerator
	modelInfo  map[string]*ModelInfo

	// Registration order, used to build the catalog
	order []string

	// Distinct registered generators, closed once each
	registered []ImageGenerator

	// Rate limiting (per provider)
	rateLimiters ratelimiter.Registry

	// Base config copied for every comparison generation
	defaultConfig *GenerateConfig

	logger         *slog.Logger
	tokenEstimator TokenEstimator

	mu sync.RWMutex
}

// Ensure Manager implements Comparer.
var _ Comparer = (*Manager)(nil)

// New creates an empty Manager.
func New() *Manager {
	return &Manager{
		logger:         slog.Default(),
		generators:     make(map[string]ImageGenerator),
		modelInfo:      make(map[string]*ModelInfo),
		rateLimiters:   ratelimiter.NewRegistry(),
		defaultConfig:  DefaultConfig(),
		tokenEstimator: NewSimpleTokenEstimator(),
	}
}

// Register adds every model the generator advertises, keyed by the model's provider id.
// A later registration for the same id replaces the earlier one.
func (m *Manager) Register(gen ImageGenerator) *Manager {
	models := gen.Models()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.registered = append(m.registered, gen)
	for i := range models {
		info := models[i]
		m.registerLocked(&info, gen)
	}
	return m
}

func (m *Manager) registerLocked(info *ModelInfo, gen ImageGenerator) {
	id := info.Provider.ID
	if _, exists := m.generators[id]; !exists {
		m.order = append(m.order, id)
	}
	m.generators[id] = gen
	m.modelInfo[id] = info

	// Default in-memory limiter from the model's limits
	if info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0 {
		m.rateLimiters.Set(id, ratelimiter.New(
			info.RateLimits.TokensPerMinute,
			info.RateLimits.RequestsPerMinute,
		))
	}
}

// SetRateLimiter sets a custom rate limiter for a provider.
func (m *Manager) SetRateLimiter(providerID string, limiter ratelimiter.Limiter) *Manager {
	m.rateLimiters.Set(providerID, limiter)
	return m
}

// SetLogger sets a structured logger for the manager.
func (m *Manager) SetLogger(logger *slog.Logger) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logger = logger
	return m
}

// Generate creates images from a text prompt with the provider named in config.Provider.
func (m *Manager) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*GenerateResult, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}

	provider := config.Provider
	start := time.Now()
	logger := m.getLogger()

	logger.Debug("starting image generation",
		"provider", provider,
		"request_id", config.RequestID,
		"prompt_length", len(prompt),
	)

	gen, actualConfig, err := m.getGeneratorForConfig(config)
	if err != nil {
		logger.Error("failed to get generator",
			"provider", provider,
			"error", err.Error(),
		)
		return nil, err
	}

	if err := m.checkRateLimit(ctx, provider, config, prompt); err != nil {
		logger.Warn("rate limit hit",
			"provider", provider,
			"error", err.Error(),
		)
		return nil, err
	}

	result, err := gen.Generate(ctx, prompt, actualConfig)
	duration := time.Since(start)

	if err != nil {
		logger.Error("generation failed",
			"provider", provider,
			"request_id", config.RequestID,
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	logAttrs := []any{
		"provider", provider,
		"request_id", config.RequestID,
		"duration_ms", duration.Milliseconds(),
		"image_count", len(result.Images),
	}
	if result.UsageMetadata != nil {
		logAttrs = append(logAttrs,
			"prompt_tokens", result.UsageMetadata.PromptTokens,
			"total_tokens", result.UsageMetadata.TotalTokens,
		)
	}
	logger.Info("generation completed", logAttrs...)

	return result, nil
}

// Compare runs the prompt against every requested provider concurrently.
// Results come back in request order; a provider that fails is reported as
// an error result rather than failing the comparison.
func (m *Manager) Compare(ctx context.Context, req *ComparisonRequest) ([]ProviderResult, error) {
	if req == nil {
		return nil, invalid(ErrEmptyPrompt, "no request")
	}
	// A zero ComparisonRequest carries no prompt or providers.
	if err := ValidatePrompt(req.Prompt()); err != nil {
		return nil, err
	}
	ids := req.ProviderIDs()
	if err := ValidateProviderIDs(ids); err != nil {
		return nil, err
	}

	start := time.Now()
	results := make([]ProviderResult, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = m.compareOne(ctx, req, id)
		}()
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Status == StatusError {
			failed++
		}
	}
	m.getLogger().Info("comparison finished",
		"request_id", req.ID(),
		"providers", len(ids),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return results, nil
}

func (m *Manager) compareOne(ctx context.Context, req *ComparisonRequest, providerID string) ProviderResult {
	m.mu.RLock()
	config := m.defaultConfig.ForProvider(providerID)
	m.mu.RUnlock()
	config.RequestID = req.ID()

	result, err := m.Generate(ctx, req.Prompt(), config)
	if err != nil {
		return FailureResult(providerID, err.Error())
	}

	url := result.FirstImageURL()
	if url == "" {
		return FailureResult(providerID, ErrNoImage.Error())
	}
	return SuccessResult(providerID, url)
}

// Catalog returns the registered providers in registration order.
func (m *Manager) Catalog() *Catalog {
	m.mu.RLock()
	defer m.mu.RUnlock()

	providers := make([]Provider, 0, len(m.order))
	for _, id := range m.order {
		providers = append(providers, m.modelInfo[id].Provider)
	}
	// Ids are unique by construction.
	return MustCatalog(providers...)
}

// Models returns model info for every registered provider in registration order.
func (m *Manager) Models() []ModelInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	models := make([]ModelInfo, 0, len(m.order))
	for _, id := range m.order {
		models = append(models, *m.modelInfo[id])
	}
	return models
}

// GetModelInfo returns model information for one provider.
func (m *Manager) GetModelInfo(providerID string) (*ModelInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.modelInfo[providerID]
	return info, ok
}

// Close releases all generator resources.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, gen := range m.registered {
		if err := gen.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing generator: %w", err))
		}
	}
	m.registered = nil
	m.generators = make(map[string]ImageGenerator)
	m.modelInfo = make(map[string]*ModelInfo)
	m.order = nil

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func (m *Manager) getLogger() *slog.Logger {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.logger
}

// getGeneratorForConfig returns the generator and a config carrying its API model name.
func (m *Manager) getGeneratorForConfig(config *GenerateConfig) (ImageGenerator, *GenerateConfig, error) {
	m.mu.RLock()
	gen, ok := m.generators[config.Provider]
	info := m.modelInfo[config.Provider]
	m.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrProviderNotRegistered, config.Provider)
	}

	configCopy := *config
	if configCopy.Model == "" && info != nil {
		configCopy.Model = info.APIModelName
	}
	return gen, &configCopy, nil
}
