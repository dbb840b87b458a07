package showdown

import (
	"log/slog"
)

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithLogger sets a structured logger for the manager.
func WithLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithGenerators registers the given generators.
func WithGenerators(gens ...ImageGenerator) ManagerOption {
	return func(m *Manager) {
		for _, gen := range gens {
			m.Register(gen)
		}
	}
}

// WithDefaultConfig sets the base config used for every generation in a comparison.
func WithDefaultConfig(config *GenerateConfig) ManagerOption {
	return func(m *Manager) {
		if config != nil {
			m.defaultConfig = config
		}
	}
}

// WithTokenEstimator replaces the estimator used to charge prompts against rate limits.
func WithTokenEstimator(estimator TokenEstimator) ManagerOption {
	return func(m *Manager) {
		m.tokenEstimator = estimator
	}
}

// NewManager creates a Manager with the given options.
//
// Example:
//
//	dalle, err := openai.New(openai.Config{APIKey: key})
//	if err != nil {
//	    return err
//	}
//	manager := showdown.NewManager(
//	    showdown.WithGenerators(dalle, falGen),
//	    showdown.WithLogger(slog.Default()),
//	)
//	session := showdown.NewSession(manager)
func NewManager(opts ...ManagerOption) *Manager {
	m := New()
	for _, opt := range opts {
		opt(m)
	}
	return m
}
