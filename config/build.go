package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mhpenta/showdown"
	"github.com/mhpenta/showdown/client"
	"github.com/mhpenta/showdown/provider/comfyui"
	"github.com/mhpenta/showdown/provider/fal"
	"github.com/mhpenta/showdown/provider/gemini"
	"github.com/mhpenta/showdown/provider/openai"
	"github.com/mhpenta/showdown/ratelimiter"
	"github.com/mhpenta/showdown/server"
)

// BuildManager constructs the enabled generators and registers them with a
// Manager. Providers that are enabled but lack an API key are skipped with a
// warning; catalog names label the registered providers. A generator whose
// provider id is missing from the catalog (Gemini's "gemini" with the built-in
// catalog) is registered but never offered, and is reported with a warning.
func (c *Config) BuildManager(ctx context.Context, catalog *showdown.Catalog, logger *slog.Logger) (*showdown.Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if catalog == nil {
		catalog = showdown.DefaultCatalog()
	}

	var gens []showdown.ImageGenerator
	p := c.Providers

	if p.ComfyUI.Enabled {
		id := orDefault(p.ComfyUI.ProviderID, comfyui.ProviderID)
		var workflow *comfyui.Workflow
		if p.ComfyUI.Workflow != "" {
			wf, err := comfyui.LoadWorkflow(p.ComfyUI.Workflow)
			if err != nil {
				return nil, fmt.Errorf("loading comfyui workflow: %w", err)
			}
			workflow = wf
		}
		gens = append(gens, comfyui.New(comfyui.Config{
			BaseURL:      p.ComfyUI.BaseURL,
			Workflow:     workflow,
			PollInterval: p.ComfyUI.PollInterval,
			ProviderID:   id,
			ProviderName: providerName(catalog, id),
		}))
	}

	if p.OpenAI.Enabled {
		id := orDefault(p.OpenAI.ProviderID, openai.ProviderID)
		gen, err := openai.New(openai.Config{
			APIKey:       p.OpenAI.APIKey,
			BaseURL:      p.OpenAI.BaseURL,
			Model:        p.OpenAI.Model,
			ProviderID:   id,
			ProviderName: providerName(catalog, id),
		})
		switch {
		case errors.Is(err, openai.ErrMissingAPIKey):
			logger.Warn("provider skipped", "provider", id, "reason", err.Error())
		case err != nil:
			return nil, err
		default:
			gens = append(gens, gen)
		}
	}

	if p.Fal.Enabled {
		id := orDefault(p.Fal.ProviderID, fal.ProviderID)
		gen, err := fal.New(fal.Config{
			APIKey:       p.Fal.APIKey,
			BaseURL:      p.Fal.BaseURL,
			Model:        p.Fal.Model,
			ProviderID:   id,
			ProviderName: providerName(catalog, id),
		})
		switch {
		case errors.Is(err, fal.ErrMissingAPIKey):
			logger.Warn("provider skipped", "provider", id, "reason", err.Error())
		case err != nil:
			return nil, err
		default:
			gens = append(gens, gen)
		}
	}

	if p.Gemini.Enabled {
		id := orDefault(p.Gemini.ProviderID, gemini.ProviderID)
		gen, err := gemini.New(ctx, gemini.Config{
			APIKey:       p.Gemini.APIKey,
			Model:        p.Gemini.Model,
			ProviderID:   id,
			ProviderName: providerName(catalog, id),
		})
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}

	m := showdown.NewManager(
		showdown.WithLogger(logger),
		showdown.WithGenerators(gens...),
	)
	for id, rl := range c.RateLimits {
		m.SetRateLimiter(id, ratelimiter.New(rl.TokensPerMinute, rl.RequestsPerMinute))
	}

	for _, id := range providerIDsOf(catalog) {
		if _, ok := m.GetModelInfo(id); !ok {
			logger.Warn("catalog provider has no generator", "provider", id)
		}
	}
	// Only catalog entries are offered for selection.
	for _, info := range m.Models() {
		if _, ok := catalog.Lookup(info.Provider.ID); !ok {
			logger.Warn("generator not in catalog, add it to the catalog file to offer it",
				"provider", info.Provider.ID,
				"backend", info.Backend,
			)
		}
	}
	return m, nil
}

// ServerConfig converts the server and CORS sections.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Port:           c.Server.Port,
		ReadTimeout:    c.Server.ReadTimeout,
		WriteTimeout:   c.Server.WriteTimeout,
		CompareTimeout: c.Server.CompareTimeout,
		CORS: server.CORSConfig{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			AllowCredentials: c.CORS.AllowCredentials,
			MaxAge:           c.CORS.MaxAge,
		},
	}
}

// NewClient creates an HTTP Comparer for the configured endpoint.
func (c *Config) NewClient(logger *slog.Logger) *client.Client {
	opts := []client.Option{}
	if logger != nil {
		opts = append(opts, client.WithLogger(logger))
	}
	if c.Client.Timeout > 0 {
		opts = append(opts, client.WithTimeout(c.Client.Timeout))
	}
	return client.New(c.Client.Endpoint, opts...)
}

func providerName(catalog *showdown.Catalog, id string) string {
	if p, ok := catalog.Lookup(id); ok {
		return p.Name
	}
	return ""
}

func providerIDsOf(catalog *showdown.Catalog) []string {
	providers := catalog.Providers()
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	return ids
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
