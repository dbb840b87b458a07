// Package openai provides a showdown.ImageGenerator for OpenAI's DALL-E image API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mhpenta/showdown"
	goopenai "github.com/sashabaranov/go-openai"
)

// ProviderID is the catalog id used when Config.ProviderID is empty.
const ProviderID = showdown.ProviderDallE

// Config configures the DALL-E generator.
type Config struct {
	APIKey string

	// BaseURL overrides the API endpoint, e.g. for a proxy (optional).
	BaseURL string

	// Model is the API model name (default dall-e-3).
	Model string

	ProviderID   string
	ProviderName string

	RateLimits showdown.RateLimits

	// HTTPClient is used for API calls when set.
	HTTPClient *http.Client
}

// Generator implements showdown.ImageGenerator using the OpenAI images endpoint.
type Generator struct {
	client *goopenai.Client
	info   showdown.ModelInfo
}

var _ showdown.ImageGenerator = (*Generator)(nil)

var ErrMissingAPIKey = errors.New("openai: API key is required")

// New creates a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	info := showdown.ModelInfo{
		Provider:     showdown.Provider{ID: cfg.ProviderID, Name: cfg.ProviderName},
		APIModelName: cfg.Model,
		Backend:      "openai",
		RateLimits:   cfg.RateLimits,
	}
	if info.Provider.ID == "" {
		info.Provider.ID = ProviderID
	}
	if info.Provider.Name == "" {
		info.Provider.Name = "DALL-E"
	}
	if info.APIModelName == "" {
		info.APIModelName = goopenai.CreateImageModelDallE3
	}

	return &Generator{
		client: goopenai.NewClientWithConfig(clientCfg),
		info:   info,
	}, nil
}

// Generate creates one image and returns the hosted URL.
func (g *Generator) Generate(ctx context.Context, prompt string, config *showdown.GenerateConfig) (*showdown.GenerateResult, error) {
	if err := showdown.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if config == nil {
		config = showdown.DefaultConfig()
	}

	model := config.Model
	if model == "" {
		model = g.info.APIModelName
	}

	resp, err := g.client.CreateImage(ctx, goopenai.ImageRequest{
		Prompt:         prompt,
		Model:          model,
		N:              1,
		Size:           imageSize(config.AspectRatio),
		ResponseFormat: goopenai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, convertError(err, g.info.Provider.ID)
	}

	result := &showdown.GenerateResult{}
	for _, d := range resp.Data {
		result.Images = append(result.Images, showdown.GeneratedImage{
			URL:           d.URL,
			RevisedPrompt: d.RevisedPrompt,
		})
	}
	if len(result.Images) == 0 {
		return nil, showdown.ErrNoImage
	}
	return result, nil
}

// Models returns the single model this generator serves.
func (g *Generator) Models() []showdown.ModelInfo {
	return []showdown.ModelInfo{g.info}
}

func (g *Generator) Close() error {
	return nil
}

func imageSize(ratio showdown.AspectRatio) string {
	switch ratio {
	case showdown.AspectRatio16x9:
		return goopenai.CreateImageSize1792x1024
	case showdown.AspectRatio9x16:
		return goopenai.CreateImageSize1024x1792
	default:
		return goopenai.CreateImageSize1024x1024
	}
}

func convertError(err error, provider string) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &showdown.RateLimitError{
			RetryAfter: 60 * time.Second,
			LimitType:  "requests",
			Provider:   provider,
			Err:        err,
		}
	}
	return fmt.Errorf("dall-e generation failed: %w", err)
}
