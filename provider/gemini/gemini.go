// Package gemini provides a showdown.ImageGenerator backed by Google's Gemini API.
//
// It uses the official Go SDK: https://github.com/googleapis/go-genai
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mhpenta/showdown"
	"google.golang.org/genai"
)

const (
	// ProviderID is the catalog id used when Config.ProviderID is empty.
	ProviderID = "gemini"

	// DefaultModel is Gemini 2.5 Flash Image.
	DefaultModel = "gemini-2.5-flash-image"
)

// Config configures the Gemini generator.
type Config struct {
	// APIKey for the Gemini API. When empty the SDK reads GOOGLE_API_KEY or GEMINI_API_KEY.
	APIKey string

	// Model is the API model name (default DefaultModel).
	Model string

	// ProviderID and ProviderName set the catalog entry this generator competes as.
	ProviderID   string
	ProviderName string

	RateLimits showdown.RateLimits
}

// Generator implements showdown.ImageGenerator using the Gemini API.
type Generator struct {
	client *genai.Client
	info   showdown.ModelInfo
}

// Ensure Generator implements the interface.
var _ showdown.ImageGenerator = (*Generator)(nil)

// New creates a Generator.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Generator{
		client: client,
		info:   modelInfo(cfg),
	}, nil
}

func modelInfo(cfg Config) showdown.ModelInfo {
	info := showdown.ModelInfo{
		Provider:     showdown.Provider{ID: cfg.ProviderID, Name: cfg.ProviderName},
		APIModelName: cfg.Model,
		Backend:      "gemini",
		RateLimits:   cfg.RateLimits,
	}
	if info.Provider.ID == "" {
		info.Provider.ID = ProviderID
	}
	if info.Provider.Name == "" {
		info.Provider.Name = "Gemini"
	}
	if info.APIModelName == "" {
		info.APIModelName = DefaultModel
	}
	return info
}

// Generate creates an image from a text prompt.
func (g *Generator) Generate(ctx context.Context, prompt string, config *showdown.GenerateConfig) (*showdown.GenerateResult, error) {
	if err := showdown.ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if config == nil {
		config = showdown.DefaultConfig()
	}

	modelName := config.Model
	if modelName == "" {
		modelName = g.info.APIModelName
	}

	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}

	result, err := g.client.Models.GenerateContent(ctx, modelName, contents, buildContentConfig(config))
	if err != nil {
		return nil, checkRateLimitError(err, g.info.Provider.ID)
	}

	return parseResult(result)
}

// Models returns the single model this generator serves.
func (g *Generator) Models() []showdown.ModelInfo {
	return []showdown.ModelInfo{g.info}
}

// Close releases any resources held by the generator.
func (g *Generator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

func buildContentConfig(config *showdown.GenerateConfig) *genai.GenerateContentConfig {
	imageConfig := &genai.ImageConfig{}
	if config.AspectRatio != "" {
		imageConfig.AspectRatio = config.AspectRatio.String()
	}
	if config.Size != "" {
		imageConfig.ImageSize = config.Size.String()
	}

	return &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
		ImageConfig:        imageConfig,
	}
}

// parseResult collects inline images and text from the first candidates that carry content.
func parseResult(result *genai.GenerateContentResponse) (*showdown.GenerateResult, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.New("empty response from model")
	}

	genResult := &showdown.GenerateResult{}
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			if part.Text != "" {
				genResult.Text += part.Text
			}
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				genResult.Images = append(genResult.Images, showdown.GeneratedImage{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				})
			}
		}
	}

	if result.UsageMetadata != nil {
		genResult.UsageMetadata = &showdown.UsageMetadata{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CandidatesTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
			ImageCount:       len(genResult.Images),
		}
	}

	if len(genResult.Images) == 0 {
		return nil, showdown.ErrNoImage
	}
	return genResult, nil
}

// checkRateLimitError wraps Gemini quota errors in a RateLimitError; other errors are wrapped plainly.
func checkRateLimitError(err error, provider string) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("generation failed: %w", err)
	}
	if apiErr.Code != http.StatusTooManyRequests && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return fmt.Errorf("generation failed: %w", err)
	}

	return &showdown.RateLimitError{
		RetryAfter: 60 * time.Second, // API doesn't reliably provide Retry-After
		LimitType:  "requests",
		Provider:   provider,
		Err:        err,
	}
}
