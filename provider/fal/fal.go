// Package fal provides a showdown.ImageGenerator for models hosted on fal.ai.
//
// It calls the synchronous run endpoint, which blocks until the model has
// produced its images and answers with their hosted URLs.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mhpenta/showdown"
)

const (
	// ProviderID is the catalog id used when Config.ProviderID is empty.
	ProviderID = showdown.ProviderFal

	DefaultBaseURL = "https://fal.run"
	DefaultModel   = "fal-ai/flux/schnell"
)

var ErrMissingAPIKey = errors.New("fal: API key is required")

// Config configures the fal generator.
type Config struct {
	// APIKey is sent as "Authorization: Key <APIKey>" (FAL_KEY).
	APIKey string

	BaseURL string
	Model   string

	ProviderID   string
	ProviderName string

	RateLimits showdown.RateLimits

	HTTPClient *http.Client
}

// Generator implements showdown.ImageGenerator against fal.run.
type Generator struct {
	apiKey  string
	baseURL string
	client  *http.Client
	info    showdown.ModelInfo
}

var _ showdown.ImageGenerator = (*Generator)(nil)

// New creates a Generator.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	g := &Generator{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  cfg.HTTPClient,
		info: showdown.ModelInfo{
			Provider:     showdown.Provider{ID: cfg.ProviderID, Name: cfg.ProviderName},
			APIModelName: cfg.Model,
			Backend:      "fal",
			RateLimits:   cfg.RateLimits,
		},
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 5 * time.Minute}
	}
	if g.info.Provider.ID == "" {
		g.info.Provider.ID = ProviderID
	}
	if g.info.Provider.Name == "" {
		g.info.Provider.Name = "FAL AI"
	}
	if g.info.APIModelName == "" {
		g.info.APIModelName = DefaultModel
	}
	return g, nil
}

type runRequest struct {
	Prompt    string `json:"prompt"`
	ImageSize string `json:"image_size,omitempty"`
	NumImages int    `json:"num_images"`
}

type runResponse struct {
	Images []struct {
		URL         string `json:"url"`
		ContentType string `json:"content_type"`
	} `json:"images"`
	Prompt string `json:"prompt"`
}

type errorResponse struct {
	Detail any `json:"detail"`
}

// Generate runs the model and returns the hosted image URLs.
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

	body, err := json.Marshal(runRequest{
		Prompt:    prompt,
		ImageSize: imageSize(config.AspectRatio),
		NumImages: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding fal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/"+strings.TrimLeft(model, "/"), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating fal request: %w", err)
	}
	req.Header.Set("Authorization", "Key "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fal request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading fal response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &showdown.RateLimitError{
			RetryAfter: 60 * time.Second,
			LimitType:  "requests",
			Provider:   g.info.Provider.ID,
		}
	}
	if resp.StatusCode >= 300 {
		var errResp errorResponse
		if json.Unmarshal(data, &errResp) == nil && errResp.Detail != nil {
			return nil, fmt.Errorf("fal returned %d: %v", resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("fal returned %d", resp.StatusCode)
	}

	var out runResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding fal response: %w", err)
	}

	result := &showdown.GenerateResult{}
	for _, img := range out.Images {
		if img.URL == "" {
			continue
		}
		result.Images = append(result.Images, showdown.GeneratedImage{
			URL:      img.URL,
			MIMEType: img.ContentType,
		})
	}
	if len(result.Images) == 0 {
		return nil, showdown.ErrNoImage
	}
	return result, nil
}

func (g *Generator) Models() []showdown.ModelInfo {
	return []showdown.ModelInfo{g.info}
}

func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}

func imageSize(ratio showdown.AspectRatio) string {
	switch ratio {
	case showdown.AspectRatio16x9:
		return "landscape_16_9"
	case showdown.AspectRatio9x16:
		return "portrait_16_9"
	case showdown.AspectRatio1x1:
		return "square_hd"
	default:
		return ""
	}
}
