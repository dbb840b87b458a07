// Package comfyui provides a showdown.ImageGenerator that queues a workflow on
// a ComfyUI server and waits for its output image.
package comfyui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mhpenta/showdown"
)

const (
	// ProviderID is the catalog id used when Config.ProviderID is empty.
	ProviderID = showdown.ProviderStableDiffusion

	DefaultBaseURL      = "http://127.0.0.1:8188"
	DefaultPollInterval = time.Second
)

var ErrWorkflowFailed = errors.New("comfyui workflow failed")

// Config configures the ComfyUI generator.
type Config struct {
	BaseURL string

	// Workflow is the graph template (default DefaultWorkflow).
	Workflow *Workflow

	PollInterval time.Duration

	ProviderID   string
	ProviderName string

	RateLimits showdown.RateLimits

	HTTPClient *http.Client
}

// Generator implements showdown.ImageGenerator against a ComfyUI server.
type Generator struct {
	baseURL      string
	workflow     *Workflow
	pollInterval time.Duration
	client       *http.Client
	clientID     string
	info         showdown.ModelInfo
}

var _ showdown.ImageGenerator = (*Generator)(nil)

// New creates a Generator.
func New(cfg Config) *Generator {
	g := &Generator{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		workflow:     cfg.Workflow,
		pollInterval: cfg.PollInterval,
		client:       cfg.HTTPClient,
		clientID:     uuid.New().String(),
		info: showdown.ModelInfo{
			Provider:     showdown.Provider{ID: cfg.ProviderID, Name: cfg.ProviderName},
			APIModelName: "workflow",
			Backend:      "comfyui",
			RateLimits:   cfg.RateLimits,
		},
	}
	if g.baseURL == "" {
		g.baseURL = DefaultBaseURL
	}
	if g.workflow == nil {
		g.workflow = DefaultWorkflow()
	}
	if g.pollInterval <= 0 {
		g.pollInterval = DefaultPollInterval
	}
	if g.client == nil {
		g.client = &http.Client{Timeout: 60 * time.Second}
	}
	if g.info.Provider.ID == "" {
		g.info.Provider.ID = ProviderID
	}
	if g.info.Provider.Name == "" {
		g.info.Provider.Name = "Stable Diffusion"
	}
	return g
}

type queueRequest struct {
	Prompt   map[string]any `json:"prompt"`
	ClientID string         `json:"client_id"`
}

type queueResponse struct {
	PromptID string `json:"prompt_id"`
	Error    any    `json:"error,omitempty"`
}

type outputImage struct {
	Filename  string `json:"filename"`
	Subfolder string `json:"subfolder"`
	Type      string `json:"type"`
}

type historyEntry struct {
	Outputs map[string]struct {
		Images []outputImage `json:"images"`
	} `json:"outputs"`
	Status struct {
		StatusStr string `json:"status_str"`
		Completed bool   `json:"completed"`
	} `json:"status"`
}

// Generate queues the workflow with the prompt patched in and polls until an image is saved.
func (g *Generator) Generate(ctx context.Context, prompt string, config *showdown.GenerateConfig) (*showdown.GenerateResult, error) {
	if err := showdown.ValidatePrompt(prompt); err != nil {
		return nil, err
	}

	nodes, err := g.workflow.Build(prompt)
	if err != nil {
		return nil, err
	}

	promptID, err := g.queue(ctx, nodes)
	if err != nil {
		return nil, err
	}

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		img, done, err := g.poll(ctx, promptID)
		if err != nil {
			return nil, err
		}
		if done {
			return &showdown.GenerateResult{
				Images: []showdown.GeneratedImage{{URL: g.viewURL(img), MIMEType: showdown.MIMETypeFromPath(img.Filename)}},
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for comfyui prompt %s: %w", promptID, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (g *Generator) queue(ctx context.Context, nodes map[string]any) (string, error) {
	body, err := json.Marshal(queueRequest{Prompt: nodes, ClientID: g.clientID})
	if err != nil {
		return "", fmt.Errorf("encoding comfyui prompt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/prompt", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out queueResponse
	status, err := g.doJSON(req, &out)
	if err != nil {
		return "", fmt.Errorf("queueing comfyui prompt: %w", err)
	}
	if status >= 300 || out.PromptID == "" {
		return "", fmt.Errorf("%w: queue returned %d: %v", ErrWorkflowFailed, status, out.Error)
	}
	return out.PromptID, nil
}

// poll reports the first output image once the prompt has finished.
func (g *Generator) poll(ctx context.Context, promptID string) (outputImage, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/history/"+url.PathEscape(promptID), nil)
	if err != nil {
		return outputImage{}, false, err
	}

	var history map[string]historyEntry
	status, err := g.doJSON(req, &history)
	if err != nil {
		return outputImage{}, false, fmt.Errorf("polling comfyui history: %w", err)
	}
	if status >= 300 {
		return outputImage{}, false, fmt.Errorf("%w: history returned %d", ErrWorkflowFailed, status)
	}

	entry, ok := history[promptID]
	if !ok {
		return outputImage{}, false, nil
	}
	if entry.Status.StatusStr == "error" {
		return outputImage{}, false, fmt.Errorf("%w: prompt %s", ErrWorkflowFailed, promptID)
	}
	for _, out := range entry.Outputs {
		if len(out.Images) > 0 {
			return out.Images[0], true, nil
		}
	}
	if entry.Status.Completed {
		return outputImage{}, false, showdown.ErrNoImage
	}
	return outputImage{}, false, nil
}

func (g *Generator) doJSON(req *http.Request, out any) (int, error) {
	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if len(data) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil && resp.StatusCode < 300 {
		return resp.StatusCode, fmt.Errorf("decoding response: %w", err)
	}
	return resp.StatusCode, nil
}

func (g *Generator) viewURL(img outputImage) string {
	q := url.Values{}
	q.Set("filename", img.Filename)
	q.Set("subfolder", img.Subfolder)
	q.Set("type", img.Type)
	return g.baseURL + "/view?" + q.Encode()
}

func (g *Generator) Models() []showdown.ModelInfo {
	return []showdown.ModelInfo{g.info}
}

func (g *Generator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
