// Package api defines the JSON wire format of the comparison endpoint.
package api

import (
	"github.com/mhpenta/showdown"
)

// Paths served by the comparison backend.
const (
	ComparePath = "/api/compare"
	ModelsPath  = "/api/models"
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

// DefaultEntryError is the message used for an error entry that carries none.
const DefaultEntryError = "generation failed"

// CompareRequest is the body of POST /api/compare.
type CompareRequest struct {
	Prompt string   `json:"prompt"`
	Models []string `json:"models"`
}

// CompareResponse is the envelope returned by POST /api/compare.
type CompareResponse struct {
	Success bool          `json:"success"`
	Results []ResultEntry `json:"results,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// ResultEntry is one provider's outcome.
type ResultEntry struct {
	Model  string       `json:"model"`
	Status string       `json:"status"`
	Result *ImageResult `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// ImageResult carries the generated image location.
type ImageResult struct {
	ImageURL string `json:"imageUrl"`
}

// ModelsResponse is returned by GET /api/models.
type ModelsResponse struct {
	Success bool                `json:"success"`
	Models  []showdown.Provider `json:"models"`
}

// NewCompareRequest converts a comparison request to its wire form.
func NewCompareRequest(req *showdown.ComparisonRequest) CompareRequest {
	return CompareRequest{
		Prompt: req.Prompt(),
		Models: req.ProviderIDs(),
	}
}

// FromResults converts provider results to wire entries.
func FromResults(results []showdown.ProviderResult) []ResultEntry {
	entries := make([]ResultEntry, len(results))
	for i, r := range results {
		e := ResultEntry{Model: r.ProviderID, Status: string(r.Status)}
		switch r.Status {
		case showdown.StatusSuccess:
			e.Result = &ImageResult{ImageURL: r.ImageURL}
		case showdown.StatusError:
			e.Error = r.Message
		}
		entries[i] = e
	}
	return entries
}

// ToResults converts wire entries to provider results. The entry status is
// authoritative: unknown statuses, and successes without an image, become errors.
func ToResults(entries []ResultEntry) []showdown.ProviderResult {
	results := make([]showdown.ProviderResult, len(entries))
	for i, e := range entries {
		results[i] = e.toResult()
	}
	return results
}

func (e ResultEntry) toResult() showdown.ProviderResult {
	status, ok := showdown.ParseStatus(e.Status)
	if !ok {
		return showdown.FailureResult(e.Model, "unknown status "+e.Status)
	}

	switch status {
	case showdown.StatusSuccess:
		if e.Result == nil || e.Result.ImageURL == "" {
			return showdown.FailureResult(e.Model, "missing image")
		}
		return showdown.SuccessResult(e.Model, e.Result.ImageURL)
	case showdown.StatusError:
		msg := e.Error
		if msg == "" {
			msg = DefaultEntryError
		}
		return showdown.FailureResult(e.Model, msg)
	default:
		return showdown.PendingResult(e.Model)
	}
}
