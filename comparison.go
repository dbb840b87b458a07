package showdown

import (
	"time"

	"github.com/google/uuid"
)

// Status is the outcome of one provider within a comparison.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ParseStatus maps a wire status onto a Status. Anything unrecognised is an error.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusSuccess, StatusError:
		return Status(s), true
	default:
		return StatusError, false
	}
}

// ComparisonRequest is one prompt sent to two or more providers.
// It is immutable once built.
type ComparisonRequest struct {
	id          string
	prompt      string
	providerIDs []string
	createdAt   time.Time
}

// NewComparisonRequest validates the prompt and provider selection and builds a request.
func NewComparisonRequest(prompt string, providerIDs []string) (*ComparisonRequest, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if err := ValidateProviderIDs(providerIDs); err != nil {
		return nil, err
	}

	ids := make([]string, len(providerIDs))
	copy(ids, providerIDs)

	return &ComparisonRequest{
		id:          uuid.New().String(),
		prompt:      prompt,
		providerIDs: ids,
		createdAt:   time.Now(),
	}, nil
}

// ID is a unique identifier for correlating logs and metrics.
func (r *ComparisonRequest) ID() string { return r.id }

// Prompt is the text prompt sent to every provider.
func (r *ComparisonRequest) Prompt() string { return r.prompt }

// ProviderIDs returns a copy of the requested provider ids in selection order.
func (r *ComparisonRequest) ProviderIDs() []string {
	ids := make([]string, len(r.providerIDs))
	copy(ids, r.providerIDs)
	return ids
}

// CreatedAt is when the request was built.
func (r *ComparisonRequest) CreatedAt() time.Time { return r.createdAt }

// ProviderResult is the status of one provider within a comparison.
type ProviderResult struct {
	ProviderID string
	Status     Status

	// ImageURL is set when Status is StatusSuccess.
	ImageURL string

	// Message is set when Status is StatusError.
	Message string
}

// PendingResult is the placeholder shown for a provider before the response arrives.
func PendingResult(providerID string) ProviderResult {
	return ProviderResult{ProviderID: providerID, Status: StatusPending}
}

// SuccessResult is a provider result carrying an image.
func SuccessResult(providerID, imageURL string) ProviderResult {
	return ProviderResult{ProviderID: providerID, Status: StatusSuccess, ImageURL: imageURL}
}

// FailureResult is a provider result carrying an inline error.
func FailureResult(providerID, message string) ProviderResult {
	return ProviderResult{ProviderID: providerID, Status: StatusError, Message: message}
}

// Display is how a result should be rendered.
type Display int

const (
	DisplayLoading Display = iota
	DisplayImage
	DisplayError
)

// Display returns the rendering for the result: a loading indicator while
// pending, the image on success, an inline error otherwise.
func (r ProviderResult) Display() Display {
	switch r.Status {
	case StatusPending:
		return DisplayLoading
	case StatusSuccess:
		return DisplayImage
	default:
		return DisplayError
	}
}
