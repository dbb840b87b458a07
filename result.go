package showdown

import (
	"encoding/base64"
	"path/filepath"
	"strings"
)

// GeneratedImage is a single image produced by a provider. Hosted providers
// return a URL; others return the raw bytes.
type GeneratedImage struct {
	// URL where the image can be fetched, if the provider hosts it
	URL string

	// Data contains the raw image bytes when no URL is available
	Data []byte

	// MIMEType of the image data
	MIMEType string

	// RevisedPrompt is the prompt after any model modifications
	RevisedPrompt string
}

// ImageURL returns the hosted URL, or a data URL built from the image bytes.
func (img GeneratedImage) ImageURL() string {
	if img.URL != "" {
		return img.URL
	}
	if len(img.Data) == 0 {
		return ""
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// GenerateResult holds the result of one provider generation.
type GenerateResult struct {
	Images []GeneratedImage

	// Text contains any text response from the model
	Text string

	UsageMetadata *UsageMetadata
}

// FirstImageURL returns the URL of the first usable image, or "" if there is none.
func (r *GenerateResult) FirstImageURL() string {
	if r == nil {
		return ""
	}
	for _, img := range r.Images {
		if u := img.ImageURL(); u != "" {
			return u
		}
	}
	return ""
}

// UsageMetadata contains usage information for billing and monitoring.
type UsageMetadata struct {
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
	ImageCount       int
}

// MIMETypeFromPath guesses an image MIME type from a file name, defaulting to PNG.
func MIMETypeFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}
