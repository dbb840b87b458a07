package gemini

import (
	"errors"
	"testing"

	"github.com/mhpenta/showdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestParseResult(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "here you go"},
				{InlineData: &genai.Blob{Data: []byte("png-bytes"), MIMEType: "image/png"}},
			}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount: 7,
			TotalTokenCount:  20,
		},
	}

	result, err := parseResult(resp)
	require.NoError(t, err)
	assert.Equal(t, "here you go", result.Text)
	require.Len(t, result.Images, 1)
	assert.Equal(t, "data:image/png;base64,cG5nLWJ5dGVz", result.FirstImageURL())
	assert.Equal(t, 7, result.UsageMetadata.PromptTokens)
	assert.Equal(t, 1, result.UsageMetadata.ImageCount)
}

func TestParseResult_NoImage(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "I can't draw that"}}}},
		},
	}

	_, err := parseResult(resp)
	assert.ErrorIs(t, err, showdown.ErrNoImage)

	_, err = parseResult(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}

func TestCheckRateLimitError(t *testing.T) {
	err := checkRateLimitError(genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, "gemini")
	assert.True(t, showdown.IsRateLimitError(err))

	err = checkRateLimitError(genai.APIError{Code: 400, Status: "INVALID_ARGUMENT"}, "gemini")
	assert.False(t, showdown.IsRateLimitError(err))
	assert.Error(t, err)

	plain := errors.New("connection reset")
	assert.ErrorIs(t, checkRateLimitError(plain, "gemini"), plain)
}

func TestModelInfoDefaults(t *testing.T) {
	info := modelInfo(Config{})
	assert.Equal(t, ProviderID, info.Provider.ID)
	assert.Equal(t, DefaultModel, info.APIModelName)

	info = modelInfo(Config{ProviderID: "nano", ProviderName: "Nano Banana", Model: "gemini-3-pro-image-preview"})
	assert.Equal(t, showdown.Provider{ID: "nano", Name: "Nano Banana"}, info.Provider)
	assert.Equal(t, "gemini-3-pro-image-preview", info.APIModelName)
}
