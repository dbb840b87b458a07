package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mhpenta/showdown"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenerator(t *testing.T, handler http.HandlerFunc) *Generator {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gen, err := New(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	require.NoError(t, err)
	return gen
}

func TestGenerate(t *testing.T) {
	var body map[string]any
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created": 1, "data": [{"url": "https://img.example/cat.png", "revised_prompt": "a cat"}]}`))
	})

	result, err := gen.Generate(context.Background(), "cat", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/cat.png", result.FirstImageURL())
	assert.Equal(t, "a cat", result.Images[0].RevisedPrompt)
	assert.Equal(t, "cat", body["prompt"])
	assert.Equal(t, "dall-e-3", body["model"])
	assert.Equal(t, "url", body["response_format"])
}

func TestGenerate_RateLimited(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	})

	_, err := gen.Generate(context.Background(), "cat", nil)
	require.Error(t, err)
	assert.True(t, showdown.IsRateLimitError(err))
}

func TestGenerate_EmptyData(t *testing.T) {
	gen := newTestGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"created": 1, "data": []}`))
	})

	_, err := gen.Generate(context.Background(), "cat", nil)
	assert.ErrorIs(t, err, showdown.ErrNoImage)
}

func TestNew(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	gen, err := New(Config{APIKey: "k"})
	require.NoError(t, err)
	models := gen.Models()
	require.Len(t, models, 1)
	assert.Equal(t, showdown.ProviderDallE, models[0].Provider.ID)
}
