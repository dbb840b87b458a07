package showdown

// RateLimits defines rate limiting parameters for a provider.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
}

// ModelInfo describes the model a generator serves for one catalog provider.
type ModelInfo struct {
	// Provider is the catalog entry this model competes as.
	Provider Provider

	// APIModelName is the name the provider's API expects (e.g., "dall-e-3").
	APIModelName string

	// Backend names the service actually called (e.g., "openai", "comfyui").
	Backend string

	RateLimits RateLimits
}
