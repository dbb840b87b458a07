package showdown

import "context"

// Comparer sends one comparison request and returns the per-provider results
// in the order the backend reports them.
//
// An error means the comparison failed as a whole; individual provider
// failures are reported as results with StatusError instead.
type Comparer interface {
	Compare(ctx context.Context, req *ComparisonRequest) ([]ProviderResult, error)
}

// ImageGenerator is the interface a provider backend implements to take part in comparisons.
//
// The first model returned by Models() is considered the provider's default.
type ImageGenerator interface {
	// Generate creates images from a text prompt.
	Generate(ctx context.Context, prompt string, genConfig *GenerateConfig) (*GenerateResult, error)

	// Models returns the model definitions served by this generator.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}

// ComparerFunc adapts a function to the Comparer interface.
type ComparerFunc func(ctx context.Context, req *ComparisonRequest) ([]ProviderResult, error)

func (f ComparerFunc) Compare(ctx context.Context, req *ComparisonRequest) ([]ProviderResult, error) {
	return f(ctx, req)
}
