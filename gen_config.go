package showdown

import (
	"time"
)

// ImageSize represents the output resolution for generated images.
type ImageSize string

const (
	ImageSize1K ImageSize = "1K"
	ImageSize2K ImageSize = "2K"
)

// AspectRatio represents the aspect ratio for generated images.
type AspectRatio string

const (
	AspectRatio1x1  AspectRatio = "1:1"
	AspectRatio16x9 AspectRatio = "16:9"
	AspectRatio9x16 AspectRatio = "9:16"
	AspectRatioAuto AspectRatio = ""
)

// GenerateConfig holds options for a single provider generation.
type GenerateConfig struct {
	// Provider is the catalog id the Manager routes on.
	Provider string

	// Model is the provider's own model name. The Manager fills it from the
	// registered ModelInfo; generators fall back to their default when empty.
	Model string

	// Size of the output image
	Size ImageSize

	// AspectRatio of the output image
	AspectRatio AspectRatio

	// RequestID correlates the generation with its comparison.
	RequestID string

	// WaitOnRateLimit, if true, causes the Manager to wait for capacity when
	// rate limited. If false, a RateLimitError is returned immediately.
	WaitOnRateLimit bool

	// MaxWaitDuration is the maximum time to wait when WaitOnRateLimit is true.
	// Zero means no limit.
	MaxWaitDuration time.Duration
}

// DefaultConfig returns a GenerateConfig for one square 1K image.
func DefaultConfig() *GenerateConfig {
	return &GenerateConfig{
		Size:        ImageSize1K,
		AspectRatio: AspectRatio1x1,
	}
}

// ForProvider returns a copy of the config routed to the given provider.
func (c *GenerateConfig) ForProvider(provider string) *GenerateConfig {
	if c == nil {
		c = DefaultConfig()
	}
	out := *c
	out.Provider = provider
	return &out
}

func (s ImageSize) String() string {
	return string(s)
}

func (a AspectRatio) String() string {
	return string(a)
}
