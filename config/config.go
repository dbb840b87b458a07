// Package config loads showdown settings from a YAML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. SHOWDOWN_SERVER_PORT.
const EnvPrefix = "SHOWDOWN"

type Config struct {
	Server     ServerConfig               `mapstructure:"server"`
	CORS       CORSConfig                 `mapstructure:"cors"`
	Log        LogConfig                  `mapstructure:"log"`
	Catalog    CatalogConfig              `mapstructure:"catalog"`
	Providers  ProvidersConfig            `mapstructure:"providers"`
	RateLimits map[string]RateLimitConfig `mapstructure:"rate_limits"`
	Client     ClientConfig               `mapstructure:"client"`
}

type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	CompareTimeout time.Duration `mapstructure:"compare_timeout"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CatalogConfig struct {
	// Path to a YAML provider list; empty uses the built-in catalog.
	Path string `mapstructure:"path"`
}

type ProvidersConfig struct {
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Fal     FalConfig     `mapstructure:"fal"`
	ComfyUI ComfyUIConfig `mapstructure:"comfyui"`
}

type GeminiConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	ProviderID string `mapstructure:"provider_id"`
}

type OpenAIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	ProviderID string `mapstructure:"provider_id"`
}

type FalConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Model      string `mapstructure:"model"`
	ProviderID string `mapstructure:"provider_id"`
}

type ComfyUIConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	BaseURL      string        `mapstructure:"base_url"`
	Workflow     string        `mapstructure:"workflow"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	ProviderID   string        `mapstructure:"provider_id"`
}

type RateLimitConfig struct {
	TokensPerMinute   int `mapstructure:"tokens_per_minute"`
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

type ClientConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from configPath (optional), a .env file in the
// working directory and SHOWDOWN_* environment variables, in increasing
// precedence. Without a path, ./showdown.yaml is used if it exists.
func Load(configPath string) (*Config, error) {
	// A missing .env is not an error.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("showdown")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	applyEnvFallbacks(cfg)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.compare_timeout", 0)

	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Origin", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposed_headers", []string{"X-Request-ID"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 3600)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("catalog.path", "")

	v.SetDefault("providers.gemini.enabled", false)
	v.SetDefault("providers.gemini.api_key", "")
	v.SetDefault("providers.gemini.model", "")
	v.SetDefault("providers.gemini.provider_id", "")

	v.SetDefault("providers.openai.enabled", true)
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.base_url", "")
	v.SetDefault("providers.openai.model", "")
	v.SetDefault("providers.openai.provider_id", "")

	v.SetDefault("providers.fal.enabled", true)
	v.SetDefault("providers.fal.api_key", "")
	v.SetDefault("providers.fal.base_url", "")
	v.SetDefault("providers.fal.model", "")
	v.SetDefault("providers.fal.provider_id", "")

	v.SetDefault("providers.comfyui.enabled", true)
	v.SetDefault("providers.comfyui.base_url", "")
	v.SetDefault("providers.comfyui.workflow", "")
	v.SetDefault("providers.comfyui.poll_interval", time.Second)
	v.SetDefault("providers.comfyui.provider_id", "")

	v.SetDefault("client.endpoint", "http://localhost:5000")
	v.SetDefault("client.timeout", 0)
}

// applyEnvFallbacks fills empty API keys from the providers' own variables.
func applyEnvFallbacks(cfg *Config) {
	p := &cfg.Providers
	if p.Gemini.APIKey == "" {
		p.Gemini.APIKey = firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY")
	}
	if p.OpenAI.APIKey == "" {
		p.OpenAI.APIKey = firstEnv("OPENAI_API_KEY")
	}
	if p.Fal.APIKey == "" {
		p.Fal.APIKey = firstEnv("FAL_KEY")
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
