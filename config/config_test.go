package config

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhpenta/showdown"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "http://localhost:5000", cfg.Client.Endpoint)
	assert.True(t, cfg.Providers.ComfyUI.Enabled)
	assert.False(t, cfg.Providers.Gemini.Enabled)
	assert.Equal(t, time.Second, cfg.Providers.ComfyUI.PollInterval)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, "showdown.yaml", `
server:
  port: 7000
  compare_timeout: 2m
log:
  level: debug
  format: json
providers:
  openai:
    api_key: from-file
rate_limits:
  dalle:
    requests_per_minute: 5
`)
	t.Setenv("SHOWDOWN_SERVER_PORT", "8080")
	t.Setenv("FAL_KEY", "fal-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Server.CompareTimeout)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "from-file", cfg.Providers.OpenAI.APIKey)
	assert.Equal(t, "fal-from-env", cfg.Providers.Fal.APIKey)
	assert.Equal(t, 5, cfg.RateLimits["dalle"].RequestsPerMinute)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseCatalog(t *testing.T) {
	t.Setenv("EXTRA_ID", "gemini")

	catalog, err := ParseCatalog([]byte(`
providers:
  - id: sd
    name: Stable Diffusion
  - id: ${EXTRA_ID}
    name: Gemini
  - id: fal
`))
	require.NoError(t, err)

	assert.Equal(t, []showdown.Provider{
		{ID: "sd", Name: "Stable Diffusion"},
		{ID: "gemini", Name: "Gemini"},
		{ID: "fal", Name: "fal"},
	}, catalog.Providers())
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ``},
		{"duplicate ids", "providers:\n  - id: sd\n  - id: sd\n"},
		{"not yaml", "providers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, showdown.DefaultCatalog().Providers(), catalog.Providers())

	path := writeFile(t, "catalog.yaml", "providers:\n  - id: a\n    name: A\n  - id: b\n    name: B\n")
	catalog, err = LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.Len())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(LogConfig{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "provider", "sd")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, `"provider":"sd"`), out)

	_, err = newLogger(LogConfig{Level: "loud"}, &buf)
	assert.Error(t, err)
	_, err = newLogger(LogConfig{Format: "xml"}, &buf)
	assert.Error(t, err)
}

func TestBuildManager(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{
			ComfyUI: ComfyUIConfig{Enabled: true},
			OpenAI:  OpenAIConfig{Enabled: true, APIKey: "sk-test"},
			Fal:     FalConfig{Enabled: true},
		},
		RateLimits: map[string]RateLimitConfig{
			"sd": {RequestsPerMinute: 1},
		},
	}

	m, err := cfg.BuildManager(context.Background(), showdown.DefaultCatalog(), nil)
	require.NoError(t, err)
	defer m.Close()

	sd, ok := m.GetModelInfo("sd")
	require.True(t, ok)
	assert.Equal(t, "Stable Diffusion", sd.Provider.Name)

	_, ok = m.GetModelInfo("dalle")
	assert.True(t, ok)

	_, ok = m.GetModelInfo("fal")
	assert.False(t, ok, "fal has no key and must be skipped")

	assert.Equal(t, []string{"sd", "dalle"}, providerIDsOf(m.Catalog()))
}

func TestBuildManager_WarnsOnCatalogMismatch(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(LogConfig{Level: "warn"}, &buf)
	require.NoError(t, err)

	cfg := &Config{
		Providers: ProvidersConfig{
			OpenAI: OpenAIConfig{Enabled: true, APIKey: "sk-test", ProviderID: "gpt-image"},
		},
	}
	m, err := cfg.BuildManager(context.Background(), showdown.DefaultCatalog(), logger)
	require.NoError(t, err)
	defer m.Close()

	out := buf.String()
	assert.Contains(t, out, "generator not in catalog")
	assert.Contains(t, out, "provider=gpt-image")
	assert.Contains(t, out, "catalog provider has no generator")
}

func TestNewClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	cfg := &Config{Client: ClientConfig{Endpoint: srv.URL, Timeout: 20 * time.Millisecond}}
	req, err := showdown.NewComparisonRequest("cat", []string{"sd", "mj"})
	require.NoError(t, err)

	_, err = cfg.NewClient(nil).Compare(context.Background(), req)
	assert.True(t, showdown.IsRequestFailure(err), "expected timeout as request failure, got %v", err)
}

func TestBuildManager_BadWorkflow(t *testing.T) {
	cfg := &Config{
		Providers: ProvidersConfig{
			ComfyUI: ComfyUIConfig{Enabled: true, Workflow: filepath.Join(t.TempDir(), "missing.json")},
		},
	}
	_, err := cfg.BuildManager(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestServerConfig(t *testing.T) {
	cfg := &Config{
		Server: ServerConfig{Port: 9000, CompareTimeout: time.Minute},
		CORS:   CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}, MaxAge: 60},
	}
	sc := cfg.ServerConfig()
	assert.Equal(t, 9000, sc.Port)
	assert.Equal(t, time.Minute, sc.CompareTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, sc.CORS.AllowedOrigins)
	assert.Equal(t, 60, sc.CORS.MaxAge)
}
