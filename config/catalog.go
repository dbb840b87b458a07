package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/mhpenta/showdown"
)

// catalogFile is the YAML layout of a catalog file:
//
//	providers:
//	  - id: sd
//	    name: Stable Diffusion
//	  - id: ${EXTRA_PROVIDER_ID}
//	    name: Extra
type catalogFile struct {
	Providers []showdown.Provider `yaml:"providers"`
}

// LoadCatalog reads a provider catalog from path. An empty path returns the
// built-in catalog.
func LoadCatalog(path string) (*showdown.Catalog, error) {
	if path == "" {
		return showdown.DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a catalog, expanding ${VAR} references first.
func ParseCatalog(data []byte) (*showdown.Catalog, error) {
	expanded := os.ExpandEnv(string(data))

	var file catalogFile
	if err := yaml.Unmarshal([]byte(expanded), &file); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(file.Providers) == 0 {
		return nil, fmt.Errorf("%w: no providers", showdown.ErrInvalidCatalog)
	}
	return showdown.NewCatalog(file.Providers...)
}
