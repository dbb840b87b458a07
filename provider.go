package showdown

import (
	"errors"
	"fmt"
	"strings"
)

// Provider is one image-generation backend offered as a comparison candidate.
type Provider struct {
	// ID is the stable identifier sent on the wire (e.g., "sd").
	ID string `json:"id" yaml:"id"`

	// Name is the display label (e.g., "Stable Diffusion").
	Name string `json:"name" yaml:"name"`
}

// Catalog ids of the default providers.
const (
	ProviderStableDiffusion = "sd"
	ProviderMidjourney      = "mj"
	ProviderDallE           = "dalle"
	ProviderFal             = "fal"
)

var ErrInvalidCatalog = errors.New("invalid provider catalog")

// Catalog is the ordered, read-only list of providers known at startup.
type Catalog struct {
	providers []Provider
	index     map[string]int
}

// NewCatalog builds a catalog, rejecting empty and duplicate ids.
// A provider without a name is labelled with its id.
func NewCatalog(providers ...Provider) (*Catalog, error) {
	c := &Catalog{
		providers: make([]Provider, 0, len(providers)),
		index:     make(map[string]int, len(providers)),
	}
	for i, p := range providers {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("%w: provider %d has no id", ErrInvalidCatalog, i)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidCatalog, p.ID)
		}
		if strings.TrimSpace(p.Name) == "" {
			p.Name = p.ID
		}
		c.index[p.ID] = len(c.providers)
		c.providers = append(c.providers, p)
	}
	return c, nil
}

// MustCatalog is like NewCatalog but panics on error.
func MustCatalog(providers ...Provider) *Catalog {
	c, err := NewCatalog(providers...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultCatalog returns the four providers the showdown ships with.
func DefaultCatalog() *Catalog {
	return MustCatalog(
		Provider{ID: ProviderStableDiffusion, Name: "Stable Diffusion"},
		Provider{ID: ProviderMidjourney, Name: "Midjourney"},
		Provider{ID: ProviderDallE, Name: "DALL-E"},
		Provider{ID: ProviderFal, Name: "FAL AI"},
	)
}

// Lookup returns the provider with the given id.
func (c *Catalog) Lookup(id string) (Provider, bool) {
	i, ok := c.index[id]
	if !ok {
		return Provider{}, false
	}
	return c.providers[i], true
}

// Providers returns a copy of the catalog in its configured order.
func (c *Catalog) Providers() []Provider {
	out := make([]Provider, len(c.providers))
	copy(out, c.providers)
	return out
}

// Len returns the number of providers.
func (c *Catalog) Len() int {
	return len(c.providers)
}

func providerIDs(providers []Provider) []string {
	ids := make([]string, len(providers))
	for i, p := range providers {
		ids[i] = p.ID
	}
	return ids
}
