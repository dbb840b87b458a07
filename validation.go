package showdown

import (
	"strings"
)

// MinProviders is the smallest number of providers a comparison accepts.
const MinProviders = 2

// ValidatePrompt rejects prompts that are empty or whitespace-only.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return invalid(ErrEmptyPrompt, "")
	}
	return nil
}

// ValidateProviderIDs requires at least MinProviders distinct ids.
func ValidateProviderIDs(ids []string) error {
	if len(ids) < MinProviders {
		return invalid(ErrTooFewProviders, "got %d", len(ids))
	}

	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return invalid(ErrDuplicateProvider, "%s", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// ValidateCatalogIDs rejects ids the catalog does not offer.
func ValidateCatalogIDs(catalog *Catalog, ids []string) error {
	for _, id := range ids {
		if _, ok := catalog.Lookup(id); !ok {
			return invalid(ErrUnknownProvider, "%s", id)
		}
	}
	return nil
}
