package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// Provider identifies which news search backend produced a result.
type Provider string

const (
	ProviderSerper     Provider = "serper"
	ProviderGoogleNews Provider = "googlenews"
)

// DefaultRecency restricts results to the past week.
const DefaultRecency = "qdr:w"

// Query is one search request.
type Query struct {
	Text    string
	Num     int    // result-count hint
	Recency string // provider recency filter, e.g. qdr:w
}

// Result is one news hit as returned by a provider. Snippet and Date may be
// empty.
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet,omitempty"`
	Source  string `json:"source"`
	Date    string `json:"date,omitempty"`
}

// Searcher is the interface every news search backend implements.
type Searcher interface {
	Name() Provider
	Search(ctx context.Context, q Query) ([]Result, error)
}

// AllProviders returns all known providers.
func AllProviders() []Provider {
	return []Provider{ProviderSerper, ProviderGoogleNews}
}

// ParseProvider resolves a configured provider name.
func ParseProvider(name string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(name)))
	if !slices.Contains(AllProviders(), p) {
		return "", fmt.Errorf("unknown search provider %q (want one of %v)", name, AllProviders())
	}
	return p, nil
}
