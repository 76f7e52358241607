package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Source is the interface implemented by all ecosystem download-statistics sources.
type Source interface {
	// Ecosystem returns the PURL type for this source (e.g., "npm").
	Ecosystem() string

	// FetchMetadata retrieves name, description, latest version and homepage.
	FetchMetadata(ctx context.Context, name string) (*Metadata, error)

	// FetchDownloads retrieves the download series for [from, until].
	// A zero until means today, a zero from means Epoch.
	FetchDownloads(ctx context.Context, name string, until, from time.Time) (Series, error)

	// URLs returns the URL builder for this source.
	URLs() URLBuilder
}

// Endpoints holds the upstream base URLs of a source.
type Endpoints struct {
	Registry string
	Stats    string
}

// Factory creates a source instance for the given endpoints.
type Factory func(endpoints Endpoints, client *Client) Source

var (
	factories = make(map[string]Factory)
	defaults  = make(map[string]Endpoints)
	mu        sync.RWMutex
)

// Register adds a source factory to the global registry.
// ecosystem is the PURL type (e.g., "npm").
// defaultEndpoints are used for any endpoint left empty in New.
func Register(ecosystem string, defaultEndpoints Endpoints, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[ecosystem] = factory
	defaults[ecosystem] = defaultEndpoints
}

// New creates a new source for the given ecosystem.
// Empty endpoints fall back to the ecosystem defaults.
func New(ecosystem string, endpoints Endpoints, client *Client) (Source, error) {
	mu.RLock()
	factory, ok := factories[ecosystem]
	def := defaults[ecosystem]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown ecosystem: %s", ecosystem)
	}

	if endpoints.Registry == "" {
		endpoints.Registry = def.Registry
	}
	if endpoints.Stats == "" {
		endpoints.Stats = def.Stats
	}

	if client == nil {
		client = DefaultClient()
	}

	return factory(endpoints, client), nil
}

// SupportedEcosystems returns all registered ecosystem types, sorted.
func SupportedEcosystems() []string {
	mu.RLock()
	defer mu.RUnlock()

	ecosystems := make([]string, 0, len(factories))
	for eco := range factories {
		ecosystems = append(ecosystems, eco)
	}
	sort.Strings(ecosystems)
	return ecosystems
}

// DefaultEndpoints returns the default endpoints for an ecosystem.
func DefaultEndpoints(ecosystem string) Endpoints {
	mu.RLock()
	defer mu.RUnlock()
	return defaults[ecosystem]
}
