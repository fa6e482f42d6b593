package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Source is the interface implemented by all repository host clients.
type Source interface {
	// Host returns the source identifier, which is also the PURL type (e.g., "github", "gitea").
	Host() string

	// ListRepositories returns every repository owned by an organization or user.
	ListRepositories(ctx context.Context, owner string) ([]*Repository, error)

	// FetchLatestRelease returns the most recent published release.
	// It returns an error matching ErrNoRelease when the repository has none.
	FetchLatestRelease(ctx context.Context, owner, name string) (*Release, error)

	// FetchLicense returns the detected license. A repository without a
	// detected license yields a not-found error or a nil License.
	FetchLicense(ctx context.Context, owner, name string) (*License, error)

	// FetchAssets lists a release's assets in the order the host exposes them.
	FetchAssets(ctx context.Context, owner, name string, release *Release) ([]Asset, error)

	// URLs returns the URL builder for this source.
	URLs() URLBuilder
}

// Factory creates a source instance for a given base URL.
type Factory func(baseURL string, client *Client) Source

var (
	factories = make(map[string]Factory)
	defaults  = make(map[string]string)
	mu        sync.RWMutex
)

// Register adds a source factory to the global registry.
// host is the PURL type (e.g., "github", "gitea").
// defaultURL is the default API URL for the host.
func Register(host string, defaultURL string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[host] = factory
	defaults[host] = defaultURL
}

// New creates a new source for the given host.
// If baseURL is empty, the default API URL is used.
func New(host string, baseURL string, client *Client) (Source, error) {
	mu.RLock()
	factory, ok := factories[host]
	defaultURL := defaults[host]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown host: %s", host)
	}

	if baseURL == "" {
		baseURL = defaultURL
	}

	if client == nil {
		client = DefaultClient()
	}

	return factory(baseURL, client), nil
}

// SupportedHosts returns all registered host types, sorted.
func SupportedHosts() []string {
	mu.RLock()
	defer mu.RUnlock()

	hosts := make([]string, 0, len(factories))
	for h := range factories {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)
	return hosts
}

// DefaultURL returns the default API URL for a host.
func DefaultURL(host string) string {
	mu.RLock()
	defer mu.RUnlock()
	return defaults[host]
}
