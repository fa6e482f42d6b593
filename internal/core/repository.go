package core

import (
	"context"
	"fmt"
)

// RepositorySummary is the read-only view of an upstream repository the
// reconciler works against.
type RepositorySummary interface {
	// WebURL is the canonical human-facing repository URL.
	WebURL() string

	// LatestRelease returns the most recent release, or nil / an error
	// matching ErrNoRelease when there is none.
	LatestRelease(ctx context.Context) (*Release, error)

	// License looks up the detected license. It never panics or returns an
	// error; failures are carried in the result.
	License(ctx context.Context) LicenseResult

	// Assets lists the release's assets in upstream order.
	Assets(ctx context.Context, release *Release) ([]Asset, error)
}

// Repository is a repository as listed by a Source.
type Repository struct {
	Owner         string
	Name          string
	HTMLURL       string
	Description   string
	DefaultBranch string
	Archived      bool
	Fork          bool

	source Source
}

// NewRepository binds a listed repository to the source that produced it.
func NewRepository(src Source, owner, name, htmlURL string) *Repository {
	return &Repository{Owner: owner, Name: name, HTMLURL: htmlURL, source: src}
}

// Bind attaches the source used by the accessor methods.
func (r *Repository) Bind(src Source) *Repository {
	r.source = src
	return r
}

func (r *Repository) WebURL() string {
	if r.HTMLURL == "" && r.source != nil {
		return r.source.URLs().Repository(r.Owner, r.Name)
	}
	return r.HTMLURL
}

func (r *Repository) LatestRelease(ctx context.Context) (*Release, error) {
	if r.source == nil {
		return nil, fmt.Errorf("repository %s/%s has no source", r.Owner, r.Name)
	}
	return r.source.FetchLatestRelease(ctx, r.Owner, r.Name)
}

func (r *Repository) License(ctx context.Context) LicenseResult {
	if r.source == nil {
		return LicenseResult{Status: LicenseFailed, Err: fmt.Errorf("repository %s/%s has no source", r.Owner, r.Name)}
	}
	return LicenseFromLookup(r.source.FetchLicense(ctx, r.Owner, r.Name))
}

func (r *Repository) Assets(ctx context.Context, release *Release) ([]Asset, error) {
	if r.source == nil {
		return nil, fmt.Errorf("repository %s/%s has no source", r.Owner, r.Name)
	}
	return r.source.FetchAssets(ctx, r.Owner, r.Name, release)
}

// FetchIndex lists an owner's repositories keyed by repository name.
func FetchIndex(ctx context.Context, src Source, owner string) (map[string]RepositorySummary, error) {
	repos, err := src.ListRepositories(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("listing repositories of %s: %w", owner, err)
	}

	index := make(map[string]RepositorySummary, len(repos))
	for _, repo := range repos {
		if repo.source == nil {
			repo.source = src
		}
		index[repo.Name] = repo
	}
	return index, nil
}

// IndexNames returns the key set of a repository index.
func IndexNames(index map[string]RepositorySummary) map[string]struct{} {
	names := make(map[string]struct{}, len(index))
	for name := range index {
		names[name] = struct{}{}
	}
	return names
}
