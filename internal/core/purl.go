package core

import (
	"context"
	"fmt"

	packageurl "github.com/package-url/packageurl-go"
)

// PURL wraps packageurl.PackageURL with source-specific helpers.
type PURL struct {
	packageurl.PackageURL
}

// Owner returns the organization or user that owns the repository.
func (p PURL) Owner() string {
	return p.Namespace
}

// ParsePURL parses a Package URL string into its components.
// Supports both repository PURLs (pkg:github/owner/repo) and versioned PURLs
// (pkg:github/owner/repo@1.0.0).
func ParsePURL(purl string) (*PURL, error) {
	p, err := packageurl.FromString(purl)
	if err != nil {
		return nil, err
	}
	if p.Namespace == "" {
		return nil, fmt.Errorf("PURL has no owner: %s", purl)
	}
	return &PURL{p}, nil
}

// ModPURL renders the package URL of a mod hosted by owner on host.
func ModPURL(host, owner string, m *ModEntry) string {
	return packageurl.NewPackageURL(host, owner, m.Name, m.Version, nil, "").ToString()
}

// NewFromPURL creates a source from a PURL and returns the parsed components.
// Returns the source, owner, repository name and version (empty if not in PURL).
// If the PURL has a repository_url qualifier, it's used as the base URL for
// self-hosted instances.
func NewFromPURL(purl string, client *Client) (Source, string, string, string, error) {
	p, err := ParsePURL(purl)
	if err != nil {
		return nil, "", "", "", err
	}

	baseURL := p.Qualifiers.Map()["repository_url"]

	src, err := New(p.Type, baseURL, client)
	if err != nil {
		return nil, "", "", "", err
	}

	return src, p.Owner(), p.Name, p.Version, nil
}

// FetchLatestReleaseFromPURL fetches the latest release of the repository a PURL names.
func FetchLatestReleaseFromPURL(ctx context.Context, purl string, client *Client) (*Release, error) {
	src, owner, name, _, err := NewFromPURL(purl, client)
	if err != nil {
		return nil, err
	}
	return src.FetchLatestRelease(ctx, owner, name)
}

// FetchLicenseFromPURL resolves the license of the repository a PURL names.
func FetchLicenseFromPURL(ctx context.Context, purl string, client *Client) LicenseResult {
	src, owner, name, _, err := NewFromPURL(purl, client)
	if err != nil {
		return LicenseResult{Status: LicenseFailed, Err: err}
	}
	return LicenseFromLookup(src.FetchLicense(ctx, owner, name))
}

// RepositoryFromPURL returns a repository summary bound to the PURL's source.
func RepositoryFromPURL(purl string, client *Client) (*Repository, error) {
	src, owner, name, _, err := NewFromPURL(purl, client)
	if err != nil {
		return nil, err
	}
	return NewRepository(src, owner, name, src.URLs().Repository(owner, name)), nil
}
