// Package modsync keeps a modpack manifest in step with the latest releases
// of the upstream repositories its mods come from.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/git-pkgs/modsync"
//		_ "github.com/git-pkgs/modsync/all"
//	)
//
//	src, err := modsync.New("github", "", modsync.DefaultClient())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	index, err := modsync.FetchIndex(ctx, src, "GTNewHorizons")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	results, err := modsync.ReconcileAll(ctx, index, entries)
//	if err != nil {
//		log.Fatal(err)
//	}
//
// To register every supported host, import the all subpackage for its
// side effects.
package modsync

import (
	"context"

	"github.com/git-pkgs/modsync/client"
	"github.com/git-pkgs/modsync/internal/core"
	"github.com/git-pkgs/modsync/internal/reconcile"
)

// Re-export types from internal/core
type (
	// Source is the interface implemented by all repository hosts.
	Source = core.Source

	// ModEntry is one tracked mod in a modpack manifest.
	ModEntry = core.ModEntry

	// Repository is a repository as listed by a Source.
	Repository = core.Repository

	// RepositorySummary is the read-only view the reconciler works against.
	RepositorySummary = core.RepositorySummary

	// Release is a tagged publication of a repository.
	Release = core.Release

	// Asset is a single downloadable file attached to a release.
	Asset = core.Asset

	// License is the license a host detected for a repository.
	License = core.License

	// LicenseResult is the outcome of a license lookup.
	LicenseResult = core.LicenseResult

	// LicenseStatus distinguishes found, absent and failed lookups.
	LicenseStatus = core.LicenseStatus

	// PURL represents a parsed Package URL.
	PURL = core.PURL
)

// Re-export types from client
type (
	// Client is an HTTP client with retry logic for host APIs.
	Client = client.Client

	// URLBuilder constructs URLs for a host.
	URLBuilder = client.URLBuilder

	// RateLimiter controls request pacing.
	RateLimiter = client.RateLimiter

	// TokenSource supplies API credentials.
	TokenSource = client.TokenSource
)

// Re-export types from internal/reconcile
type (
	// Result describes what reconciling one entry did to it.
	Result = reconcile.Result

	// ReconcileOption configures reconciliation.
	ReconcileOption = reconcile.Option

	// AssetRule decides whether an asset file name is a mod distributable.
	AssetRule = reconcile.AssetRule
)

// Re-export constants
const (
	LicenseUnknown = core.LicenseUnknown
	LicenseOther   = core.LicenseOther

	LicenseFound  = core.LicenseFound
	LicenseAbsent = core.LicenseAbsent
	LicenseFailed = core.LicenseFailed
)

// Re-export errors
var (
	ErrNotFound           = client.ErrNotFound
	ErrUpstreamDown       = client.ErrUpstreamDown
	ErrRepositoryNotFound = core.ErrRepositoryNotFound
	ErrNoRelease          = core.ErrNoRelease
	ErrNoAsset            = core.ErrNoAsset
)

// Error types
type (
	HTTPError              = client.HTTPError
	NotFoundError          = client.NotFoundError
	RateLimitError         = client.RateLimitError
	MissingRepositoryError = core.MissingRepositoryError
	NoReleaseError         = core.NoReleaseError
	NoAssetError           = core.NoAssetError
)

// New creates a source for the given host.
// If baseURL is empty, the host's default API URL is used.
// If client is nil, DefaultClient() is used.
//
// Supported hosts: "github", "gitea"
func New(host string, baseURL string, c *Client) (Source, error) {
	return core.New(host, baseURL, c)
}

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 5 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return client.DefaultClient()
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) *Client {
	return client.NewClient(opts...)
}

// Option configures a Client.
type Option = client.Option

// WithTimeout sets the HTTP client timeout.
var WithTimeout = client.WithTimeout

// WithMaxRetries sets the maximum number of retries.
var WithMaxRetries = client.WithMaxRetries

// WithTokenSource sets where the API token comes from.
var WithTokenSource = client.WithTokenSource

// SupportedHosts returns all registered host types.
// Note: hosts must be imported to be registered.
func SupportedHosts() []string {
	return core.SupportedHosts()
}

// DefaultURL returns the default API URL for a host.
func DefaultURL(host string) string {
	return core.DefaultURL(host)
}

// BuildURLs returns a map of all non-empty URLs for a repository.
// Keys are "repository", "release" and "purl".
func BuildURLs(urls URLBuilder, owner, name, version string) map[string]string {
	return client.BuildURLs(urls, owner, name, version)
}

// IsSentinelLicense reports whether license is UNKNOWN or OTHER.
func IsSentinelLicense(license string) bool {
	return core.IsSentinelLicense(license)
}

// ParsePURL parses a Package URL string into its components.
func ParsePURL(purl string) (*PURL, error) {
	return core.ParsePURL(purl)
}

// NewFromPURL creates a source from a PURL and returns the owner, name and
// version (empty if not in the PURL).
func NewFromPURL(purl string, c *Client) (Source, string, string, string, error) {
	return core.NewFromPURL(purl, c)
}

// FetchLatestReleaseFromPURL fetches the latest release of the repository a PURL names.
func FetchLatestReleaseFromPURL(ctx context.Context, purl string, c *Client) (*Release, error) {
	return core.FetchLatestReleaseFromPURL(ctx, purl, c)
}

// FetchLicenseFromPURL resolves the license of the repository a PURL names.
func FetchLicenseFromPURL(ctx context.Context, purl string, c *Client) LicenseResult {
	return core.FetchLicenseFromPURL(ctx, purl, c)
}

// NewRepository binds a repository to the source used to query it.
func NewRepository(src Source, owner, name, htmlURL string) *Repository {
	return core.NewRepository(src, owner, name, htmlURL)
}

// FetchIndex lists an owner's repositories keyed by name.
func FetchIndex(ctx context.Context, src Source, owner string) (map[string]RepositorySummary, error) {
	return core.FetchIndex(ctx, src, owner)
}

// Reconcile updates entry in place from its repository in index.
func Reconcile(ctx context.Context, index map[string]RepositorySummary, entry *ModEntry, opts ...ReconcileOption) (Result, error) {
	return reconcile.Reconcile(ctx, index, entry, opts...)
}

// ReconcileAll reconciles entries concurrently and returns results in input order.
func ReconcileAll(ctx context.Context, index map[string]RepositorySummary, entries []*ModEntry, opts ...ReconcileOption) ([]Result, error) {
	return reconcile.ReconcileAll(ctx, index, entries, opts...)
}

// FindUntracked returns the upstream repository names no mod tracks.
func FindUntracked(all, tracked map[string]struct{}) map[string]struct{} {
	return reconcile.FindUntracked(all, tracked)
}

// SelectAsset returns the last qualifying asset in listing order.
func SelectAsset(assets []Asset) (Asset, bool) {
	return reconcile.SelectAsset(assets)
}

// Reconcile options.
var (
	WithLogger      = reconcile.WithLogger
	WithConcurrency = reconcile.WithConcurrency
	WithAssetRule   = reconcile.WithAssetRule
)
