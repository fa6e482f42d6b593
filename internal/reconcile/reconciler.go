// Package reconcile updates mod entries from the latest upstream releases
// and reports upstream repositories the modpack does not track.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/git-pkgs/modsync/internal/core"
	"github.com/git-pkgs/modsync/internal/logging"
	"github.com/rs/zerolog"
)

const defaultConcurrency = 8

// Result describes what reconciling one entry did to it.
type Result struct {
	Name       string
	OldVersion string
	NewVersion string

	VersionUpdated    bool
	LicenseUpdated    bool
	RepoURLFilled     bool
	AssetUpdated      bool
	NoQualifyingAsset bool

	// Skip is set when the entry was left untouched. It matches
	// core.ErrRepositoryNotFound or core.ErrNoRelease.
	Skip error
}

// Skipped reports whether the entry was left unchanged because its
// repository or release could not be found.
func (r Result) Skipped() bool {
	return r.Skip != nil
}

// Changed reports whether any field of the entry was written.
func (r Result) Changed() bool {
	return r.VersionUpdated || r.LicenseUpdated || r.RepoURLFilled || r.AssetUpdated
}

// Reconciler applies the update policy to mod entries.
type Reconciler struct {
	logger      *zerolog.Logger
	rule        AssetRule
	concurrency int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used to report update decisions and skips.
// Without it the logger carried by the context is used.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = &logger
	}
}

// WithConcurrency bounds the number of entries ReconcileAll works on at once.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithAssetRule replaces the rule deciding which assets are distributables.
func WithAssetRule(rule AssetRule) Option {
	return func(r *Reconciler) {
		if rule != nil {
			r.rule = rule
		}
	}
}

// New creates a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{
		rule:        DefaultAssetRule,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile updates entry in place from its repository in index using a
// Reconciler built from opts.
func Reconcile(ctx context.Context, index map[string]core.RepositorySummary, entry *core.ModEntry, opts ...Option) (Result, error) {
	return New(opts...).Reconcile(ctx, index, entry)
}

// Reconcile updates entry in place from its repository in index.
//
// A missing repository or release leaves the entry untouched and is
// reported through Result.Skip. License lookup failures keep the current
// value. Any other error is returned and should end the run.
func (r *Reconciler) Reconcile(ctx context.Context, index map[string]core.RepositorySummary, entry *core.ModEntry) (Result, error) {
	res := Result{Name: entry.Name, OldVersion: entry.Version, NewVersion: entry.Version}
	ctx = logging.WithMod(r.context(ctx), entry.Name)
	log := logging.FromContext(ctx)

	log.Debug().Str("version", entry.Version).Msg("Checking for updates")

	repo, ok := index[entry.Name]
	if !ok || repo == nil {
		res.Skip = &core.MissingRepositoryError{Name: entry.Name}
		log.Warn().Msg(res.Skip.Error())
		return res, nil
	}

	release, err := repo.LatestRelease(ctx)
	if err != nil && !errors.Is(err, core.ErrNoRelease) {
		return res, fmt.Errorf("fetching latest release of %s: %w", entry.Name, err)
	}
	if release == nil || release.TagName == "" {
		skip := &core.NoReleaseError{Name: entry.Name}
		var nr *core.NoReleaseError
		if errors.As(err, &nr) {
			skip = nr
		}
		res.Skip = skip
		log.Warn().Msg(skip.Error())
		return res, nil
	}

	// Lexical on purpose: "10.0" < "2.0" is a known miss.
	if release.TagName > entry.Version {
		log.Debug().
			Str("old", entry.Version).
			Str("new", release.TagName).
			Msg("Newer release")
		entry.Version = release.TagName
		res.NewVersion = release.TagName
		res.VersionUpdated = true
	}

	if core.IsSentinelLicense(entry.License) {
		lic := repo.License(ctx)
		switch lic.Status {
		case core.LicenseFound:
			entry.License = lic.License.Name
			res.LicenseUpdated = true
		case core.LicenseFailed:
			log.Debug().Err(lic.Err).Msg("License lookup failed")
		}
	}

	if entry.RepoURL == "" {
		if url := repo.WebURL(); url != "" {
			entry.RepoURL = url
			res.RepoURLFilled = true
		}
	}

	if res.VersionUpdated || !entry.AssetComplete() {
		assets, err := repo.Assets(ctx, release)
		if err != nil {
			return res, fmt.Errorf("listing assets of %s %s: %w", entry.Name, release.TagName, err)
		}
		if asset, ok := SelectAssetWith(r.rule, assets); ok {
			entry.SetAsset(asset)
			res.AssetUpdated = true
			log.Debug().Str("filename", asset.Name).Msg("Selected asset")
		} else {
			res.NoQualifyingAsset = true
			log.Warn().Err(&core.NoAssetError{Name: entry.Name, Tag: release.TagName}).Msg("No qualifying asset")
		}
	}

	return res, nil
}

// context attaches the configured logger to ctx, if one was set.
func (r *Reconciler) context(ctx context.Context) context.Context {
	if r.logger == nil {
		return ctx
	}
	return logging.WithLogger(ctx, r.logger)
}
