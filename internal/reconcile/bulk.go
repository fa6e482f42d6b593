package reconcile

import (
	"context"
	"fmt"

	"github.com/git-pkgs/modsync/internal/core"
	"github.com/git-pkgs/modsync/internal/logging"
	"golang.org/x/sync/errgroup"
)

// ReconcileAll reconciles every entry using a Reconciler built from opts.
func ReconcileAll(ctx context.Context, index map[string]core.RepositorySummary, entries []*core.ModEntry, opts ...Option) ([]Result, error) {
	return New(opts...).ReconcileAll(ctx, index, entries)
}

// ReconcileAll reconciles entries concurrently, one worker per entry, and
// returns their results in input order. Entry names must be unique. The
// first fatal error cancels the remaining work and is returned.
func (r *Reconciler) ReconcileAll(ctx context.Context, index map[string]core.RepositorySummary, entries []*core.ModEntry) ([]Result, error) {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e == nil {
			continue
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("duplicate mod entry %q", e.Name)
		}
		seen[e.Name] = struct{}{}
	}

	ctx = r.context(ctx)
	logging.FromContext(ctx).Info().Int("mods", len(entries)).Int("workers", r.concurrency).Msg("Checking for updates")

	results := make([]Result, len(entries))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, entry := range entries {
		i, entry := i, entry
		if entry == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := r.Reconcile(ctx, index, entry)
			results[i] = res
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
