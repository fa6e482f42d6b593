package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/modsync/internal/core"
	"github.com/git-pkgs/modsync/internal/logging"
	"github.com/git-pkgs/modsync/internal/reconcile"
	"github.com/git-pkgs/modsync/manifest"
)

func hostList() string {
	return strings.Join(core.SupportedHosts(), ", ")
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("manifest", "m", "", "modpack manifest to check (default \""+DefaultManifest+"\")")
	cmd.Flags().String("org", "", "upstream organization (default \""+DefaultOrg+"\")")
}

// NewCheckCommand creates the check command.
func (a *App) NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check every mod for updates and write the updated manifest",
		Example: `  modsync check
  modsync check --manifest gtnh-modpack.json --output updated_mods.json
  modsync check --dry-run --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runCheck(cmd.Context())
		},
	}

	addRunFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "where to write the updated manifest (default \""+DefaultOutput+"\")")
	cmd.Flags().IntP("concurrency", "c", 0, "mods checked at once (default 8)")
	cmd.Flags().Bool("dry-run", false, "report updates without writing the manifest")

	return cmd
}

// NewMissingCommand creates the missing command.
func (a *App) NewMissingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "missing",
		Short: "List upstream repositories the modpack does not track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMissing(cmd.Context())
		},
	}
	addRunFlags(cmd)
	return cmd
}

// NewLatestCommand creates the latest command.
func (a *App) NewLatestCommand() *cobra.Command {
	var showLicense bool

	cmd := &cobra.Command{
		Use:   "latest <purl>...",
		Short: "Show the latest release and jar of repositories",
		Example: `  modsync latest pkg:github/gtnewhorizons/notenoughitems
  modsync latest --license pkg:gitea/owner/mod?repository_url=https://git.example.com`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLatest(cmd.Context(), args, showLicense)
		},
	}
	cmd.Flags().BoolVar(&showLicense, "license", false, "also look up each repository's license")
	return cmd
}

func (a *App) loadIndex(ctx context.Context) (*manifest.Modpack, map[string]core.RepositorySummary, error) {
	cfg := a.config

	mp, err := manifest.Load(cfg.Manifest)
	if err != nil {
		return nil, nil, err
	}

	src, err := a.Source()
	if err != nil {
		return nil, nil, err
	}

	a.logger.Info().Str("host", src.Host()).Str("org", cfg.Org).Msg("Grabbing all repository information")
	index, err := core.FetchIndex(ctx, src, cfg.Org)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug().Int("repositories", len(index)).Int("mods", mp.Len()).Msg("Loaded index")

	return mp, index, nil
}

func (a *App) runCheck(ctx context.Context) error {
	cfg := a.config

	mp, index, err := a.loadIndex(ctx)
	if err != nil {
		return err
	}

	results, err := reconcile.ReconcileAll(ctx, index, mp.Entries(), reconcile.WithConcurrency(cfg.Concurrency))
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}

	log := logging.FromContext(ctx)
	for _, res := range results {
		if !res.VersionUpdated {
			continue
		}
		if entry, ok := mp.Get(res.Name); ok {
			log.Debug().
				Str("purl", core.ModPURL(cfg.Host, cfg.Org, entry)).
				Str("old", res.OldVersion).
				Msg("Updated")
		}
	}

	if cfg.DryRun {
		a.logger.Info().Msg("Dry run, manifest not written")
	} else {
		if err := manifest.Save(cfg.Output, mp); err != nil {
			return err
		}
		a.logger.Info().Str("path", cfg.Output).Msg("Wrote updated manifest")
	}

	untracked := reconcile.FindUntracked(core.IndexNames(index), mp.TrackedNames())
	if err := reconcile.Report(a.out, results, untracked); err != nil {
		return err
	}

	s := reconcile.Summarize(results, untracked)
	a.logger.Info().
		Int("checked", s.Checked).
		Int("updated", s.Updated).
		Int("skipped", s.Skipped).
		Int("no_asset", s.NoAsset).
		Int("untracked", s.Untracked).
		Msg("Done")
	return nil
}

func (a *App) runMissing(ctx context.Context) error {
	mp, index, err := a.loadIndex(ctx)
	if err != nil {
		return err
	}
	untracked := reconcile.FindUntracked(core.IndexNames(index), mp.TrackedNames())
	return reconcile.ReportMissing(a.out, untracked)
}

func (a *App) runLatest(ctx context.Context, purls []string, showLicense bool) error {
	c := a.Client()
	releases, errs := core.BulkFetchLatestReleases(ctx, purls, c, a.config.Concurrency)

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, purl := range purls {
		repo, err := core.RepositoryFromPURL(purl, c)
		if err != nil {
			return err
		}

		release, ok := releases[purl]
		if !ok {
			err := errs[purl]
			if !errors.Is(err, core.ErrNoRelease) {
				return fmt.Errorf("fetching latest release of %s: %w", purl, err)
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\n", purl, (&core.NoReleaseError{Name: repo.Name}).Error())
			continue
		}

		filename := "-"
		assets, err := repo.Assets(ctx, release)
		if err != nil {
			return err
		}
		if asset, ok := reconcile.SelectAsset(assets); ok {
			filename = asset.Name
		}

		line := fmt.Sprintf("%s\t%s\t%s", purl, release.TagName, filename)
		if showLicense {
			line += "\t" + licenseColumn(repo.License(ctx))
		}
		_, _ = fmt.Fprintln(w, line)
	}
	return w.Flush()
}

func licenseColumn(lic core.LicenseResult) string {
	switch lic.Status {
	case core.LicenseFound:
		if lic.License.IsSPDX() {
			return lic.License.SPDXID
		}
		return lic.License.Name
	case core.LicenseAbsent:
		return core.LicenseUnknown
	default:
		var nf *core.NotFoundError
		if errors.As(lic.Err, &nf) {
			return core.LicenseUnknown
		}
		return "error: " + lic.Err.Error()
	}
}
