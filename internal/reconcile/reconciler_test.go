package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/git-pkgs/modsync/internal/core"
	"github.com/git-pkgs/modsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	url        string
	release    *core.Release
	releaseErr error
	license    core.LicenseResult
	assets     []core.Asset
	assetsErr  error

	licenseCalls atomic.Int32
	assetCalls   atomic.Int32
}

func (f *fakeRepo) WebURL() string { return f.url }

func (f *fakeRepo) LatestRelease(ctx context.Context) (*core.Release, error) {
	return f.release, f.releaseErr
}

func (f *fakeRepo) License(ctx context.Context) core.LicenseResult {
	f.licenseCalls.Add(1)
	return f.license
}

func (f *fakeRepo) Assets(ctx context.Context, r *core.Release) ([]core.Asset, error) {
	f.assetCalls.Add(1)
	return f.assets, f.assetsErr
}

var created = time.Date(2022, 3, 1, 12, 0, 0, 0, time.UTC)

func jar(name string) core.Asset {
	return core.Asset{
		Name:               name,
		BrowserDownloadURL: "https://github.com/GTNewHorizons/Mod/releases/download/x/" + name,
		URL:                "https://api.github.com/repos/GTNewHorizons/Mod/releases/assets/" + name,
		CreatedAt:          created,
	}
}

func release(tag string) *core.Release {
	return &core.Release{ID: 1, TagName: tag}
}

func completeEntry(name, version string) *core.ModEntry {
	tagged := created.Add(-time.Hour)
	return &core.ModEntry{
		Name:               name,
		Version:            version,
		License:            "MIT",
		RepoURL:            "https://github.com/GTNewHorizons/" + name,
		DownloadURL:        "https://api.github.com/old",
		BrowserDownloadURL: "https://github.com/old",
		Filename:           name + "-" + version + ".jar",
		TaggedAt:           &tagged,
	}
}

func index(repos map[string]*fakeRepo) map[string]core.RepositorySummary {
	idx := make(map[string]core.RepositorySummary, len(repos))
	for name, r := range repos {
		idx[name] = r
	}
	return idx
}

func quiet() Option {
	return WithLogger(logging.Nop)
}

func TestReconcileNewerTagUpdatesVersionAndAsset(t *testing.T) {
	repo := &fakeRepo{
		url:     "https://github.com/GTNewHorizons/Mod",
		release: release("1.1"),
		assets:  []core.Asset{jar("Mod-1.1.jar")},
	}
	entry := completeEntry("Mod", "1.0")

	res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
	require.NoError(t, err)

	assert.True(t, res.VersionUpdated)
	assert.True(t, res.AssetUpdated)
	assert.Equal(t, "1.0", res.OldVersion)
	assert.Equal(t, "1.1", res.NewVersion)

	assert.Equal(t, "1.1", entry.Version)
	assert.Equal(t, "Mod-1.1.jar", entry.Filename)
	assert.Equal(t, repo.assets[0].BrowserDownloadURL, entry.BrowserDownloadURL)
	assert.Equal(t, repo.assets[0].URL, entry.DownloadURL)
	require.NotNil(t, entry.TaggedAt)
	assert.True(t, created.Equal(*entry.TaggedAt))
}

func TestReconcileUpToDateCompleteEntryUnchanged(t *testing.T) {
	for _, tag := range []string{"1.0", "0.9"} {
		t.Run(tag, func(t *testing.T) {
			repo := &fakeRepo{
				url:     "https://github.com/GTNewHorizons/Mod",
				release: release(tag),
				assets:  []core.Asset{jar("Mod-" + tag + ".jar")},
				license: core.LicenseResult{Status: core.LicenseFound, License: core.License{Name: "Apache License 2.0"}},
			}
			entry := completeEntry("Mod", "1.0")
			before := *entry

			res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
			require.NoError(t, err)

			assert.False(t, res.Changed())
			assert.Equal(t, before, *entry)
			assert.Zero(t, repo.assetCalls.Load())
			assert.Zero(t, repo.licenseCalls.Load())
		})
	}
}

func TestReconcileLexicalComparison(t *testing.T) {
	// "10.0" sorts before "2.0", so it is not treated as newer.
	repo := &fakeRepo{release: release("10.0"), assets: []core.Asset{jar("Mod-10.0.jar")}}
	entry := completeEntry("Mod", "2.0")

	res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
	require.NoError(t, err)

	assert.False(t, res.VersionUpdated)
	assert.Equal(t, "2.0", entry.Version)
}

func TestReconcileIncompleteAssetFieldsRefreshed(t *testing.T) {
	repo := &fakeRepo{release: release("1.0"), assets: []core.Asset{jar("Mod-1.0.jar")}}
	entry := completeEntry("Mod", "1.0")
	entry.Filename = ""

	res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
	require.NoError(t, err)

	assert.False(t, res.VersionUpdated)
	assert.True(t, res.AssetUpdated)
	assert.Equal(t, "Mod-1.0.jar", entry.Filename)
}

func TestReconcileLicenseBackfill(t *testing.T) {
	found := core.LicenseResult{Status: core.LicenseFound, License: core.License{Name: "Apache License 2.0", SPDXID: "Apache-2.0"}}

	tests := []struct {
		name    string
		current string
		result  core.LicenseResult
		want    string
		updated bool
	}{
		{"unknown found", core.LicenseUnknown, found, "Apache License 2.0", true},
		{"other found", core.LicenseOther, found, "Apache License 2.0", true},
		{"concrete never overwritten", "MIT", found, "MIT", false},
		{"absent keeps sentinel", core.LicenseUnknown, core.LicenseResult{Status: core.LicenseAbsent}, core.LicenseUnknown, false},
		{"failure keeps sentinel", core.LicenseOther, core.LicenseResult{Status: core.LicenseFailed, Err: errors.New("boom")}, core.LicenseOther, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{release: release("1.0"), license: tt.result}
			entry := completeEntry("Mod", "1.0")
			entry.License = tt.current

			res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
			require.NoError(t, err)

			assert.Equal(t, tt.want, entry.License)
			assert.Equal(t, tt.updated, res.LicenseUpdated)
		})
	}
}

func TestReconcileRepoURLBackfill(t *testing.T) {
	repo := &fakeRepo{url: "https://github.com/GTNewHorizons/Mod", release: release("1.0")}

	entry := completeEntry("Mod", "1.0")
	entry.RepoURL = ""
	res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
	require.NoError(t, err)
	assert.True(t, res.RepoURLFilled)
	assert.Equal(t, "https://github.com/GTNewHorizons/Mod", entry.RepoURL)

	entry = completeEntry("Mod", "1.0")
	entry.RepoURL = "https://example.com/fork"
	res, err = Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
	require.NoError(t, err)
	assert.False(t, res.RepoURLFilled)
	assert.Equal(t, "https://example.com/fork", entry.RepoURL)
}

func TestReconcileSelectsLastQualifyingAsset(t *testing.T) {
	repo := &fakeRepo{
		release: release("1.1"),
		assets: []core.Asset{
			jar("Mod-dev.jar"),
			jar("Mod-1.0.jar"),
			jar("Mod-sources.jar"),
			jar("Mod-1.1.jar"),
		},
	}
	entry := completeEntry("Mod", "1.0")

	_, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
	require.NoError(t, err)
	assert.Equal(t, "Mod-1.1.jar", entry.Filename)
	assert.Equal(t, repo.assets[3].URL, entry.DownloadURL)
}

func TestReconcileNoQualifyingAssetLeavesFields(t *testing.T) {
	repo := &fakeRepo{
		release: release("1.1"),
		assets:  []core.Asset{jar("Mod-dev.jar"), jar("Mod-sources.jar"), jar("Mod-api.jar"), jar("README.md")},
	}

	entry := &core.ModEntry{Name: "Mod", Version: "1.0", License: "MIT", RepoURL: "https://github.com/GTNewHorizons/Mod"}
	res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet())
	require.NoError(t, err)

	assert.True(t, res.VersionUpdated)
	assert.True(t, res.NoQualifyingAsset)
	assert.False(t, res.AssetUpdated)
	assert.Empty(t, entry.Filename)
	assert.Empty(t, entry.DownloadURL)
	assert.Empty(t, entry.BrowserDownloadURL)
	assert.Nil(t, entry.TaggedAt)

	prev := completeEntry("Mod", "1.0")
	before := *prev
	_, err = Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), prev, quiet())
	require.NoError(t, err)
	assert.Equal(t, before.Filename, prev.Filename)
	assert.Equal(t, before.DownloadURL, prev.DownloadURL)
	assert.Equal(t, before.BrowserDownloadURL, prev.BrowserDownloadURL)
	assert.Equal(t, before.TaggedAt, prev.TaggedAt)
}

func TestReconcileMissingRepository(t *testing.T) {
	tl := logging.NewTestLogger(t)
	entry := completeEntry("Gone", "1.0")
	entry.License = core.LicenseUnknown
	entry.RepoURL = ""
	before := *entry

	res, err := Reconcile(context.Background(), index(nil), entry, WithLogger(*tl.Logger))
	require.NoError(t, err)

	assert.True(t, res.Skipped())
	assert.ErrorIs(t, res.Skip, core.ErrRepositoryNotFound)
	assert.Equal(t, before, *entry)
	assert.True(t, tl.Contains("couldn't find repo Gone"))
}

func TestReconcileUsesContextLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	_, err := Reconcile(ctx, index(nil), completeEntry("Gone", "1.0"))
	require.NoError(t, err)

	require.True(t, tl.Contains("couldn't find repo Gone"))
	assert.True(t, tl.Contains(`"mod":"Gone"`))
}

func TestReconcileUpdateLoggedAtDebug(t *testing.T) {
	tl := logging.NewTestLogger(t)
	repo := &fakeRepo{release: release("1.1"), assets: []core.Asset{jar("Mod-1.1.jar")}}

	res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), completeEntry("Mod", "1.0"), WithLogger(*tl.Logger))
	require.NoError(t, err)
	require.True(t, res.VersionUpdated)

	assert.False(t, tl.Contains("Update found"))
	for _, line := range tl.Lines() {
		if strings.Contains(line, "Newer release") {
			assert.Contains(t, line, `"level":"debug"`)
			assert.Contains(t, line, `"new":"1.1"`)
		}
	}
}

func TestReconcileNoRelease(t *testing.T) {
	tests := []struct {
		name string
		repo *fakeRepo
	}{
		{"nil release", &fakeRepo{}},
		{"typed error", &fakeRepo{releaseErr: &core.NoReleaseError{Host: "github", Owner: "GTNewHorizons", Name: "Mod"}}},
		{"sentinel error", &fakeRepo{releaseErr: fmt.Errorf("wrapped: %w", core.ErrNoRelease)}},
		{"empty tag", &fakeRepo{release: &core.Release{ID: 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := completeEntry("Mod", "1.0")
			entry.License = core.LicenseUnknown
			entry.Filename = ""
			before := *entry

			res, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": tt.repo}), entry, quiet())
			require.NoError(t, err)

			assert.ErrorIs(t, res.Skip, core.ErrNoRelease)
			assert.NotErrorIs(t, res.Skip, core.ErrRepositoryNotFound)
			assert.Equal(t, before, *entry)
			assert.Zero(t, tt.repo.licenseCalls.Load())
			assert.Zero(t, tt.repo.assetCalls.Load())
		})
	}
}

func TestReconcileFatalErrors(t *testing.T) {
	upstream := errors.New("connection reset")

	t.Run("release", func(t *testing.T) {
		repo := &fakeRepo{releaseErr: upstream}
		_, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), completeEntry("Mod", "1.0"), quiet())
		assert.ErrorIs(t, err, upstream)
	})

	t.Run("assets", func(t *testing.T) {
		repo := &fakeRepo{release: release("2.0"), assetsErr: upstream}
		_, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), completeEntry("Mod", "1.0"), quiet())
		assert.ErrorIs(t, err, upstream)
	})
}

func TestReconcileCustomAssetRule(t *testing.T) {
	repo := &fakeRepo{release: release("1.1"), assets: []core.Asset{jar("Mod-1.1.jar"), jar("Mod-1.1.zip")}}
	entry := completeEntry("Mod", "1.0")

	zips := func(name string) bool { return len(name) > 4 && name[len(name)-4:] == ".zip" }
	_, err := Reconcile(context.Background(), index(map[string]*fakeRepo{"Mod": repo}), entry, quiet(), WithAssetRule(zips))
	require.NoError(t, err)
	assert.Equal(t, "Mod-1.1.zip", entry.Filename)
}
