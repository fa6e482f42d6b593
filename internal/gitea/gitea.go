// Package gitea provides a source client for Gitea and Forgejo instances.
package gitea

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/git-pkgs/modsync/internal/core"
)

const (
	DefaultURL = "https://gitea.com"
	host       = "gitea"
	pageLimit  = 50
)

func init() {
	core.Register(host, DefaultURL, func(baseURL string, client *core.Client) core.Source {
		return New(baseURL, client)
	})
}

type Source struct {
	baseURL string
	client  *core.Client
	urls    *URLs
}

// New creates a source for the instance at baseURL (the web root, not the API root).
func New(baseURL string, client *core.Client) *Source {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = core.DefaultClient()
	}
	s := &Source{
		baseURL: strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/api/v1"),
		client:  client,
	}
	s.urls = &URLs{baseURL: s.baseURL}
	return s
}

func (s *Source) Host() string {
	return host
}

func (s *Source) URLs() core.URLBuilder {
	return s.urls
}

func (s *Source) api(format string, args ...any) string {
	return s.baseURL + "/api/v1" + fmt.Sprintf(format, args...)
}

type repoInfo struct {
	Name          string `json:"name"`
	HTMLURL       string `json:"html_url"`
	Description   string `json:"description"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
	Fork          bool   `json:"fork"`
	Owner         struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type releaseInfo struct {
	ID          int64            `json:"id"`
	TagName     string           `json:"tag_name"`
	Name        string           `json:"name"`
	HTMLURL     string           `json:"html_url"`
	Draft       bool             `json:"draft"`
	Prerelease  bool             `json:"prerelease"`
	PublishedAt time.Time        `json:"published_at"`
	Assets      []attachmentInfo `json:"assets"`
}

type attachmentInfo struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Size               int64     `json:"size"`
	CreatedAt          time.Time `json:"created_at"`
	UUID               string    `json:"uuid"`
	BrowserDownloadURL string    `json:"browser_download_url"`
}

func (s *Source) ListRepositories(ctx context.Context, owner string) ([]*core.Repository, error) {
	repos, err := s.listRepositories(ctx, s.api("/orgs/%s/repos?limit=%d", url.PathEscape(owner), pageLimit))
	if err != nil && core.IsNotFound(err) {
		repos, err = s.listRepositories(ctx, s.api("/users/%s/repos?limit=%d", url.PathEscape(owner), pageLimit))
	}
	if err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Host: host, Owner: owner, What: "owner"}
		}
		return nil, err
	}

	result := make([]*core.Repository, len(repos))
	for i, r := range repos {
		repoOwner := r.Owner.Login
		if repoOwner == "" {
			repoOwner = owner
		}
		repo := core.NewRepository(s, repoOwner, r.Name, r.HTMLURL)
		repo.Description = r.Description
		repo.DefaultBranch = r.DefaultBranch
		repo.Archived = r.Archived
		repo.Fork = r.Fork
		result[i] = repo
	}
	return result, nil
}

// listRepositories follows Link headers when the instance sends them and
// otherwise pages until a short page comes back.
func (s *Source) listRepositories(ctx context.Context, first string) ([]repoInfo, error) {
	var all []repoInfo
	for page := 1; ; page++ {
		u := first
		if page > 1 {
			u = fmt.Sprintf("%s&page=%d", first, page)
		}

		var batch []repoInfo
		next, err := s.client.GetJSONPage(ctx, u, &batch)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)

		if next == "" && len(batch) < pageLimit {
			return all, nil
		}
		if len(batch) == 0 {
			return all, nil
		}
	}
}

func (s *Source) FetchLatestRelease(ctx context.Context, owner, name string) (*core.Release, error) {
	u := s.api("/repos/%s/%s/releases/latest", url.PathEscape(owner), url.PathEscape(name))

	var resp releaseInfo
	if err := s.client.GetJSON(ctx, u, &resp); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NoReleaseError{Host: host, Owner: owner, Name: name}
		}
		return nil, err
	}
	if resp.TagName == "" {
		return nil, &core.NoReleaseError{Host: host, Owner: owner, Name: name}
	}

	assets := make([]core.Asset, len(resp.Assets))
	for i, a := range resp.Assets {
		assets[i] = s.convertAsset(owner, name, resp.ID, a)
	}

	return &core.Release{
		ID:          resp.ID,
		TagName:     resp.TagName,
		Name:        resp.Name,
		HTMLURL:     resp.HTMLURL,
		PublishedAt: resp.PublishedAt,
		Draft:       resp.Draft,
		Prerelease:  resp.Prerelease,
		Assets:      assets,
	}, nil
}

// FetchLicense reads the licenses Gitea detected in the default branch.
// Gitea only reports SPDX identifiers, so the name is the identifier.
func (s *Source) FetchLicense(ctx context.Context, owner, name string) (*core.License, error) {
	u := s.api("/repos/%s/%s/licenses", url.PathEscape(owner), url.PathEscape(name))

	var ids []string
	if err := s.client.GetJSON(ctx, u, &ids); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Host: host, Owner: owner, Name: name, What: "license"}
		}
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	expr := strings.Join(ids, " AND ")
	return &core.License{Name: expr, SPDXID: expr}, nil
}

func (s *Source) FetchAssets(ctx context.Context, owner, name string, release *core.Release) ([]core.Asset, error) {
	if release == nil {
		return nil, errors.New("nil release")
	}
	if release.ID == 0 {
		return release.Assets, nil
	}

	u := s.api("/repos/%s/%s/releases/%d/assets", url.PathEscape(owner), url.PathEscape(name), release.ID)
	var resp []attachmentInfo
	if err := s.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("listing assets of %s/%s %s: %w", owner, name, release.TagName, err)
	}

	assets := make([]core.Asset, len(resp))
	for i, a := range resp {
		assets[i] = s.convertAsset(owner, name, release.ID, a)
	}
	return assets, nil
}

func (s *Source) convertAsset(owner, name string, releaseID int64, a attachmentInfo) core.Asset {
	return core.Asset{
		Name:               a.Name,
		BrowserDownloadURL: a.BrowserDownloadURL,
		URL:                s.api("/repos/%s/%s/releases/%d/assets/%d", owner, name, releaseID, a.ID),
		CreatedAt:          a.CreatedAt,
		Size:               a.Size,
	}
}

type URLs struct {
	baseURL string
}

func (u *URLs) Repository(owner, name string) string {
	return fmt.Sprintf("%s/%s/%s", u.baseURL, owner, name)
}

func (u *URLs) Release(owner, name, tag string) string {
	return fmt.Sprintf("%s/%s/%s/releases/tag/%s", u.baseURL, owner, name, url.PathEscape(tag))
}

func (u *URLs) PURL(owner, name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:gitea/%s/%s@%s", owner, name, version)
	}
	return fmt.Sprintf("pkg:gitea/%s/%s", owner, name)
}
