// Package github provides a source client for GitHub and GitHub Enterprise.
package github

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
	DefaultURL = "https://api.github.com"
	host       = "github"
	perPage    = 100
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

func New(baseURL string, client *core.Client) *Source {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = core.DefaultClient()
	}
	s := &Source{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
	s.urls = &URLs{webURL: webURLFor(s.baseURL)}
	return s
}

func (s *Source) Host() string {
	return host
}

func (s *Source) URLs() core.URLBuilder {
	return s.urls
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
	ID          int64       `json:"id"`
	TagName     string      `json:"tag_name"`
	Name        string      `json:"name"`
	HTMLURL     string      `json:"html_url"`
	Draft       bool        `json:"draft"`
	Prerelease  bool        `json:"prerelease"`
	PublishedAt time.Time   `json:"published_at"`
	Assets      []assetInfo `json:"assets"`
}

type assetInfo struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	URL                string    `json:"url"`
	BrowserDownloadURL string    `json:"browser_download_url"`
	ContentType        string    `json:"content_type"`
	Size               int64     `json:"size"`
	CreatedAt          time.Time `json:"created_at"`
}

type licenseResponse struct {
	License struct {
		Key    string `json:"key"`
		Name   string `json:"name"`
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
}

// ListRepositories lists an organization's repositories, falling back to
// the user endpoint when owner is not an organization.
func (s *Source) ListRepositories(ctx context.Context, owner string) ([]*core.Repository, error) {
	repos, err := s.listRepositories(ctx, fmt.Sprintf("%s/orgs/%s/repos?type=all&per_page=%d", s.baseURL, url.PathEscape(owner), perPage))
	if err != nil && core.IsNotFound(err) {
		repos, err = s.listRepositories(ctx, fmt.Sprintf("%s/users/%s/repos?type=owner&per_page=%d", s.baseURL, url.PathEscape(owner), perPage))
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

func (s *Source) listRepositories(ctx context.Context, next string) ([]repoInfo, error) {
	var all []repoInfo
	for next != "" {
		var page []repoInfo
		var err error
		next, err = s.client.GetJSONPage(ctx, next, &page)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
	}
	return all, nil
}

func (s *Source) FetchLatestRelease(ctx context.Context, owner, name string) (*core.Release, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/releases/latest", s.baseURL, url.PathEscape(owner), url.PathEscape(name))

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
		assets[i] = convertAsset(a)
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

func (s *Source) FetchLicense(ctx context.Context, owner, name string) (*core.License, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/license", s.baseURL, url.PathEscape(owner), url.PathEscape(name))

	var resp licenseResponse
	if err := s.client.GetJSON(ctx, u, &resp); err != nil {
		if core.IsNotFound(err) {
			return nil, &core.NotFoundError{Host: host, Owner: owner, Name: name, What: "license"}
		}
		return nil, err
	}
	if resp.License.Name == "" {
		return nil, nil
	}

	return &core.License{
		Name:   resp.License.Name,
		SPDXID: resp.License.SPDXID,
	}, nil
}

// FetchAssets pages through the release's asset listing. Releases without an
// ID (not fetched from the API) fall back to their embedded assets.
func (s *Source) FetchAssets(ctx context.Context, owner, name string, release *core.Release) ([]core.Asset, error) {
	if release == nil {
		return nil, errors.New("nil release")
	}
	if release.ID == 0 {
		return release.Assets, nil
	}

	next := fmt.Sprintf("%s/repos/%s/%s/releases/%d/assets?per_page=%d", s.baseURL, url.PathEscape(owner), url.PathEscape(name), release.ID, perPage)
	var assets []core.Asset
	for next != "" {
		var page []assetInfo
		var err error
		next, err = s.client.GetJSONPage(ctx, next, &page)
		if err != nil {
			return nil, fmt.Errorf("listing assets of %s/%s %s: %w", owner, name, release.TagName, err)
		}
		for _, a := range page {
			assets = append(assets, convertAsset(a))
		}
	}
	return assets, nil
}

func convertAsset(a assetInfo) core.Asset {
	return core.Asset{
		Name:               a.Name,
		BrowserDownloadURL: a.BrowserDownloadURL,
		URL:                a.URL,
		CreatedAt:          a.CreatedAt,
		Size:               a.Size,
		ContentType:        a.ContentType,
	}
}

// webURLFor maps an API base URL to the matching web host.
// api.github.com serves github.com; Enterprise serves the API under /api/v3.
func webURLFor(apiURL string) string {
	u, err := url.Parse(apiURL)
	if err != nil || u.Host == "" {
		return "https://github.com"
	}
	if u.Host == "api.github.com" {
		return "https://github.com"
	}
	u.Path = strings.TrimSuffix(strings.TrimSuffix(u.Path, "/"), "/api/v3")
	return strings.TrimSuffix(u.String(), "/")
}

type URLs struct {
	webURL string
}

func (u *URLs) Repository(owner, name string) string {
	return fmt.Sprintf("%s/%s/%s", u.webURL, owner, name)
}

func (u *URLs) Release(owner, name, tag string) string {
	return fmt.Sprintf("%s/%s/%s/releases/tag/%s", u.webURL, owner, name, url.PathEscape(tag))
}

func (u *URLs) PURL(owner, name, version string) string {
	if version != "" {
		return fmt.Sprintf("pkg:github/%s/%s@%s", owner, name, version)
	}
	return fmt.Sprintf("pkg:github/%s/%s", owner, name)
}
