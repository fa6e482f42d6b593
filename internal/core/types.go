// Package core provides shared types and the source registry.
package core

import (
	"strings"
	"time"

	"github.com/github/go-spdx/v2/spdxexp"
)

// Sentinel license values meaning the license is not meaningfully known.
const (
	LicenseUnknown = "UNKNOWN"
	LicenseOther   = "OTHER"
)

// IsSentinelLicense reports whether license is one of the placeholder values.
func IsSentinelLicense(license string) bool {
	return license == LicenseUnknown || license == LicenseOther
}

// ModEntry is one tracked mod in a modpack manifest.
type ModEntry struct {
	Name               string     `json:"name" yaml:"name"`
	Version            string     `json:"version" yaml:"version"`
	License            string     `json:"license" yaml:"license"`
	Side               string     `json:"side,omitempty" yaml:"side,omitempty"`
	RepoURL            string     `json:"repo_url" yaml:"repo_url,omitempty"`
	DownloadURL        string     `json:"download_url" yaml:"download_url,omitempty"`
	BrowserDownloadURL string     `json:"browser_download_url" yaml:"browser_download_url,omitempty"`
	Filename           string     `json:"filename" yaml:"filename,omitempty"`
	TaggedAt           *time.Time `json:"tagged_at" yaml:"tagged_at,omitempty"`
}

// SetAsset records a as the mod's distributable. The four asset fields are
// only ever written together so they always describe the same file.
func (m *ModEntry) SetAsset(a Asset) {
	m.BrowserDownloadURL = a.BrowserDownloadURL
	m.DownloadURL = a.URL
	m.Filename = a.Name
	if a.CreatedAt.IsZero() {
		m.TaggedAt = nil
	} else {
		t := a.CreatedAt
		m.TaggedAt = &t
	}
}

// AssetComplete reports whether all download locators and the filename are set.
func (m *ModEntry) AssetComplete() bool {
	return m.DownloadURL != "" && m.Filename != "" && m.BrowserDownloadURL != ""
}

// Release is a tagged, versioned publication of a repository.
type Release struct {
	ID          int64
	TagName     string
	Name        string
	HTMLURL     string
	PublishedAt time.Time
	Draft       bool
	Prerelease  bool
	Assets      []Asset // as embedded in the release response, may be partial
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name               string
	BrowserDownloadURL string
	URL                string // API locator
	CreatedAt          time.Time
	Size               int64
	ContentType        string
}

// License is the license a host detected for a repository.
type License struct {
	Name   string
	SPDXID string
}

// IsSPDX reports whether the detected identifier is a valid SPDX license.
func (l License) IsSPDX() bool {
	id := strings.TrimSpace(l.SPDXID)
	if id == "" || id == "NOASSERTION" {
		return false
	}
	valid, _ := spdxexp.ValidateLicenses([]string{id})
	return valid
}

// LicenseStatus distinguishes the outcomes of a license lookup.
type LicenseStatus int

const (
	LicenseFound LicenseStatus = iota
	LicenseAbsent
	LicenseFailed
)

func (s LicenseStatus) String() string {
	switch s {
	case LicenseFound:
		return "found"
	case LicenseAbsent:
		return "absent"
	default:
		return "failed"
	}
}

// LicenseResult is the outcome of a license lookup.
type LicenseResult struct {
	Status  LicenseStatus
	License License
	Err     error
}

// LicenseFromLookup classifies the return values of Source.FetchLicense.
// Not-found errors and empty names count as absent, anything else as failed.
func LicenseFromLookup(lic *License, err error) LicenseResult {
	switch {
	case err != nil && IsNotFound(err):
		return LicenseResult{Status: LicenseAbsent}
	case err != nil:
		return LicenseResult{Status: LicenseFailed, Err: err}
	case lic == nil || strings.TrimSpace(lic.Name) == "":
		return LicenseResult{Status: LicenseAbsent}
	default:
		return LicenseResult{Status: LicenseFound, License: *lic}
	}
}
