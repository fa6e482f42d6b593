package core

import (
	"errors"
	"fmt"

	"github.com/git-pkgs/modsync/client"
)

var (
	// ErrRepositoryNotFound is signalled when a tracked mod has no upstream repository.
	ErrRepositoryNotFound = errors.New("repository not found")

	// ErrNoRelease is signalled when a repository exists but has no published release.
	ErrNoRelease = errors.New("no release found")

	// ErrNoAsset is signalled when a release carries no qualifying asset.
	ErrNoAsset = errors.New("no qualifying asset")

	// ErrNotFound is returned by the HTTP layer for 404 responses.
	ErrNotFound = client.ErrNotFound
)

// MissingRepositoryError reports a mod whose repository is not in the index.
type MissingRepositoryError struct {
	Name string
}

func (e *MissingRepositoryError) Error() string {
	return fmt.Sprintf("couldn't find repo %s", e.Name)
}

func (e *MissingRepositoryError) Is(target error) bool {
	return target == ErrRepositoryNotFound
}

// NoReleaseError reports a repository without a latest release.
type NoReleaseError struct {
	Host  string
	Owner string
	Name  string
}

func (e *NoReleaseError) Error() string {
	if e.Owner == "" {
		return fmt.Sprintf("no latest release found for %s", e.Name)
	}
	return fmt.Sprintf("%s: no latest release found for %s/%s", e.Host, e.Owner, e.Name)
}

func (e *NoReleaseError) Unwrap() error {
	return ErrNoRelease
}

// NoAssetError reports a release with no qualifying asset.
type NoAssetError struct {
	Name string
	Tag  string
}

func (e *NoAssetError) Error() string {
	return fmt.Sprintf("no qualifying asset in %s release %s", e.Name, e.Tag)
}

func (e *NoAssetError) Unwrap() error {
	return ErrNoAsset
}

// IsNotFound reports whether err is a not-found condition from the HTTP layer.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
