package client

import "fmt"

// URLBuilder constructs human-facing URLs for a repository host.
type URLBuilder interface {
	Repository(owner, name string) string
	Release(owner, name, tag string) string
	PURL(owner, name, version string) string
}

// BaseURLs provides a default URLBuilder implementation.
type BaseURLs struct {
	RepositoryFn func(owner, name string) string
	ReleaseFn    func(owner, name, tag string) string
	PURLFn       func(owner, name, version string) string
}

func (b *BaseURLs) Repository(owner, name string) string {
	if b.RepositoryFn != nil {
		return b.RepositoryFn(owner, name)
	}
	return ""
}

func (b *BaseURLs) Release(owner, name, tag string) string {
	if b.ReleaseFn != nil {
		return b.ReleaseFn(owner, name, tag)
	}
	return ""
}

func (b *BaseURLs) PURL(owner, name, version string) string {
	if b.PURLFn != nil {
		return b.PURLFn(owner, name, version)
	}
	return fmt.Sprintf("pkg:%s/%s/%s", "generic", owner, name)
}

// BuildURLs returns a map of all non-empty URLs for a repository.
// Keys are "repository", "release", and "purl".
func BuildURLs(urls URLBuilder, owner, name, version string) map[string]string {
	result := make(map[string]string)
	if v := urls.Repository(owner, name); v != "" {
		result["repository"] = v
	}
	if version != "" {
		if v := urls.Release(owner, name, version); v != "" {
			result["release"] = v
		}
	}
	if v := urls.PURL(owner, name, version); v != "" {
		result["purl"] = v
	}
	return result
}
