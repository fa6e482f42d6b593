package core

import (
	"context"
	"sync"
)

// BulkFetchLatestReleases fetches the latest release for multiple PURLs in
// parallel, at most concurrency at a time. Each PURL ends up in exactly one
// of the two maps: its release, or the error that fetching it returned.
func BulkFetchLatestReleases(ctx context.Context, purls []string, client *Client, concurrency int) (map[string]*Release, map[string]error) {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(map[string]*Release)
	errs := make(map[string]error)
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, purl := range purls {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				mu.Lock()
				errs[p] = ctx.Err()
				mu.Unlock()
				return
			}

			release, err := FetchLatestReleaseFromPURL(ctx, p, client)
			if err == nil && release == nil {
				err = &NoReleaseError{Name: p}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[p] = err
				return
			}
			results[p] = release
		}(purl)
	}

	wg.Wait()
	return results, errs
}
