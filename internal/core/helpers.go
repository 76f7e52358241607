package core

import (
	"context"
	"sync"
	"time"
)

const defaultConcurrency = 15

// Both holds the independent outcomes of a metadata and a downloads fetch.
// Either half may have failed while the other succeeded.
type Both struct {
	Metadata    *Metadata
	MetadataErr error
	Series      Series
	SeriesErr   error
}

// FetchBoth fetches metadata and the download series concurrently.
// Neither fetch waits on or cancels the other.
func FetchBoth(ctx context.Context, src Source, name string, until time.Time) Both {
	var (
		res Both
		wg  sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Metadata, res.MetadataErr = src.FetchMetadata(ctx, name)
	}()
	go func() {
		defer wg.Done()
		res.Series, res.SeriesErr = src.FetchDownloads(ctx, name, until, time.Time{})
	}()
	wg.Wait()

	return res
}

// BulkFetchMetadata fetches metadata for multiple packages in parallel.
// Individual fetch errors are silently ignored - those names are omitted from results.
func BulkFetchMetadata(ctx context.Context, src Source, names []string) map[string]*Metadata {
	return BulkFetchMetadataWithConcurrency(ctx, src, names, defaultConcurrency)
}

// BulkFetchMetadataWithConcurrency fetches metadata with a custom concurrency limit.
func BulkFetchMetadataWithConcurrency(ctx context.Context, src Source, names []string, concurrency int) map[string]*Metadata {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make(map[string]*Metadata)
	var mu sync.Mutex
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, name := range names {
		wg.Add(1)
		go func(n string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			meta, err := src.FetchMetadata(ctx, n)
			if err == nil && meta != nil {
				mu.Lock()
				results[n] = meta
				mu.Unlock()
			}
		}(name)
	}

	wg.Wait()
	return results
}
