// Package fetcher defines the page retrieval contract used by the crawl
// pipeline.
package fetcher

import "context"

// Fetcher retrieves a single page by absolute URL and returns its body.
// Transport failures, timeouts and non-success statuses are returned as
// errors; callers treat a failed fetch as "this unit of work is
// unavailable" and never as fatal.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
