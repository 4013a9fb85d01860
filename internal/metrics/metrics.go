// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	listingPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookcrawler_listing_pages_total",
			Help: "Total listing pages processed, labeled by outcome.",
		},
		[]string{"status"},
	)

	detailFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookcrawler_detail_fetches_total",
			Help: "Total detail page fetches, labeled by outcome.",
		},
		[]string{"status"},
	)

	booksExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawler_books_extracted_total",
			Help: "Total partial book records extracted from listing pages.",
		},
	)

	recordsCommittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawler_records_committed_total",
			Help: "Total book records committed to the store.",
		},
	)

	dedupSkipsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawler_dedup_skips_total",
			Help: "Total records skipped because their UPC was already stored.",
		},
	)

	commitErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookcrawler_commit_errors_total",
			Help: "Total store-level commit failures.",
		},
	)

	fetchDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookcrawler_fetch_duration_seconds",
			Help:    "Histogram of fetch latencies, labeled by page kind.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"kind"},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookcrawler_rate_limit_delays_seconds",
			Help:    "Histogram of politeness delay wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"host"},
	)
)

// Handler returns an http.Handler exposing the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveListingPage counts a processed listing page by outcome.
func ObserveListingPage(status string) {
	listingPagesTotal.WithLabelValues(status).Inc()
}

// ObserveDetailFetch counts a detail page fetch by outcome.
func ObserveDetailFetch(status string) {
	detailFetchesTotal.WithLabelValues(status).Inc()
}

// AddBooksExtracted counts partial records produced by the listing extractor.
func AddBooksExtracted(n int) {
	if n > 0 {
		booksExtractedTotal.Add(float64(n))
	}
}

// ObserveCommit counts a committed record.
func ObserveCommit() {
	recordsCommittedTotal.Inc()
}

// ObserveDedupSkip counts a record discarded by the UPC dedup check.
func ObserveDedupSkip() {
	dedupSkipsTotal.Inc()
}

// ObserveCommitError counts a failed store commit.
func ObserveCommitError() {
	commitErrorsTotal.Inc()
}

// ObserveFetchDuration records a fetch latency for a page kind.
func ObserveFetchDuration(kind string, d time.Duration) {
	fetchDurationSeconds.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveRateLimitDelay records how long a fetch waited on the limiter.
func ObserveRateLimitDelay(host string, d time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(d.Seconds())
}
