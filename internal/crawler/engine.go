// Package crawler drives the crawl pipeline: it sequences listing pages,
// schedules detail fetches, merges the two extraction phases and commits
// records through the dedup seam. All failure isolation lives here.
package crawler

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/bookcatalog-crawler/internal/catalog"
	"github.com/JakeFAU/bookcatalog-crawler/internal/extract"
	"github.com/JakeFAU/bookcatalog-crawler/internal/fetcher"
	"github.com/JakeFAU/bookcatalog-crawler/internal/metrics"
)

// Config governs the page range of a crawl run.
type Config struct {
	// BaseURL is the catalog site root. Page 1 is fetched from the root
	// itself; later pages from catalogue/page-{n}.html.
	BaseURL   string
	StartPage int
	PageCount int
}

// Store is the persistence seam consumed by the engine. InsertIfNew
// performs the UPC dedup check and the insert as one named operation.
type Store interface {
	InsertIfNew(ctx context.Context, book catalog.Book) (int64, bool, error)
}

// Archiver optionally snapshots raw fetched pages. A nil Archiver
// disables archiving.
type Archiver interface {
	SavePage(url string, fetchedAt time.Time, body []byte) (string, error)
}

// Summary is the progress accounting reported after a run.
type Summary struct {
	RunID          string
	PagesFetched   int
	BooksExtracted int
	DetailsFetched int
	Committed      int
	DedupSkips     int
	CommitErrors   int
}

// Engine executes one crawl run, strictly sequentially: pages one at a
// time, items within a page one at a time. Every external call is
// wrapped so its failure degrades to a skipped or incomplete unit of
// work rather than aborting the run.
type Engine struct {
	cfg     Config
	base    *url.URL
	fetch   fetcher.Fetcher
	listing *extract.ListingParser
	store   Store
	archive Archiver
	logger  *zap.Logger
}

// NewEngine builds an Engine. The archive may be nil.
func NewEngine(cfg Config, fetch fetcher.Fetcher, store Store, archive Archiver, logger *zap.Logger) (*Engine, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if cfg.StartPage <= 0 {
		cfg.StartPage = 1
	}
	if cfg.PageCount <= 0 {
		cfg.PageCount = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:     cfg,
		base:    base,
		fetch:   fetch,
		listing: extract.NewListingParser(base, logger),
		store:   store,
		archive: archive,
		logger:  logger,
	}, nil
}

// Run walks the configured page range to completion and reports the
// final counts. The only fatal condition is context cancellation;
// everything else is logged and skipped.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	runID := uuid.New().String()
	logger := e.logger.With(zap.String("run_id", runID))
	sum := Summary{RunID: runID}

	logger.Info("crawl started",
		zap.String("base_url", e.cfg.BaseURL),
		zap.Int("start_page", e.cfg.StartPage),
		zap.Int("page_count", e.cfg.PageCount),
	)

	for page := e.cfg.StartPage; page < e.cfg.StartPage+e.cfg.PageCount; page++ {
		if err := ctx.Err(); err != nil {
			return sum, fmt.Errorf("crawl canceled: %w", err)
		}
		e.processPage(ctx, logger, page, &sum)
	}

	logger.Info("crawl finished",
		zap.Int("pages_fetched", sum.PagesFetched),
		zap.Int("books_extracted", sum.BooksExtracted),
		zap.Int("details_fetched", sum.DetailsFetched),
		zap.Int("committed", sum.Committed),
		zap.Int("dedup_skips", sum.DedupSkips),
		zap.Int("commit_errors", sum.CommitErrors),
	)
	return sum, nil
}

func (e *Engine) processPage(ctx context.Context, logger *zap.Logger, page int, sum *Summary) {
	pageURL := e.pageURL(page)

	start := time.Now()
	body, err := e.fetch.Fetch(ctx, pageURL)
	if err != nil {
		// A failed listing page is skipped whole; nothing on it is
		// partially processed.
		logger.Error("listing page fetch failed, skipping page",
			zap.Int("page", page),
			zap.String("url", pageURL),
			zap.Error(err),
		)
		metrics.ObserveListingPage("error")
		return
	}
	metrics.ObserveFetchDuration("listing", time.Since(start))
	metrics.ObserveListingPage("ok")
	sum.PagesFetched++
	e.archivePage(logger, pageURL, body)

	books := e.listing.Parse(body)
	logger.Info("listing page parsed",
		zap.Int("page", page),
		zap.Int("books_found", len(books)),
	)
	metrics.AddBooksExtracted(len(books))
	sum.BooksExtracted += len(books)

	for _, book := range books {
		e.processBook(ctx, logger, book, sum)
	}
}

func (e *Engine) processBook(ctx context.Context, logger *zap.Logger, book catalog.Book, sum *Summary) {
	if book.DetailURL == nil {
		logger.Warn("book has no detail url", zap.String("title", book.Title))
	} else {
		start := time.Now()
		body, err := e.fetch.Fetch(ctx, *book.DetailURL)
		if err != nil {
			// The record is still committed; description, UPC and
			// category simply stay absent. With no UPC the dedup
			// check cannot trigger for this record.
			logger.Warn("detail fetch failed, committing partial record",
				zap.String("title", book.Title),
				zap.String("url", *book.DetailURL),
				zap.Error(err),
			)
			metrics.ObserveDetailFetch("error")
		} else {
			metrics.ObserveFetchDuration("detail", time.Since(start))
			metrics.ObserveDetailFetch("ok")
			e.archivePage(logger, *book.DetailURL, body)

			detail := extract.ParseDetail(body)
			book.Description = detail.Description
			book.UPC = detail.UPC
			book.Category = detail.Category
			sum.DetailsFetched++
		}
	}

	id, inserted, err := e.store.InsertIfNew(ctx, book)
	if err != nil {
		logger.Error("commit failed, skipping record",
			zap.String("title", book.Title),
			zap.Error(err),
		)
		metrics.ObserveCommitError()
		sum.CommitErrors++
		return
	}
	if !inserted {
		logger.Info("duplicate upc, record skipped",
			zap.String("title", book.Title),
			zap.Stringp("upc", book.UPC),
		)
		metrics.ObserveDedupSkip()
		sum.DedupSkips++
		return
	}

	sum.Committed++
	logger.Info("book committed",
		zap.Int64("id", id),
		zap.String("title", book.Title),
	)
	metrics.ObserveCommit()
}

// pageURL maps a page index to its address: page 1 is the site root,
// every other page lives under catalogue/page-{n}.html.
func (e *Engine) pageURL(page int) string {
	if page == 1 {
		return e.base.String()
	}
	ref, err := e.base.Parse(fmt.Sprintf("catalogue/page-%d.html", page))
	if err != nil {
		return e.base.String()
	}
	return ref.String()
}

func (e *Engine) archivePage(logger *zap.Logger, pageURL string, body []byte) {
	if e.archive == nil {
		return
	}
	path, err := e.archive.SavePage(pageURL, time.Now().UTC(), body)
	if err != nil {
		logger.Warn("page archive failed",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return
	}
	logger.Debug("page archived", zap.String("path", path))
}
