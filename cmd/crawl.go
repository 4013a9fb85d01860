// Package cmd defines and implements the CLI commands for the bookcrawler executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/bookcatalog-crawler/internal/config"
	"github.com/JakeFAU/bookcatalog-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/bookcatalog-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/bookcatalog-crawler/internal/metrics"
	"github.com/JakeFAU/bookcatalog-crawler/internal/ratelimit"
	"github.com/JakeFAU/bookcatalog-crawler/internal/storage/local"
	"github.com/JakeFAU/bookcatalog-crawler/internal/storage/postgres"
)

// newCrawlCmd creates and configures the 'crawl' subcommand. It walks the
// configured page range once, sequentially, and reports a run summary.
func newCrawlCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs one crawl over the configured catalog pages",
		Long: `Fetches the configured listing pages in order, extracts a partial record
per book, enriches each from its detail page, and commits the results to
Postgres. Records whose UPC is already stored are skipped. Fetch and commit
failures are logged and skipped; the run itself only stops on interrupt.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawlCommand(cmd.Context(), metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address for the duration of the run (e.g. :9090)")
	return cmd
}

func runCrawlCommand(ctx context.Context, metricsAddr string) error {
	rt, err := resolveRuntime(ctx)
	if err != nil {
		return err
	}
	cfg, logger := rt.Config, rt.Logger

	store, err := postgres.NewBookStore(ctx, postgres.BookStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		return fmt.Errorf("init book store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	engine, err := buildCrawlEngine(cfg, store, logger)
	if err != nil {
		return err
	}

	stopMetrics := startMetricsServer(metricsAddr, logger)
	defer stopMetrics()

	summary, err := engine.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("crawl interrupted", zap.String("run_id", summary.RunID))
			return nil
		}
		return fmt.Errorf("run crawl: %w", err)
	}

	logger.Info("crawl command finished",
		zap.String("run_id", summary.RunID),
		zap.Int("pages_fetched", summary.PagesFetched),
		zap.Int("committed", summary.Committed),
		zap.Int("dedup_skips", summary.DedupSkips),
	)
	return nil
}

func buildCrawlEngine(cfg config.Config, store crawler.Store, logger *zap.Logger) (*crawler.Engine, error) {
	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
	})
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Crawler.UserAgent,
		Timeout:   cfg.Timeout(),
	}, limiter, logger.Named("fetcher"))

	var archive crawler.Archiver
	if cfg.Archive.Enabled {
		pageArchive, err := local.New(local.Config{BaseDir: cfg.Archive.BaseDir})
		if err != nil {
			return nil, fmt.Errorf("init page archive: %w", err)
		}
		archive = pageArchive
	}

	engine, err := crawler.NewEngine(crawler.Config{
		BaseURL:   cfg.Crawler.BaseURL,
		StartPage: cfg.Crawler.StartPage,
		PageCount: cfg.Crawler.PageCount,
	}, fetcher, store, archive, logger.Named("crawler"))
	if err != nil {
		return nil, fmt.Errorf("init engine: %w", err)
	}
	return engine, nil
}

// startMetricsServer exposes /metrics while the crawl runs. Returns a stop
// function; both are no-ops when no address is configured.
func startMetricsServer(addr string, logger *zap.Logger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics server started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server error", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown error", zap.Error(err))
		}
	}
}
