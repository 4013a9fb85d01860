// Package main hosts the bookcrawler entrypoint.
//
// Architecture overview:
//   - CLI: cmd builds a cobra root with two subcommands. PersistentPreRunE
//     loads Viper config (env prefix BOOKCRAWLER, optional YAML file), builds
//     the zap logger, and stashes both in the command context.
//   - Crawl pipeline: internal/crawler.Engine walks the configured listing
//     pages strictly sequentially. Each page is fetched through the Colly
//     fetcher behind a per-host token bucket limiter, parsed into partial
//     records by internal/extract, enriched from detail pages, and committed
//     through the store's InsertIfNew UPC dedup seam. Every fetch, parse, and
//     commit failure degrades to a logged skip; only interrupt stops a run.
//   - Persistence: internal/storage/postgres appends rows via pgxpool; the
//     schema and UPC index are created on startup if missing. An optional
//     local page archive snapshots raw HTML under date-partitioned,
//     URL-hashed file names.
//   - Export: the export subcommand reads the first N rows in id order and
//     writes them as CSV with a console mirror.
//   - Observability: zap logs carry a per-run UUID; Prometheus collectors
//     track pages, fetch latency, commits, dedup skips, and limiter delays,
//     served on /metrics when crawl runs with --metrics-addr.
package main
