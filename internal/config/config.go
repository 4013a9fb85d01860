// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Crawler CrawlerConfig `mapstructure:"crawler"`
	DB      DBConfig      `mapstructure:"db"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Export  ExportConfig  `mapstructure:"export"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// CrawlerConfig governs the crawl pipeline.
type CrawlerConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	StartPage         int     `mapstructure:"start_page"`
	PageCount         int     `mapstructure:"page_count"`
	UserAgent         string  `mapstructure:"user_agent"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// ArchiveConfig toggles raw page snapshots on the local filesystem.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseDir string `mapstructure:"base_dir"`
}

// ExportConfig controls the CSV export path.
type ExportConfig struct {
	Limit  int    `mapstructure:"limit"`
	Output string `mapstructure:"output"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKCRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.base_url", "https://books.toscrape.com/")
	v.SetDefault("crawler.start_page", 1)
	v.SetDefault("crawler.page_count", 3)
	v.SetDefault("crawler.user_agent", "Mozilla/5.0 (compatible; bookcatalog-crawler/0.1; +https://books.toscrape.com/)")
	v.SetDefault("crawler.requests_per_second", 1.0)
	v.SetDefault("crawler.timeout_seconds", 10)
	// Registered empty so the BOOKCRAWLER_DB_DSN env override reaches
	// Unmarshal; Validate rejects it when still unset.
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "books")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.base_dir", "data/pages")
	v.SetDefault("export.limit", 10)
	v.SetDefault("export.output", "first_10_books.csv")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Crawler.BaseURL == "" {
		return fmt.Errorf("crawler.base_url is required")
	}
	u, err := url.Parse(c.Crawler.BaseURL)
	if err != nil {
		return fmt.Errorf("crawler.base_url is invalid: %w", err)
	}
	if u.Host == "" {
		return fmt.Errorf("crawler.base_url must include a host")
	}
	if c.Crawler.StartPage <= 0 {
		return fmt.Errorf("crawler.start_page must be > 0")
	}
	if c.Crawler.PageCount <= 0 {
		return fmt.Errorf("crawler.page_count must be > 0")
	}
	if c.Crawler.UserAgent == "" {
		return fmt.Errorf("crawler.user_agent is required")
	}
	if c.Crawler.RequestsPerSecond < 0 {
		return fmt.Errorf("crawler.requests_per_second cannot be negative")
	}
	if c.Crawler.TimeoutSeconds <= 0 {
		return fmt.Errorf("crawler.timeout_seconds must be > 0")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required")
	}
	if c.Archive.Enabled && c.Archive.BaseDir == "" {
		return fmt.Errorf("archive.base_dir must be set when archiving is enabled")
	}
	if c.Export.Limit <= 0 {
		return fmt.Errorf("export.limit must be > 0")
	}
	if c.Export.Output == "" {
		return fmt.Errorf("export.output is required")
	}
	return nil
}

// Timeout converts the HTTP timeout config into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.Crawler.TimeoutSeconds) * time.Second
}
