// Package local implements a local filesystem archive for raw fetched
// pages.
package local

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config captures the parameters for the page archive.
type Config struct {
	// BaseDir is the root directory where page snapshots are stored.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// PageArchive writes raw HTML snapshots to the local filesystem, one file
// per fetched page, partitioned by fetch date.
type PageArchive struct {
	baseDir string
}

// New creates a filesystem-backed PageArchive.
func New(cfg Config) (*PageArchive, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
				return nil, fmt.Errorf("create base directory: %w", mkErr)
			}
		} else {
			return nil, fmt.Errorf("stat base directory: %w", err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up writability probe: %w", err)
	}

	return &PageArchive{baseDir: cfg.BaseDir}, nil
}

// SavePage writes one page body under a date-partitioned, URL-hashed name
// and returns the file path.
func (a *PageArchive) SavePage(url string, fetchedAt time.Time, body []byte) (string, error) {
	fullPath := filepath.Join(a.baseDir, objectName(url, fetchedAt))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return "", fmt.Errorf("create archive partition: %w", err)
	}
	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return "", fmt.Errorf("write page snapshot: %w", err)
	}
	return fullPath, nil
}

func objectName(url string, fetchedAt time.Time) string {
	urlHash := fmt.Sprintf("%x", sha256.Sum256([]byte(url)))
	return filepath.Join(
		fetchedAt.Format("2006-01-02"),
		fmt.Sprintf("%s.html", urlHash),
	)
}
