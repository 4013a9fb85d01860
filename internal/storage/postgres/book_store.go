// Package postgres provides the Postgres-backed book record store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/bookcatalog-crawler/internal/catalog"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// BookStoreConfig controls the Postgres connection pool used for book rows.
type BookStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// BookStore persists book records into Postgres. Committed rows are
// never updated or deleted; the store only ever appends.
type BookStore struct {
	pool  pgxPool
	table string
}

// StoredBook is a committed row as read back for the export path.
type StoredBook struct {
	ID           int64
	Title        string
	Price        *float64
	Availability *string
	Rating       *int
	Category     *string
	UPC          *string
}

// NewBookStore creates a Postgres-backed BookStore using the provided config.
func NewBookStore(ctx context.Context, cfg BookStoreConfig) (*BookStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "books"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &BookStore{pool: pool, table: table}, nil
}

// NewBookStoreWithPool constructs a store from an existing pool (primarily
// for testing).
func NewBookStoreWithPool(pool pgxPool, table string) (*BookStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "books"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &BookStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *BookStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the book table and its UPC index if missing.
func (s *BookStore) EnsureSchema(ctx context.Context) error {
	createTable := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	price NUMERIC(10,2),
	availability TEXT,
	rating INTEGER,
	image_url TEXT,
	description TEXT,
	upc TEXT,
	category TEXT,
	scraped_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, s.table)
	if _, err := s.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("create table %s: %w", s.table, err)
	}

	createIndex := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS %s_upc_idx ON %s (upc)`, s.table, s.table,
	)
	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("create upc index: %w", err)
	}
	return nil
}

// Exists reports whether a committed record with the given UPC is present.
func (s *BookStore) Exists(ctx context.Context, upc string) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE upc = $1 LIMIT 1`, s.table)
	var one int
	err := s.pool.QueryRow(ctx, query, upc).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check upc %s: %w", upc, err)
	}
	return true, nil
}

// Insert commits a book record and returns its assigned identifier.
func (s *BookStore) Insert(ctx context.Context, book catalog.Book) (int64, error) {
	query := fmt.Sprintf(`
INSERT INTO %s (
	title,
	price,
	availability,
	rating,
	image_url,
	description,
	upc,
	category
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8
) RETURNING id`, s.table)

	var id int64
	err := s.pool.QueryRow(ctx, query,
		book.Title,
		book.Price,
		book.Availability,
		book.Rating,
		book.ImageURL,
		book.Description,
		book.UPC,
		book.Category,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert book %q: %w", book.Title, err)
	}
	return id, nil
}

// InsertIfNew is the check-then-insert seam: when the record carries a
// UPC that is already stored, nothing is inserted and inserted=false is
// returned. A record without a UPC is always inserted; duplicates are
// accepted in that case because no dedup check is possible. Kept as one
// named operation so a concurrent crawl can swap it for a single atomic
// conditional insert.
func (s *BookStore) InsertIfNew(ctx context.Context, book catalog.Book) (int64, bool, error) {
	if book.UPC != nil {
		exists, err := s.Exists(ctx, *book.UPC)
		if err != nil {
			return 0, false, err
		}
		if exists {
			return 0, false, nil
		}
	}
	id, err := s.Insert(ctx, book)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// FirstN returns the first n committed rows ordered by identifier, for
// the export path.
func (s *BookStore) FirstN(ctx context.Context, n int) ([]StoredBook, error) {
	query := fmt.Sprintf(`
SELECT id, title, price, availability, rating, category, upc
FROM %s
ORDER BY id
LIMIT $1`, s.table)

	rows, err := s.pool.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query first %d books: %w", n, err)
	}
	defer rows.Close()

	var books []StoredBook
	for rows.Next() {
		var b StoredBook
		if err := rows.Scan(&b.ID, &b.Title, &b.Price, &b.Availability, &b.Rating, &b.Category, &b.UPC); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}
	return books, nil
}
