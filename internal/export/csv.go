// Package export serializes the first stored records to CSV with a
// console mirror. It is a pure read path over the book store.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/bookcatalog-crawler/internal/storage/postgres"
)

// header lists the exported columns in store-column order.
var header = []string{"id", "title", "price", "availability", "rating", "category", "upc"}

// Reader is the store surface the exporter consumes.
type Reader interface {
	FirstN(ctx context.Context, n int) ([]postgres.StoredBook, error)
}

// FirstN reads the first n records ordered by identifier, writes them as
// a UTF-8 CSV file at outPath and mirrors the same rows to console.
func FirstN(ctx context.Context, reader Reader, n int, outPath string, console io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	books, err := reader.FirstN(ctx, n)
	if err != nil {
		return fmt.Errorf("read first %d books: %w", n, err)
	}

	if err := ensureDir(outPath); err != nil {
		return err
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	fmt.Fprintf(console, "First %d records:\n", n)
	for _, b := range books {
		row := rowFor(b)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
		fmt.Fprintf(console, "%d | %s | %s | %s | %s | %s | %s\n",
			b.ID, b.Title, row[2], row[3], row[4], row[5], row[6])
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}

	logger.Info("export finished",
		zap.Int("rows", len(books)),
		zap.String("path", outPath),
	)
	fmt.Fprintf(console, "\nExported to %s\n", outPath)
	return nil
}

// rowFor serializes one stored record; absent fields become empty cells.
func rowFor(b postgres.StoredBook) []string {
	row := []string{
		strconv.FormatInt(b.ID, 10),
		b.Title,
		"", "", "", "", "",
	}
	if b.Price != nil {
		row[2] = strconv.FormatFloat(*b.Price, 'f', 2, 64)
	}
	if b.Availability != nil {
		row[3] = *b.Availability
	}
	if b.Rating != nil {
		row[4] = strconv.Itoa(*b.Rating)
	}
	if b.Category != nil {
		row[5] = *b.Category
	}
	if b.UPC != nil {
		row[6] = *b.UPC
	}
	return row
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
