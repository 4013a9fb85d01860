package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/bookcatalog-crawler/internal/export"
	"github.com/JakeFAU/bookcatalog-crawler/internal/storage/postgres"
)

// newExportCmd creates and configures the 'export' subcommand. It is a pure
// read path over the store: the first N committed rows, in id order, written
// as CSV and mirrored to the console.
func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exports the first stored records as CSV",
		Long: `Reads the first N committed book records ordered by identifier and
writes them to a CSV file, printing the same rows to the console. The row
limit and output path come from the export config section.`,

		RunE: runExportCommand,
	}
	return cmd
}

func runExportCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
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

	if err := export.FirstN(ctx, store, cfg.Export.Limit, cfg.Export.Output, os.Stdout, logger.Named("export")); err != nil {
		return fmt.Errorf("export records: %w", err)
	}

	logger.Info("export command finished",
		zap.Int("limit", cfg.Export.Limit),
		zap.String("output", cfg.Export.Output),
	)
	return nil
}
