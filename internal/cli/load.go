package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dwhouse/retail-bi/internal/db"
	"github.com/dwhouse/retail-bi/internal/etl"
	"github.com/dwhouse/retail-bi/internal/logging"
)

var (
	loadFile      string
	loadBatchSize int
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Import a superstore CSV into the warehouse",
	Long: `Import a superstore-format CSV export into the star schema. The
whole import runs in one transaction: it either commits completely or,
on the first storage failure, rolls back leaving the warehouse untouched.

Rows with too few fields or an unparsable order date are skipped and
counted, not treated as failures.

Example:
  retail-bi load --file superstore.csv --connection "postgres://..."`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadFile, "file", "",
		"path of the CSV file to import")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch-size", 0,
		"fact rows buffered per bulk insert (default: 500)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if loadFile != "" {
		cfg.Load.File = loadFile
	}
	if loadBatchSize > 0 {
		cfg.Load.BatchSize = loadBatchSize
	}

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	f, err := os.Open(cfg.Load.File)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	logging.Info().
		Str("file", cfg.Load.File).
		Int("batch_size", cfg.Load.BatchSize).
		Msg("Starting import")

	loader := etl.NewLoader(pool, cfg.Load.BatchSize)
	res, err := loader.Run(ctx, f)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	cmd.Printf("Imported %d rows (%d malformed, %d with bad dates skipped)\n",
		res.Loaded, res.Malformed, res.BadDates)
	return nil
}
