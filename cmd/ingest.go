package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/mvexel/osm-fourmore/internal/category"
	"github.com/mvexel/osm-fourmore/internal/logger"
	"github.com/mvexel/osm-fourmore/internal/pipeline"
	"github.com/mvexel/osm-fourmore/internal/store"
)

var (
	createIndexes bool
	skipClear     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <input.osm.pbf>",
	Short: "Build the POI catalogue from an OSM extract",
	Long: `Run the full catalogue rebuild:

  1. Validate the category mapping
  2. Pass 1: stream node coordinates into a memory-mapped index
  3. Clear the existing catalogue
  4. Pass 2: classify named nodes and ways, reduce way geometries to
     points, and COPY batches into PostgreSQL

Each batch commits in its own transaction. A failed run leaves the
batches committed before the failure in place; rerun to rebuild from
scratch.`,
	Args: cobra.ExactArgs(1),
	Run:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "POI records per load transaction")
	ingestCmd.Flags().BoolVar(&createIndexes, "create-indexes", true, "Create indexes after loading")
	ingestCmd.Flags().BoolVar(&skipClear, "skip-clear", false, "Keep existing rows instead of clearing (for loading disjoint extracts)")
}

func runIngest(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	rules, err := category.Load(cfg.MappingFile)
	if err != nil {
		exitWithError("invalid category mapping", err)
	}

	log.Info("Starting catalogue rebuild",
		zap.String("input", cfg.InputFile),
		zap.String("mapping", cfg.MappingFile),
		zap.Int("categories", rules.Len()),
		zap.String("output", fmt.Sprintf("%s:%d/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)),
		zap.Int("batch_size", cfg.BatchSize),
	)

	totalStart := time.Now()
	ctx := context.Background()

	producer, err := pipeline.NewProducer(ctx, cfg, rules)
	if err != nil {
		exitWithError("failed to prepare extract", err)
	}
	defer producer.Close()

	st, err := store.New(cfg)
	if err != nil {
		exitWithError("failed to connect to database", err)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		exitWithError("failed to prepare schema", err)
	}
	if err := st.CreateTable(ctx); err != nil {
		exitWithError("failed to create table", err)
	}

	var dest pipeline.BatchStore = st
	if skipClear {
		dest = keepExisting{st}
	}

	driver := pipeline.NewDriver(cfg, producer, dest)
	stats, err := driver.Run(ctx)
	if err != nil {
		var runErr *pipeline.RunError
		if errors.As(err, &runErr) {
			exitWithError(fmt.Sprintf("ingestion failed in %s phase (%d records already committed)",
				runErr.Phase, runErr.Committed), runErr.Err)
		}
		exitWithError("ingestion failed", err)
	}

	if createIndexes {
		if err := st.CreateIndexes(ctx); err != nil {
			exitWithError("failed to create indexes", err)
		}
	}

	pStats := producer.Stats()
	totalElapsed := time.Since(totalStart)
	log.Info("Catalogue rebuild complete",
		zap.Duration("total_time", totalElapsed.Round(time.Second)),
		zap.Int64("nodes_scanned", pStats.Nodes),
		zap.Int64("ways_scanned", pStats.Ways),
		zap.Int64("relations_skipped", pStats.Relations),
		zap.Int64("pois_loaded", stats.RecordsLoaded),
		zap.Int64("batches", stats.Batches),
		zap.Float64("pois_per_sec", float64(stats.RecordsLoaded)/totalElapsed.Seconds()),
	)

	logger.Sync()
}

// keepExisting wraps a store so Clear is a no-op. Loading two disjoint
// extracts into one catalogue is safe; overlapping extracts will hit
// the primary key.
type keepExisting struct {
	*store.Store
}

func (keepExisting) Clear(ctx context.Context) error {
	logger.Get().Info("Skipping clear, keeping existing POIs")
	return nil
}
