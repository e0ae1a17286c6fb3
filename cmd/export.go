package cmd

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/mvexel/osm-fourmore/internal/category"
	"github.com/mvexel/osm-fourmore/internal/logger"
	"github.com/mvexel/osm-fourmore/internal/parquet"
	"github.com/mvexel/osm-fourmore/internal/pipeline"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <input.osm.pbf>",
	Short: "Export classified POIs to a Parquet file",
	Long: `Run the classification pipeline without a database, writing the
catalogue to a single Parquet file instead. The rows carry the same
columns as the pois table, with lat/lon in place of the geometry.`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "pois.parquet", "Output Parquet file")
	exportCmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Rows per Parquet row group")
}

func runExport(cmd *cobra.Command, args []string) {
	cfg.InputFile = args[0]
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("invalid configuration", err)
	}

	rules, err := category.Load(cfg.MappingFile)
	if err != nil {
		exitWithError("invalid category mapping", err)
	}

	log.Info("Starting POI export",
		zap.String("input", cfg.InputFile),
		zap.String("output", exportOutput),
		zap.Int("categories", rules.Len()),
	)

	start := time.Now()
	ctx := context.Background()

	producer, err := pipeline.NewProducer(ctx, cfg, rules)
	if err != nil {
		exitWithError("failed to prepare extract", err)
	}
	defer producer.Close()

	writer, err := parquet.NewPOIWriter(exportOutput, cfg.BatchSize)
	if err != nil {
		exitWithError("failed to create output file", err)
	}

	var written int64
	for {
		batch, err := producer.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			exitWithError("export failed", err)
		}
		for _, p := range batch {
			if err := writer.Write(p); err != nil {
				exitWithError("failed to write POI", err)
			}
		}
		written += int64(len(batch))
	}

	if err := writer.Close(); err != nil {
		exitWithError("failed to finalize output file", err)
	}

	elapsed := time.Since(start)
	log.Info("Export complete",
		zap.Duration("duration", elapsed.Round(time.Second)),
		zap.Int64("pois", written),
		zap.String("output", exportOutput),
	)

	logger.Sync()
}
