package cmd

import (
	"context"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/mvexel/osm-fourmore/internal/logger"
	"github.com/mvexel/osm-fourmore/internal/store"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the schema, pois table, and indexes",
	Long: `Prepare the target database for ingestion: enable PostGIS, create
the schema if needed, and create the pois table and its indexes.
Everything is idempotent; rerunning against an initialized database is
a no-op.`,
	Args: cobra.NoArgs,
	Run:  runInitDB,
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(cmd *cobra.Command, args []string) {
	log := logger.Get()
	ctx := context.Background()

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
	if err := st.CreateIndexes(ctx); err != nil {
		exitWithError("failed to create indexes", err)
	}

	log.Info("Database initialized",
		zap.String("database", cfg.DBName),
		zap.String("schema", cfg.DBSchema),
	)
}
