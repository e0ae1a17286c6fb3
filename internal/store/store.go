package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mvexel/osm-fourmore/internal/config"
	"github.com/mvexel/osm-fourmore/internal/logger"
	"github.com/mvexel/osm-fourmore/internal/poi"
	"github.com/mvexel/osm-fourmore/internal/wkb"
)

// Store writes POI batches into the PostGIS pois table. One ingestion
// run owns the table for its duration; clearing and reloading has no
// isolation from a second writer, so concurrent runs must be
// serialized by the caller.
type Store struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

// New connects to PostgreSQL
func New(cfg *config.Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	// One connection for loading plus a few for index creation
	poolConfig.MaxConns = 4

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &Store{cfg: cfg, pool: pool}, nil
}

// Close closes all database connections
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) tableName() string {
	return fmt.Sprintf("%s.pois", s.cfg.DBSchema)
}

// EnsureSchema creates the PostGIS extension and schema if needed
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
		return fmt.Errorf("failed to create PostGIS extension: %w", err)
	}

	if s.cfg.DBSchema != "public" {
		if _, err := s.pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", s.cfg.DBSchema)); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// CreateTable creates the pois table if it does not exist
func (s *Store) CreateTable(ctx context.Context) error {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			osm_id BIGINT NOT NULL,
			osm_type CHAR(1) NOT NULL,
			name TEXT,
			class TEXT NOT NULL,
			subclass TEXT,
			location GEOMETRY(Point, 4326) NOT NULL,
			tags JSONB,
			address TEXT,
			phone TEXT,
			website TEXT,
			opening_hours TEXT,
			PRIMARY KEY (osm_type, osm_id)
		)
	`, s.tableName())

	if _, err := s.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create pois table: %w", err)
	}

	return nil
}

// Clear deletes every existing POI row in a single transaction. This
// is the destructive half of the full-rebuild contract: once it
// commits, the catalogue is empty until batches land.
func (s *Store) Clear(ctx context.Context) error {
	log := logger.Get()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", s.tableName()))
	if err != nil {
		return fmt.Errorf("failed to clear pois table: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	log.Info("Cleared existing POIs", zap.Int64("rows_deleted", tag.RowsAffected()))
	return nil
}

var copyColumns = []string{
	"osm_id", "osm_type", "name", "class", "subclass",
	"location", "tags", "address", "phone", "website", "opening_hours",
}

// LoadBatch inserts one batch in its own transaction via COPY. The
// batch commits atomically; the run as a whole does not, so a failure
// here leaves earlier batches in place.
func (s *Store) LoadBatch(ctx context.Context, batch []poi.POI) (int64, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, 0, len(batch))
	enc := wkb.NewEncoder()
	for _, p := range batch {
		tagsJSON, err := json.Marshal(p.Tags)
		if err != nil {
			return 0, fmt.Errorf("failed to encode tags for %s%d: %w", p.OsmType, p.OsmID, err)
		}
		// PostGIS accepts raw EWKB bytes for geometry columns; the
		// encoder reuses its buffer, so copy
		ewkb := append([]byte(nil), enc.EncodePoint(p.Lon, p.Lat)...)

		rows = append(rows, []interface{}{
			p.OsmID,
			string(p.OsmType),
			p.Name,
			p.Class,
			nullable(p.Subclass),
			ewkb,
			string(tagsJSON),
			nullable(p.Fields.Address),
			nullable(p.Fields.Phone),
			nullable(p.Fields.Website),
			nullable(p.Fields.OpeningHours),
		})
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	count, err := tx.CopyFrom(
		ctx,
		pgx.Identifier{s.cfg.DBSchema, "pois"},
		copyColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("COPY failed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}

	return count, nil
}

// CreateIndexes creates the spatial and query indexes in parallel
func (s *Store) CreateIndexes(ctx context.Context) error {
	log := logger.Get()
	table := s.tableName()

	indexes := []string{
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_pois_location_gist ON %s USING GIST (location)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_pois_class ON %s (class)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_pois_name_gin ON %s USING GIN (to_tsvector('english', name))", table),
	}

	log.Info("Creating indexes in parallel", zap.Int("indexes", len(indexes)))

	g, gctx := errgroup.WithContext(ctx)
	for _, sql := range indexes {
		sql := sql
		g.Go(func() error {
			conn, err := s.pool.Acquire(gctx)
			if err != nil {
				return fmt.Errorf("failed to acquire connection: %w", err)
			}
			defer conn.Release()

			if _, err := conn.Exec(gctx, sql); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if _, err := s.pool.Exec(ctx, fmt.Sprintf("ANALYZE %s", table)); err != nil {
		return fmt.Errorf("failed to analyze table: %w", err)
	}

	log.Info("All indexes created")
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
