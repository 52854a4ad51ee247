// Package sync parses sync command flags and uploads the event log plus
// projected snapshots to the hosted database.
package sync

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/avmapdata/avmap/internal/emit"
	"github.com/avmapdata/avmap/internal/geometry"
	entrypoint "github.com/avmapdata/avmap/internal/platform/cmd"
	"github.com/avmapdata/avmap/internal/projection"
	"github.com/avmapdata/avmap/internal/storage/sqlite"
	"github.com/avmapdata/avmap/internal/supabase"
)

// Config holds sync command configuration. Supabase credentials keep their
// upstream variable names so the same .env works across tooling.
type Config struct {
	DBPath             string `env:"AVMAP_DB_PATH" envDefault:"data/avmap.db"`
	GeometriesDir      string `env:"AVMAP_GEOMETRIES_DIR" envDefault:"geometries"`
	GeometryFetchLimit int    `env:"AVMAP_GEOMETRY_FETCH_LIMIT" envDefault:"8"`
	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	SupabaseAnonKey    string `env:"SUPABASE_ANON_KEY"`
	Staging            bool   `env:"STAGING"`
}

// ParseConfig loads .env outside CI, then parses environment and flags.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	if os.Getenv("GITHUB_ACTIONS") == "" {
		// Missing .env is fine; real environments export directly.
		_ = godotenv.Load()
	}

	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The event log SQLite database path")
	fs.StringVar(&cfg.GeometriesDir, "geometries-dir", cfg.GeometriesDir, "Directory holding GeoJSON boundary files")
	fs.IntVar(&cfg.GeometryFetchLimit, "geometry-fetch-limit", cfg.GeometryFetchLimit, "Maximum concurrent geometry resolutions")
	fs.BoolVar(&cfg.Staging, "staging", cfg.Staging, "Target the staging tables instead of production")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ServiceKey returns the service key, falling back to the anon key.
func (c Config) ServiceKey() string {
	if c.SupabaseServiceKey != "" {
		return c.SupabaseServiceKey
	}
	return c.SupabaseAnonKey
}

// Run projects the stored event log and uploads both the log and the
// resulting snapshots.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSync, func(ctx context.Context) error {
		client, err := supabase.New(cfg.SupabaseURL, cfg.ServiceKey(), cfg.Staging)
		if err != nil {
			return err
		}

		store, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open event store: %w", err)
		}
		defer store.Close()

		events, err := store.ListEvents(ctx)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}

		resolver, err := geometry.NewFileResolver(cfg.GeometriesDir)
		if err != nil {
			return err
		}
		result, err := projection.Project(ctx, events, resolver, projection.Options{
			GeometryPrefetchLimit: cfg.GeometryFetchLimit,
		})
		if err != nil {
			return fmt.Errorf("project events: %w", err)
		}

		if err := client.SyncEvents(ctx, result.Events); err != nil {
			return fmt.Errorf("sync events: %w", err)
		}
		records := make([]emit.StateRecord, 0, len(result.States))
		for _, s := range result.States {
			records = append(records, emit.Record(s))
		}
		if err := client.SyncStates(ctx, records); err != nil {
			return fmt.Errorf("sync states: %w", err)
		}

		log.Printf("synced %d events and %d states to %s/%s",
			len(result.Events), len(records), client.EventsTable(), client.StatesTable())
		return nil
	})
}
