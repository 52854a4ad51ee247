// Package projector parses projector command flags and runs a projection
// pass over the stored event log.
package projector

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/avmapdata/avmap/internal/emit"
	"github.com/avmapdata/avmap/internal/geometry"
	entrypoint "github.com/avmapdata/avmap/internal/platform/cmd"
	"github.com/avmapdata/avmap/internal/platform/id"
	"github.com/avmapdata/avmap/internal/projection"
	"github.com/avmapdata/avmap/internal/storage/sqlite"
)

// Config holds projector command configuration.
type Config struct {
	DBPath             string `env:"AVMAP_DB_PATH" envDefault:"data/avmap.db"`
	GeometriesDir      string `env:"AVMAP_GEOMETRIES_DIR" envDefault:"geometries"`
	OutputPath         string `env:"AVMAP_OUTPUT_PATH" envDefault:"data/states.json"`
	GeometryFetchLimit int    `env:"AVMAP_GEOMETRY_FETCH_LIMIT" envDefault:"8"`
	PersistStates      bool   `env:"AVMAP_PERSIST_STATES" envDefault:"true"`
	Strict             bool   `env:"AVMAP_STRICT" envDefault:"false"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The event log SQLite database path")
	fs.StringVar(&cfg.GeometriesDir, "geometries-dir", cfg.GeometriesDir, "Directory holding GeoJSON boundary files")
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output document path, or - for stdout")
	fs.IntVar(&cfg.GeometryFetchLimit, "geometry-fetch-limit", cfg.GeometryFetchLimit, "Maximum concurrent geometry resolutions")
	fs.BoolVar(&cfg.PersistStates, "persist-states", cfg.PersistStates, "Write projected states back to the database")
	fs.BoolVar(&cfg.Strict, "strict", cfg.Strict, "Fail when the projection reports structural errors")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes one projection pass.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceProjector, func(ctx context.Context) error {
		ctx, span := otel.Tracer("avmap/projector").Start(ctx, "project")
		defer span.End()

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

		runID, err := id.NewID()
		if err != nil {
			return fmt.Errorf("generate run id: %w", err)
		}
		doc := emit.Build(result, time.Now().UTC(), runID)

		if err := writeDocument(cfg.OutputPath, doc); err != nil {
			return err
		}

		if cfg.PersistStates {
			if err := store.ReplaceStates(ctx, result.States); err != nil {
				return fmt.Errorf("persist states: %w", err)
			}
		}

		log.Printf("projected %d events into %d states across %d services (%d errors, %d warnings, %d unresolved geometries)",
			doc.Counts.Events, doc.Counts.States, doc.Counts.Services,
			doc.Counts.StructuralErrors, doc.Counts.Warnings, doc.Counts.ResolutionFailures)

		if cfg.Strict && doc.Counts.StructuralErrors > 0 {
			return fmt.Errorf("projection reported %d structural errors", doc.Counts.StructuralErrors)
		}
		return nil
	})
}

func writeDocument(path string, doc emit.Document) error {
	if path == "-" {
		return emit.WriteJSON(os.Stdout, doc)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := emit.WriteJSON(file, doc); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}
