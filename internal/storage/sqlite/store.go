// Package sqlite provides SQLite-backed persistence for the service event
// log and projected snapshots.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/avmapdata/avmap/internal/event"
	sqlitemigrate "github.com/avmapdata/avmap/internal/platform/storage/sqlitemigrate"
	"github.com/avmapdata/avmap/internal/storage"
	"github.com/avmapdata/avmap/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed event log and snapshot persistence.
type Store struct {
	sqlDB *sql.DB
}

var (
	_ storage.EventStore = (*Store)(nil)
	_ storage.StateStore = (*Store)(nil)
)

// Open opens the store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// AppendEvent validates and appends an event, returning it with its sequence
// number set.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return event.Event{}, fmt.Errorf("storage is not configured")
	}

	evt.Company = strings.TrimSpace(evt.Company)
	evt.Location = strings.TrimSpace(evt.Location)
	evt.SourceURL = strings.TrimSpace(evt.SourceURL)
	evt.Notes = strings.TrimSpace(evt.Notes)
	if err := event.Validate(evt); err != nil {
		return event.Event{}, err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO events (
	service_id,
	company,
	location,
	event_date,
	kind,
	source_url,
	notes,
	payload_json,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		evt.ServiceID(),
		evt.Company,
		evt.Location,
		evt.Date.Format(event.DateLayout),
		string(evt.Kind),
		evt.SourceURL,
		evt.Notes,
		string(evt.PayloadJSON),
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return event.Event{}, fmt.Errorf("append event: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return event.Event{}, fmt.Errorf("read event seq: %w", err)
	}
	evt.Seq = uint64(seq)
	return evt, nil
}

// ListEvents returns the full log ordered by date, with append order
// breaking same-date ties.
func (s *Store) ListEvents(ctx context.Context) ([]event.Event, error) {
	return s.listEvents(ctx, "", "")
}

// ListEventsByService returns a single service's events in log order.
func (s *Store) ListEventsByService(ctx context.Context, serviceID string) ([]event.Event, error) {
	serviceID = strings.TrimSpace(serviceID)
	if serviceID == "" {
		return nil, fmt.Errorf("service id is required")
	}
	return s.listEvents(ctx, "WHERE service_id = ?", serviceID)
}

func (s *Store) listEvents(ctx context.Context, where, arg string) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	query := `
SELECT
	seq,
	company,
	location,
	event_date,
	kind,
	source_url,
	notes,
	payload_json
FROM events
` + where + `
ORDER BY event_date ASC, seq ASC
`
	var rows *sql.Rows
	var err error
	if where == "" {
		rows, err = s.sqlDB.QueryContext(ctx, query)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx, query, arg)
	}
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		var (
			evt     event.Event
			seq     int64
			date    string
			kind    string
			payload string
		)
		if err := rows.Scan(
			&seq,
			&evt.Company,
			&evt.Location,
			&date,
			&kind,
			&evt.SourceURL,
			&evt.Notes,
			&payload,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		parsed, err := event.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse event date %q: %w", date, err)
		}
		evt.Seq = uint64(seq)
		evt.Date = parsed
		evt.Kind = event.Kind(kind)
		if payload != "" {
			evt.PayloadJSON = []byte(payload)
		}
		events = append(events, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
