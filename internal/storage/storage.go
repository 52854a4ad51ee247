// Package storage defines the persistence boundaries for the service event
// log and projected snapshots.
package storage

import (
	"context"

	"github.com/avmapdata/avmap/internal/event"
	"github.com/avmapdata/avmap/internal/state"
)

// EventStore owns the append-only event log that drives projection; this is
// the source of truth for state reconstruction.
type EventStore interface {
	// AppendEvent validates and appends an event, returning it with its
	// sequence number set.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// ListEvents returns the full log ordered by date ascending, with source
	// order breaking same-date ties.
	ListEvents(ctx context.Context) ([]event.Event, error)
	// ListEventsByService returns a single service's events in log order.
	ListEventsByService(ctx context.Context, serviceID string) ([]event.Event, error)
}

// StateStore persists the snapshots emitted by the most recent projection
// pass for inspection and downstream sync.
type StateStore interface {
	// ReplaceStates atomically swaps the stored snapshot set.
	ReplaceStates(ctx context.Context, states []state.ServiceState) error
	// ListStates returns stored snapshots in emission order.
	ListStates(ctx context.Context) ([]state.ServiceState, error)
}
