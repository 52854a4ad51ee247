// Package supabase syncs the event log and projected snapshots to the hosted
// database over the PostgREST API.
package supabase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/avmapdata/avmap/internal/emit"
	"github.com/avmapdata/avmap/internal/event"
)

const (
	syncBatchSize = 50
	// PostgREST delete requires a filter; excluding the zero UUID matches
	// every row.
	clearFilter = "id=neq.00000000-0000-0000-0000-000000000000"
)

// Client talks to the Supabase REST API for one environment.
type Client struct {
	http    *resty.Client
	staging bool
}

// New creates a sync client. Staging selects the *_staging tables so
// production data is never touched by rehearsal runs.
func New(baseURL, serviceKey string, staging bool) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	serviceKey = strings.TrimSpace(serviceKey)
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if serviceKey == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}

	http := resty.New().
		SetBaseURL(baseURL+"/rest/v1").
		SetRetryCount(3).
		SetRetryWaitTime(2*time.Second).
		SetHeader("apikey", serviceKey).
		SetHeader("Authorization", "Bearer "+serviceKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "return=minimal")

	return &Client{http: http, staging: staging}, nil
}

// EventsTable returns the events table for the client's environment.
func (c *Client) EventsTable() string {
	if c.staging {
		return "av_events_staging"
	}
	return "av_events"
}

// StatesTable returns the snapshot table for the client's environment.
func (c *Client) StatesTable() string {
	if c.staging {
		return "service_states_staging"
	}
	return "service_states"
}

// SyncEvents clears the events table and uploads the full log in batches.
func (c *Client) SyncEvents(ctx context.Context, events []event.Event) error {
	rows := make([]eventRow, 0, len(events))
	for _, evt := range events {
		row, err := newEventRow(evt)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return replaceTable(ctx, c, c.EventsTable(), rows)
}

// SyncStates clears the snapshot table and uploads projected states in
// batches.
func (c *Client) SyncStates(ctx context.Context, records []emit.StateRecord) error {
	return replaceTable(ctx, c, c.StatesTable(), records)
}

func replaceTable[T any](ctx context.Context, c *Client, table string, rows []T) error {
	if c == nil || c.http == nil {
		return fmt.Errorf("client is not configured")
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryString(clearFilter).
		Delete("/" + table)
	if err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if resp.IsError() {
		return fmt.Errorf("clear %s: status %d: %s", table, resp.StatusCode(), resp.String())
	}

	for start := 0; start < len(rows); start += syncBatchSize {
		end := start + syncBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(rows[start:end]).
			Post("/" + table)
		if err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		if resp.IsError() {
			return fmt.Errorf("insert into %s: status %d: %s", table, resp.StatusCode(), resp.String())
		}
	}
	return nil
}
