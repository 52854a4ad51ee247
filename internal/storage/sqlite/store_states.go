package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avmapdata/avmap/internal/event"
	"github.com/avmapdata/avmap/internal/state"
)

// ReplaceStates atomically swaps the stored snapshot set for the results of
// a new projection pass.
func (s *Store) ReplaceStates(ctx context.Context, states []state.ServiceState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_states`); err != nil {
		return fmt.Errorf("clear service states: %w", err)
	}

	for position, snapshot := range states {
		endDate := ""
		if !snapshot.EndDate.IsZero() {
			endDate = snapshot.EndDate.Format(event.DateLayout)
		}
		var area sql.NullFloat64
		if snapshot.ResolvedArea != nil {
			area = sql.NullFloat64{Float64: *snapshot.ResolvedArea, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO service_states (
	id,
	position,
	service_id,
	company,
	location,
	status,
	effective_date,
	end_date,
	vehicle_types,
	platform,
	fares,
	direct_booking,
	service_model,
	supervision,
	access,
	fleet_partner,
	geometry_name,
	area_square_miles,
	expected_launch,
	company_link,
	booking_platform_link,
	source_url,
	notes
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			snapshot.ID(),
			position,
			snapshot.ServiceID,
			snapshot.Company,
			snapshot.Location,
			string(snapshot.Status),
			snapshot.EffectiveDate.Format(event.DateLayout),
			endDate,
			state.JoinMulti(snapshot.Vehicles),
			state.JoinMulti(snapshot.Platform),
			snapshot.Fares,
			snapshot.DirectBooking,
			snapshot.ServiceModel,
			snapshot.Supervision,
			snapshot.Access,
			snapshot.FleetPartner,
			snapshot.GeometryRef,
			area,
			snapshot.ExpectedLaunch,
			snapshot.CompanyLink,
			snapshot.BookingLink,
			snapshot.SourceURL,
			snapshot.Notes,
		); err != nil {
			return fmt.Errorf("insert service state %s: %w", snapshot.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit service states: %w", err)
	}
	return nil
}

// ListStates returns stored snapshots in emission order.
func (s *Store) ListStates(ctx context.Context) ([]state.ServiceState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	service_id,
	company,
	location,
	status,
	effective_date,
	end_date,
	vehicle_types,
	platform,
	fares,
	direct_booking,
	service_model,
	supervision,
	access,
	fleet_partner,
	geometry_name,
	area_square_miles,
	expected_launch,
	company_link,
	booking_platform_link,
	source_url,
	notes
FROM service_states
ORDER BY position ASC
`)
	if err != nil {
		return nil, fmt.Errorf("list service states: %w", err)
	}
	defer rows.Close()

	var states []state.ServiceState
	for rows.Next() {
		var (
			snapshot      state.ServiceState
			status        string
			effectiveDate string
			endDate       string
			vehicles      string
			platform      string
			area          sql.NullFloat64
		)
		if err := rows.Scan(
			&snapshot.ServiceID,
			&snapshot.Company,
			&snapshot.Location,
			&status,
			&effectiveDate,
			&endDate,
			&vehicles,
			&platform,
			&snapshot.Fares,
			&snapshot.DirectBooking,
			&snapshot.ServiceModel,
			&snapshot.Supervision,
			&snapshot.Access,
			&snapshot.FleetPartner,
			&snapshot.GeometryRef,
			&area,
			&snapshot.ExpectedLaunch,
			&snapshot.CompanyLink,
			&snapshot.BookingLink,
			&snapshot.SourceURL,
			&snapshot.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan service state: %w", err)
		}
		snapshot.Status = state.Status(status)
		snapshot.EffectiveDate, err = event.ParseDate(effectiveDate)
		if err != nil {
			return nil, fmt.Errorf("parse effective date %q: %w", effectiveDate, err)
		}
		if endDate != "" {
			parsed, err := event.ParseDate(endDate)
			if err != nil {
				return nil, fmt.Errorf("parse end date %q: %w", endDate, err)
			}
			snapshot.EndDate = parsed
		}
		if vehicles != "" {
			snapshot.Vehicles = state.SplitMulti(vehicles)
		}
		if platform != "" {
			snapshot.Platform = state.SplitMulti(platform)
		}
		if area.Valid {
			value := area.Float64
			snapshot.ResolvedArea = &value
		}
		states = append(states, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service states: %w", err)
	}
	return states, nil
}
