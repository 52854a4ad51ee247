// Package emit assembles projection results into the output document shape.
// Assembly is a pure function of the projection result plus the injected
// generation stamp; it performs no further business logic.
package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/avmapdata/avmap/internal/diagnostics"
	"github.com/avmapdata/avmap/internal/event"
	"github.com/avmapdata/avmap/internal/projection"
	"github.com/avmapdata/avmap/internal/state"
)

// StateRecord is the serialized form of one service state snapshot.
type StateRecord struct {
	ID            string   `json:"id"`
	ServiceID     string   `json:"service_id"`
	Company       string   `json:"company"`
	Location      string   `json:"location"`
	Status        string   `json:"status"`
	EffectiveDate string   `json:"effective_date"`
	EndDate       string   `json:"end_date,omitempty"`
	Vehicles      []string `json:"vehicle_types,omitempty"`
	Platform      []string `json:"platform,omitempty"`
	Fares         string   `json:"fares,omitempty"`
	DirectBooking string   `json:"direct_booking,omitempty"`
	ServiceModel  string   `json:"service_model,omitempty"`
	Supervision   string   `json:"supervision,omitempty"`
	Access        string   `json:"access,omitempty"`
	FleetPartner  string   `json:"fleet_partner,omitempty"`
	GeometryRef   string   `json:"geometry_name,omitempty"`
	ResolvedArea  *float64 `json:"area_square_miles,omitempty"`
	Expected      string   `json:"expected_launch,omitempty"`
	CompanyLink   string   `json:"company_link,omitempty"`
	BookingLink   string   `json:"booking_platform_link,omitempty"`
	SourceURL     string   `json:"source_url,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

// Counts summarizes one projection pass for the metadata envelope.
type Counts struct {
	Events             int `json:"events"`
	States             int `json:"states"`
	Services           int `json:"services"`
	StructuralErrors   int `json:"structural_errors"`
	Warnings           int `json:"warnings"`
	ResolutionFailures int `json:"resolution_failures"`
}

// Document is the full output of one projection run.
type Document struct {
	GeneratedAt time.Time                `json:"generated_at"`
	RunID       string                   `json:"run_id"`
	Counts      Counts                   `json:"counts"`
	States      []StateRecord            `json:"states"`
	Diagnostics []diagnostics.Diagnostic `json:"diagnostics,omitempty"`
}

// Build assembles the output document. The generation stamp and run id are
// injected so identical projection results produce identical documents.
func Build(result projection.Result, generatedAt time.Time, runID string) Document {
	records := make([]StateRecord, 0, len(result.States))
	for _, s := range result.States {
		records = append(records, Record(s))
	}

	errorCount := 0
	warningCount := 0
	for _, d := range result.Diagnostics {
		switch d.Severity {
		case diagnostics.SeverityError:
			errorCount++
		case diagnostics.SeverityWarning:
			warningCount++
		}
	}

	return Document{
		GeneratedAt: generatedAt.UTC(),
		RunID:       runID,
		Counts: Counts{
			Events:             len(result.Events),
			States:             len(result.States),
			Services:           result.ServiceCount,
			StructuralErrors:   errorCount,
			Warnings:           warningCount,
			ResolutionFailures: result.ResolutionFailures,
		},
		States:      records,
		Diagnostics: result.Diagnostics,
	}
}

// Record serializes a single snapshot with its synthetic identifier.
func Record(s state.ServiceState) StateRecord {
	record := StateRecord{
		ID:            s.ID(),
		ServiceID:     s.ServiceID,
		Company:       s.Company,
		Location:      s.Location,
		Status:        string(s.Status),
		EffectiveDate: s.EffectiveDate.Format(event.DateLayout),
		Vehicles:      s.Vehicles,
		Platform:      s.Platform,
		Fares:         s.Fares,
		DirectBooking: s.DirectBooking,
		ServiceModel:  s.ServiceModel,
		Supervision:   s.Supervision,
		Access:        s.Access,
		FleetPartner:  s.FleetPartner,
		GeometryRef:   s.GeometryRef,
		ResolvedArea:  s.ResolvedArea,
		Expected:      s.ExpectedLaunch,
		CompanyLink:   s.CompanyLink,
		BookingLink:   s.BookingLink,
		SourceURL:     s.SourceURL,
		Notes:         s.Notes,
	}
	if !s.EndDate.IsZero() {
		record.EndDate = s.EndDate.Format(event.DateLayout)
	}
	return record
}

// WriteJSON renders the document as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode output document: %w", err)
	}
	return nil
}
