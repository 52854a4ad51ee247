// Package state models materialized service snapshots and the attribute
// dispatch rules that map update events onto them.
package state

import (
	"strings"
	"time"

	"github.com/avmapdata/avmap/internal/event"
)

// Status describes the lifecycle phase of a service.
type Status string

const (
	// StatusNone is the zero phase before any lifecycle event.
	StatusNone Status = ""
	// StatusTesting indicates the service is testing without riders.
	StatusTesting Status = "testing"
	// StatusAnnounced indicates the service has been publicly announced.
	StatusAnnounced Status = "announced"
	// StatusActive indicates the service is carrying riders.
	StatusActive Status = "active"
	// StatusEnded indicates the service has shut down.
	StatusEnded Status = "ended"
)

// ServiceState is one materialized snapshot of a service, valid over
// [EffectiveDate, EndDate). A zero EndDate marks the snapshot as open.
type ServiceState struct {
	ServiceID     string
	Company       string
	Location      string
	Status        Status
	EffectiveDate time.Time
	EndDate       time.Time

	Vehicles       []string
	Platform       []string
	Fares          string
	DirectBooking  string
	ServiceModel   string
	Supervision    string
	Access         string
	FleetPartner   string
	GeometryRef    string
	ResolvedArea   *float64
	ExpectedLaunch string
	CompanyLink    string
	BookingLink    string
	SourceURL      string
	Notes          string
}

// ID returns the stable synthetic identifier for the snapshot.
func (s ServiceState) ID() string {
	return s.ServiceID + "@" + s.EffectiveDate.Format(event.DateLayout)
}

// Open reports whether the snapshot is currently in effect.
func (s ServiceState) Open() bool {
	return s.EndDate.IsZero()
}

// Clone returns a deep copy safe to mutate independently.
func (s ServiceState) Clone() ServiceState {
	out := s
	if s.Vehicles != nil {
		out.Vehicles = append([]string(nil), s.Vehicles...)
	}
	if s.Platform != nil {
		out.Platform = append([]string(nil), s.Platform...)
	}
	if s.ResolvedArea != nil {
		area := *s.ResolvedArea
		out.ResolvedArea = &area
	}
	return out
}

// Overlay applies the non-empty fields of a launch payload on top of the
// current attributes. Absent fields retain their prior values; multi-value
// fields are replaced wholesale.
func (s *ServiceState) Overlay(payload event.LaunchPayload) {
	if payload.Vehicles != "" {
		s.Vehicles = SplitMulti(payload.Vehicles)
	}
	if payload.Platform != "" {
		s.Platform = SplitMulti(payload.Platform)
	}
	if payload.Fares != "" {
		s.Fares = payload.Fares
	}
	if payload.DirectBooking != "" {
		s.DirectBooking = payload.DirectBooking
	}
	if payload.ServiceModel != "" {
		s.ServiceModel = payload.ServiceModel
	}
	if payload.Supervision != "" {
		s.Supervision = payload.Supervision
	}
	if payload.Access != "" {
		s.Access = payload.Access
	}
	if payload.FleetPartner != "" {
		s.FleetPartner = payload.FleetPartner
	}
	if payload.GeometryRef != "" {
		s.GeometryRef = payload.GeometryRef
	}
	if payload.ExpectedLaunch != "" {
		s.ExpectedLaunch = payload.ExpectedLaunch
	}
	if payload.CompanyLink != "" {
		s.CompanyLink = payload.CompanyLink
	}
	if payload.BookingLink != "" {
		s.BookingLink = payload.BookingLink
	}
}

// SplitMulti splits a semicolon-separated multi-value attribute into trimmed
// components. The result replaces the prior list; updates are complete new
// states, never element-wise merges.
func SplitMulti(value string) []string {
	parts := strings.Split(value, ";")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinMulti renders a multi-value attribute back into its canonical
// semicolon-separated form.
func JoinMulti(values []string) string {
	return strings.Join(values, ";")
}

// StatusForStart maps a lifecycle-start event kind to the status it assigns.
func StatusForStart(kind event.Kind) (Status, bool) {
	switch kind {
	case event.KindServiceTesting:
		return StatusTesting, true
	case event.KindServiceAnnounced:
		return StatusAnnounced, true
	case event.KindServiceCreated:
		return StatusActive, true
	}
	return StatusNone, false
}

var statusRank = map[Status]int{
	StatusNone:      0,
	StatusTesting:   1,
	StatusAnnounced: 2,
	StatusActive:    3,
	StatusEnded:     4,
}

// Later returns whichever of the two statuses is further along the
// lifecycle. Lifecycle status never moves backward.
func Later(a, b Status) Status {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

// AcceptsUpdates reports whether single-attribute updates are valid in the
// given lifecycle phase.
func (s Status) AcceptsUpdates() bool {
	switch s {
	case StatusTesting, StatusAnnounced, StatusActive:
		return true
	}
	return false
}
