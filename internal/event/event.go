package event

import (
	"sort"
	"strings"
	"time"
)

// Kind identifies the kind of a service event.
type Kind string

// Lifecycle events.
const (
	// KindServiceTesting records a company testing a service in a location.
	KindServiceTesting Kind = "service_testing"
	// KindServiceAnnounced records a public announcement of an upcoming service.
	KindServiceAnnounced Kind = "service_announced"
	// KindServiceCreated records a service opening to riders.
	KindServiceCreated Kind = "service_created"
	// KindServiceEnded records a service shutting down.
	KindServiceEnded Kind = "service_ended"
)

// Single-attribute update events. Each kind changes exactly one logical
// attribute of a service; the dispatch table in the state package maps kinds
// to their target attribute.
const (
	// KindVehicleTypesUpdated records a change to the vehicle fleet.
	KindVehicleTypesUpdated Kind = "vehicle_types_updated"
	// KindPlatformUpdated records a change to the booking platforms.
	KindPlatformUpdated Kind = "platform_updated"
	// KindFaresPolicyChanged records a change to whether fares are charged.
	KindFaresPolicyChanged Kind = "fares_policy_changed"
	// KindDirectBookingUpdated records a change to direct booking availability.
	KindDirectBookingUpdated Kind = "direct_booking_updated"
	// KindServiceModelUpdated records a change to the service model.
	KindServiceModelUpdated Kind = "service_model_updated"
	// KindSupervisionUpdated records a change to the supervision level.
	KindSupervisionUpdated Kind = "supervision_updated"
	// KindAccessPolicyChanged records a change to the rider access policy.
	KindAccessPolicyChanged Kind = "access_policy_changed"
	// KindFleetPartnerChanged records a change to the fleet partner.
	KindFleetPartnerChanged Kind = "fleet_partner_changed"
	// KindGeometryUpdated records a change to the service area boundary.
	KindGeometryUpdated Kind = "geometry_updated"
)

// Event represents one immutable entry in the service event log.
type Event struct {
	// Company is the operator name as recorded upstream.
	Company string
	// Location is the city or region the service operates in.
	Location string
	// Date is the calendar date the change took effect. Time-of-day is not
	// meaningful; events on the same date order by Seq.
	Date time.Time
	// Kind identifies the kind of event.
	Kind Kind
	// Seq is the position of the event in the source log (starts at 1).
	// Assigned by storage on append.
	Seq uint64
	// SourceURL points at the announcement or report backing the event.
	SourceURL string
	// Notes holds free-form curator notes.
	Notes string
	// PayloadJSON holds kind-specific data as JSON.
	PayloadJSON []byte
}

// ServiceID derives the stable aggregate identifier for the event's service.
func (e Event) ServiceID() string {
	return ServiceID(e.Company, e.Location)
}

// ServiceID builds the aggregate identifier for a company operating in a
// location: both parts lowercased with runs of whitespace collapsed to
// single dashes.
func ServiceID(company, location string) string {
	return slug(company) + "-" + slug(location)
}

func slug(s string) string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(parts, "-")
}

// IsKnown reports whether the kind belongs to the closed event kind set.
func (k Kind) IsKnown() bool {
	switch k {
	case KindServiceTesting, KindServiceAnnounced, KindServiceCreated, KindServiceEnded,
		KindVehicleTypesUpdated, KindPlatformUpdated, KindFaresPolicyChanged,
		KindDirectBookingUpdated, KindServiceModelUpdated, KindSupervisionUpdated,
		KindAccessPolicyChanged, KindFleetPartnerChanged, KindGeometryUpdated:
		return true
	}
	return false
}

// IsLifecycleStart reports whether the kind may open a service's history.
func (k Kind) IsLifecycleStart() bool {
	switch k {
	case KindServiceTesting, KindServiceAnnounced, KindServiceCreated:
		return true
	}
	return false
}

// IsUpdate reports whether the kind changes a single service attribute.
func (k Kind) IsUpdate() bool {
	switch k {
	case KindVehicleTypesUpdated, KindPlatformUpdated, KindFaresPolicyChanged,
		KindDirectBookingUpdated, KindServiceModelUpdated, KindSupervisionUpdated,
		KindAccessPolicyChanged, KindFleetPartnerChanged, KindGeometryUpdated:
		return true
	}
	return false
}

// DateLayout is the calendar date format used across the event log.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in the log's YYYY-MM-DD format.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(value))
}

// SortChronological stably sorts events by date ascending. Events sharing a
// date keep their relative source order, which is load-bearing: same-day
// events for one service must apply in submission order.
func SortChronological(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
}
