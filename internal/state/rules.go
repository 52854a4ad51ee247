package state

import (
	"github.com/avmapdata/avmap/internal/event"
)

// FieldRule binds an update event kind to the single attribute it writes.
// Keeping the binding in one table means a new update kind cannot ship
// without declaring its target attribute; the registry test enforces parity
// with the event kind set.
type FieldRule struct {
	// Attribute is the human-readable attribute name used in diagnostics.
	Attribute string
	// Current reads the attribute's canonical string form for redundancy checks.
	Current func(*ServiceState) string
	// Apply writes the new value onto the snapshot.
	Apply func(*ServiceState, string)
}

// updateRules is the kind → attribute dispatch table for single-attribute
// update events. geometry_updated is handled here for the reference string
// only; area resolution happens in the projection engine.
var updateRules = map[event.Kind]FieldRule{
	event.KindVehicleTypesUpdated: {
		Attribute: "vehicles",
		Current:   func(s *ServiceState) string { return JoinMulti(s.Vehicles) },
		Apply:     func(s *ServiceState, v string) { s.Vehicles = SplitMulti(v) },
	},
	event.KindPlatformUpdated: {
		Attribute: "platform",
		Current:   func(s *ServiceState) string { return JoinMulti(s.Platform) },
		Apply:     func(s *ServiceState, v string) { s.Platform = SplitMulti(v) },
	},
	event.KindFaresPolicyChanged: {
		Attribute: "fares",
		Current:   func(s *ServiceState) string { return s.Fares },
		Apply:     func(s *ServiceState, v string) { s.Fares = v },
	},
	event.KindDirectBookingUpdated: {
		Attribute: "directBooking",
		Current:   func(s *ServiceState) string { return s.DirectBooking },
		Apply:     func(s *ServiceState, v string) { s.DirectBooking = v },
	},
	event.KindServiceModelUpdated: {
		Attribute: "serviceModel",
		Current:   func(s *ServiceState) string { return s.ServiceModel },
		Apply:     func(s *ServiceState, v string) { s.ServiceModel = v },
	},
	event.KindSupervisionUpdated: {
		Attribute: "supervision",
		Current:   func(s *ServiceState) string { return s.Supervision },
		Apply:     func(s *ServiceState, v string) { s.Supervision = v },
	},
	event.KindAccessPolicyChanged: {
		Attribute: "access",
		Current:   func(s *ServiceState) string { return s.Access },
		Apply:     func(s *ServiceState, v string) { s.Access = v },
	},
	event.KindFleetPartnerChanged: {
		Attribute: "fleetPartner",
		Current:   func(s *ServiceState) string { return s.FleetPartner },
		Apply:     func(s *ServiceState, v string) { s.FleetPartner = v },
	},
	event.KindGeometryUpdated: {
		Attribute: "geometryRef",
		Current:   func(s *ServiceState) string { return s.GeometryRef },
		Apply:     func(s *ServiceState, v string) { s.GeometryRef = v },
	},
}

// RuleFor returns the field rule for an update event kind.
func RuleFor(kind event.Kind) (FieldRule, bool) {
	rule, ok := updateRules[kind]
	return rule, ok
}

// UpdateKinds returns the event kinds covered by the dispatch table.
func UpdateKinds() []event.Kind {
	kinds := make([]event.Kind, 0, len(updateRules))
	for kind := range updateRules {
		kinds = append(kinds, kind)
	}
	return kinds
}
