package supabase

import (
	"fmt"

	"github.com/avmapdata/avmap/internal/event"
)

// eventRow is the wire shape of one event in the hosted database.
type eventRow struct {
	AggregateID   string         `json:"aggregate_id"`
	AggregateType string         `json:"aggregate_type"`
	EventDate     string         `json:"event_date"`
	EventType     string         `json:"event_type"`
	EventData     map[string]any `json:"event_data"`
}

// updateDataKeys maps update kinds to the new_* key carrying the changed
// value, matching the upstream import convention. geometry_updated stores
// the reference under geometry_name directly.
var updateDataKeys = map[event.Kind]string{
	event.KindVehicleTypesUpdated:  "new_vehicle_types",
	event.KindPlatformUpdated:      "new_platform",
	event.KindFaresPolicyChanged:   "new_fares",
	event.KindDirectBookingUpdated: "new_direct_booking",
	event.KindServiceModelUpdated:  "new_service_model",
	event.KindSupervisionUpdated:   "new_supervision",
	event.KindAccessPolicyChanged:  "new_access",
	event.KindFleetPartnerChanged:  "new_fleet_partner",
}

func newEventRow(evt event.Event) (eventRow, error) {
	data := map[string]any{
		"name":    evt.Location,
		"company": evt.Company,
	}
	setIfPresent(data, "event_url", evt.SourceURL)
	setIfPresent(data, "notes", evt.Notes)

	switch {
	case evt.Kind.IsLifecycleStart():
		payload, err := event.DecodeLaunch(evt)
		if err != nil {
			return eventRow{}, fmt.Errorf("event %s: %w", evt.ServiceID(), err)
		}
		setIfPresent(data, "vehicle_types", payload.Vehicles)
		setIfPresent(data, "platform", payload.Platform)
		setIfPresent(data, "fares", payload.Fares)
		setIfPresent(data, "direct_booking", payload.DirectBooking)
		setIfPresent(data, "service_model", payload.ServiceModel)
		setIfPresent(data, "supervision", payload.Supervision)
		setIfPresent(data, "access", payload.Access)
		setIfPresent(data, "fleet_partner", payload.FleetPartner)
		setIfPresent(data, "geometry_name", trimGeoJSONExt(payload.GeometryRef))
		setIfPresent(data, "expected_launch", payload.ExpectedLaunch)
		setIfPresent(data, "company_link", payload.CompanyLink)
		setIfPresent(data, "booking_platform_link", payload.BookingLink)
	case evt.Kind == event.KindGeometryUpdated:
		payload, err := event.DecodeUpdate(evt)
		if err != nil {
			return eventRow{}, fmt.Errorf("event %s: %w", evt.ServiceID(), err)
		}
		setIfPresent(data, "geometry_name", trimGeoJSONExt(payload.Value))
	case evt.Kind.IsUpdate():
		payload, err := event.DecodeUpdate(evt)
		if err != nil {
			return eventRow{}, fmt.Errorf("event %s: %w", evt.ServiceID(), err)
		}
		setIfPresent(data, updateDataKeys[evt.Kind], payload.Value)
	}

	return eventRow{
		AggregateID:   evt.ServiceID(),
		AggregateType: "service_area",
		EventDate:     evt.Date.Format(event.DateLayout),
		EventType:     string(evt.Kind),
		EventData:     data,
	}, nil
}

func setIfPresent(data map[string]any, key, value string) {
	if key == "" || value == "" {
		return
	}
	data[key] = value
}

// trimGeoJSONExt strips the .geojson extension: the database stores bare
// geometry names, inline coordinate literals pass through unchanged.
func trimGeoJSONExt(ref string) string {
	const ext = ".geojson"
	if len(ref) > len(ext) && ref[len(ref)-len(ext):] == ext {
		return ref[:len(ref)-len(ext)]
	}
	return ref
}
