package event

import (
	"encoding/json"
	"fmt"
)

// LaunchPayload captures the payload for lifecycle-start events
// (service_testing, service_announced, service_created). All fields are
// optional for testing and announcement events; service_created events are
// expected to carry the full attribute set.
type LaunchPayload struct {
	Vehicles       string `json:"vehicle_types,omitempty"`
	Platform       string `json:"platform,omitempty"`
	Fares          string `json:"fares,omitempty"`
	DirectBooking  string `json:"direct_booking,omitempty"`
	ServiceModel   string `json:"service_model,omitempty"`
	Supervision    string `json:"supervision,omitempty"`
	Access         string `json:"access,omitempty"`
	FleetPartner   string `json:"fleet_partner,omitempty"`
	GeometryRef    string `json:"geometry_name,omitempty"`
	ExpectedLaunch string `json:"expected_launch,omitempty"`
	CompanyLink    string `json:"company_link,omitempty"`
	BookingLink    string `json:"booking_platform_link,omitempty"`
}

// UpdatePayload captures the payload for single-attribute update events. The
// event kind determines which attribute the value targets.
type UpdatePayload struct {
	Value string `json:"value"`
}

// EncodeLaunch marshals a launch payload for storage on an event.
func EncodeLaunch(payload LaunchPayload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode launch payload: %w", err)
	}
	return data, nil
}

// EncodeUpdate marshals an update payload for storage on an event.
func EncodeUpdate(payload UpdatePayload) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode update payload: %w", err)
	}
	return data, nil
}

// DecodeLaunch unmarshals the launch payload carried by a lifecycle-start
// event. A nil payload decodes to the zero value.
func DecodeLaunch(e Event) (LaunchPayload, error) {
	var payload LaunchPayload
	if len(e.PayloadJSON) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(e.PayloadJSON, &payload); err != nil {
		return LaunchPayload{}, fmt.Errorf("decode launch payload: %w", err)
	}
	return payload, nil
}

// DecodeUpdate unmarshals the update payload carried by a single-attribute
// update event.
func DecodeUpdate(e Event) (UpdatePayload, error) {
	var payload UpdatePayload
	if len(e.PayloadJSON) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(e.PayloadJSON, &payload); err != nil {
		return UpdatePayload{}, fmt.Errorf("decode update payload: %w", err)
	}
	return payload, nil
}
