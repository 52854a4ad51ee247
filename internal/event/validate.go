package event

import (
	"fmt"
	"strings"
)

// YesNo values accepted by boolean-like attributes.
const (
	ValueYes = "Yes"
	ValueNo  = "No"
)

// Validate checks that an event is well-formed enough to enter the log.
// Projection-time lifecycle ordering is not checked here; this guards the
// identity, kind, and payload shape contracts that storage enforces on
// append.
func Validate(e Event) error {
	if strings.TrimSpace(e.Company) == "" {
		return fmt.Errorf("company is required")
	}
	if strings.TrimSpace(e.Location) == "" {
		return fmt.Errorf("location is required")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if strings.TrimSpace(string(e.Kind)) == "" {
		return fmt.Errorf("event kind is required")
	}
	if !e.Kind.IsKnown() {
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}

	switch {
	case e.Kind == KindServiceCreated:
		payload, err := DecodeLaunch(e)
		if err != nil {
			return err
		}
		return validateCreated(payload)
	case e.Kind.IsLifecycleStart():
		_, err := DecodeLaunch(e)
		return err
	case e.Kind == KindServiceEnded:
		if len(e.PayloadJSON) > 0 {
			return fmt.Errorf("%s events carry no payload", KindServiceEnded)
		}
		return nil
	case e.Kind.IsUpdate():
		payload, err := DecodeUpdate(e)
		if err != nil {
			return err
		}
		if strings.TrimSpace(payload.Value) == "" {
			return fmt.Errorf("%s events require a value", e.Kind)
		}
		if e.Kind == KindFaresPolicyChanged || e.Kind == KindDirectBookingUpdated {
			return validateYesNo(string(e.Kind), payload.Value)
		}
		return nil
	}
	return nil
}

// validateCreated enforces the attribute set a service launch must declare.
// Platform is optional: some services launch without a booking platform.
func validateCreated(payload LaunchPayload) error {
	required := []struct {
		name  string
		value string
	}{
		{"vehicle_types", payload.Vehicles},
		{"fares", payload.Fares},
		{"direct_booking", payload.DirectBooking},
		{"service_model", payload.ServiceModel},
		{"supervision", payload.Supervision},
		{"access", payload.Access},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%s events require %s", KindServiceCreated, field.name)
		}
	}
	if err := validateYesNo("fares", payload.Fares); err != nil {
		return err
	}
	return validateYesNo("direct_booking", payload.DirectBooking)
}

func validateYesNo(field, value string) error {
	if value == ValueYes || value == ValueNo {
		return nil
	}
	return fmt.Errorf("%s must be %s or %s, got %q", field, ValueYes, ValueNo, value)
}
