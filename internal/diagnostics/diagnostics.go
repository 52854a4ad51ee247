// Package diagnostics accumulates structural errors and data-quality
// warnings raised while projecting the event log. Faults isolate to the
// offending event; the collector never halts a batch.
package diagnostics

import "time"

// Severity describes how serious a diagnostic is.
type Severity string

const (
	// SeverityError marks a structural fault that excluded an event.
	SeverityError Severity = "ERROR"
	// SeverityWarning marks an informational data-quality observation.
	SeverityWarning Severity = "WARNING"
)

// Codes for structural errors.
const (
	// CodeInvalidFirstEvent flags a service whose first event is not a
	// lifecycle start.
	CodeInvalidFirstEvent = "invalid_first_event"
	// CodeLifecycleOrder flags an event arriving in an invalid phase.
	CodeLifecycleOrder = "lifecycle_order"
	// CodeDuplicateOpenState flags a service with more than one open snapshot.
	CodeDuplicateOpenState = "duplicate_open_state"
	// CodeMissingIdentity flags an event without company, location, or date.
	CodeMissingIdentity = "missing_identity"
	// CodeInvalidPayload flags an event whose payload failed to decode.
	CodeInvalidPayload = "invalid_payload"
)

// Codes for warnings.
const (
	// CodeRedundantUpdate flags an update that repeats the current value.
	CodeRedundantUpdate = "redundant_update"
	// CodeUnknownKind flags an event kind outside the closed set.
	CodeUnknownKind = "unknown_kind"
	// CodeUpdateOutsideLifecycle flags an update arriving while the service
	// accepts none.
	CodeUpdateOutsideLifecycle = "update_outside_lifecycle"
	// CodeGeometryResolution flags a geometry reference that failed to resolve.
	CodeGeometryResolution = "geometry_resolution"
)

// Diagnostic captures one observation tied to a specific event.
type Diagnostic struct {
	Severity  Severity  `json:"severity"`
	Code      string    `json:"code"`
	ServiceID string    `json:"service_id,omitempty"`
	EventKind string    `json:"event_kind,omitempty"`
	EventDate time.Time `json:"event_date,omitempty"`
	Message   string    `json:"message"`
}

// Collector accumulates diagnostics in arrival order.
type Collector struct {
	diags []Diagnostic
}

// Error records a structural error.
func (c *Collector) Error(code, serviceID, kind string, date time.Time, message string) {
	c.append(Diagnostic{
		Severity:  SeverityError,
		Code:      code,
		ServiceID: serviceID,
		EventKind: kind,
		EventDate: date,
		Message:   message,
	})
}

// Warn records a data-quality warning.
func (c *Collector) Warn(code, serviceID, kind string, date time.Time, message string) {
	c.append(Diagnostic{
		Severity:  SeverityWarning,
		Code:      code,
		ServiceID: serviceID,
		EventKind: kind,
		EventDate: date,
		Message:   message,
	})
}

func (c *Collector) append(d Diagnostic) {
	if c == nil {
		return
	}
	c.diags = append(c.diags, d)
}

// Diagnostics returns the accumulated diagnostics in arrival order.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	return c.diags
}

// ErrorCount returns the number of structural errors recorded.
func (c *Collector) ErrorCount() int {
	return c.count(SeverityError)
}

// WarningCount returns the number of warnings recorded.
func (c *Collector) WarningCount() int {
	return c.count(SeverityWarning)
}

func (c *Collector) count(severity Severity) int {
	if c == nil {
		return 0
	}
	n := 0
	for _, d := range c.diags {
		if d.Severity == severity {
			n++
		}
	}
	return n
}
