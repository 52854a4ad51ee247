package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/avmapdata/avmap/internal/diagnostics"
	"github.com/avmapdata/avmap/internal/event"
	"github.com/avmapdata/avmap/internal/geometry"
	"github.com/avmapdata/avmap/internal/state"
)

// stubResolver resolves every reference to a fixed area unless the reference
// is listed as failing.
type stubResolver struct {
	area    float64
	failing map[string]bool
}

func (r stubResolver) Resolve(_ context.Context, ref string) (geometry.Resolution, error) {
	if r.failing[ref] {
		return geometry.Resolution{}, errors.New("boundary file missing")
	}
	return geometry.Resolution{Kind: geometry.KindPolygon, AreaSquareMiles: r.area}, nil
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := event.ParseDate(value)
	if err != nil {
		t.Fatalf("parse date %s: %v", value, err)
	}
	return d
}

func launchEvent(t *testing.T, kind event.Kind, day string, payload event.LaunchPayload) event.Event {
	t.Helper()
	data, err := event.EncodeLaunch(payload)
	if err != nil {
		t.Fatalf("encode launch payload: %v", err)
	}
	return event.Event{
		Company:     "Acme",
		Location:    "Springfield",
		Date:        date(t, day),
		Kind:        kind,
		PayloadJSON: data,
	}
}

func updateEvent(t *testing.T, kind event.Kind, day, value string) event.Event {
	t.Helper()
	data, err := event.EncodeUpdate(event.UpdatePayload{Value: value})
	if err != nil {
		t.Fatalf("encode update payload: %v", err)
	}
	return event.Event{
		Company:     "Acme",
		Location:    "Springfield",
		Date:        date(t, day),
		Kind:        kind,
		PayloadJSON: data,
	}
}

func endedEvent(t *testing.T, day string) event.Event {
	t.Helper()
	return event.Event{
		Company:  "Acme",
		Location: "Springfield",
		Date:     date(t, day),
		Kind:     event.KindServiceEnded,
	}
}

func project(t *testing.T, events []event.Event) Result {
	t.Helper()
	result, err := Project(context.Background(), events, stubResolver{area: 50}, Options{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	return result
}

func hasDiagnostic(result Result, severity diagnostics.Severity, code string) bool {
	for _, d := range result.Diagnostics {
		if d.Severity == severity && d.Code == code {
			return true
		}
	}
	return false
}

func TestProjectFullLifecycle(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceTesting, "2024-01-01", event.LaunchPayload{Platform: "TestApp"}),
		launchEvent(t, event.KindServiceCreated, "2024-03-01", event.LaunchPayload{
			Vehicles: "ModelX", Fares: event.ValueNo, Access: "Waitlist",
		}),
		updateEvent(t, event.KindAccessPolicyChanged, "2024-03-01", "Public"),
		updateEvent(t, event.KindFaresPolicyChanged, "2024-06-01", event.ValueYes),
		endedEvent(t, "2025-01-01"),
	}

	result := project(t, events)

	if len(result.Diagnostics) != 0 {
		t.Fatalf("diagnostics = %v, want none", result.Diagnostics)
	}
	if len(result.States) != 3 {
		t.Fatalf("states = %d, want 3", len(result.States))
	}
	if result.ServiceCount != 1 {
		t.Fatalf("service count = %d, want 1", result.ServiceCount)
	}

	testingState := result.States[0]
	if testingState.Status != state.StatusTesting {
		t.Fatalf("states[0].status = %q, want testing", testingState.Status)
	}
	if !testingState.EffectiveDate.Equal(date(t, "2024-01-01")) || !testingState.EndDate.Equal(date(t, "2024-03-01")) {
		t.Fatalf("states[0] window = %v..%v", testingState.EffectiveDate, testingState.EndDate)
	}
	if !reflect.DeepEqual(testingState.Platform, []string{"TestApp"}) {
		t.Fatalf("states[0].platform = %v", testingState.Platform)
	}

	// The same-day access change coalesces into the launch state.
	active := result.States[1]
	if active.Status != state.StatusActive {
		t.Fatalf("states[1].status = %q, want active", active.Status)
	}
	if !active.EffectiveDate.Equal(date(t, "2024-03-01")) || !active.EndDate.Equal(date(t, "2024-06-01")) {
		t.Fatalf("states[1] window = %v..%v", active.EffectiveDate, active.EndDate)
	}
	if active.Access != "Public" {
		t.Fatalf("states[1].access = %q, want coalesced Public", active.Access)
	}
	if active.Fares != event.ValueNo {
		t.Fatalf("states[1].fares = %q, want No", active.Fares)
	}
	if !reflect.DeepEqual(active.Vehicles, []string{"ModelX"}) {
		t.Fatalf("states[1].vehicles = %v", active.Vehicles)
	}
	if !reflect.DeepEqual(active.Platform, []string{"TestApp"}) {
		t.Fatalf("states[1].platform = %v, want inherited TestApp", active.Platform)
	}

	final := result.States[2]
	if final.Fares != event.ValueYes {
		t.Fatalf("states[2].fares = %q, want Yes", final.Fares)
	}
	if final.Access != "Public" || !reflect.DeepEqual(final.Vehicles, []string{"ModelX"}) {
		t.Fatalf("states[2] lost inherited attributes: %+v", final)
	}
	if !final.EndDate.Equal(date(t, "2025-01-01")) {
		t.Fatalf("states[2].end_date = %v, want closed by service_ended", final.EndDate)
	}
	for _, s := range result.States {
		if s.Open() {
			t.Fatalf("state %s still open after service_ended", s.ID())
		}
	}
}

func TestProjectSortsUnorderedInput(t *testing.T) {
	events := []event.Event{
		updateEvent(t, event.KindFaresPolicyChanged, "2024-06-01", event.ValueYes),
		launchEvent(t, event.KindServiceCreated, "2024-03-01", event.LaunchPayload{
			Vehicles: "ModelX", Fares: event.ValueNo,
		}),
	}

	result := project(t, events)

	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	if result.Events[0].Kind != event.KindServiceCreated {
		t.Fatalf("events[0] = %q, want sorted service_created first", result.Events[0].Kind)
	}
	if result.States[1].Fares != event.ValueYes {
		t.Fatalf("states[1].fares = %q", result.States[1].Fares)
	}
}

func TestProjectSingleFieldDelta(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-03-01", event.LaunchPayload{
			Vehicles: "ModelX", Platform: "App A;App B", Fares: event.ValueNo,
		}),
		updateEvent(t, event.KindVehicleTypesUpdated, "2024-05-01", "ModelX;ModelY"),
	}

	result := project(t, events)

	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	next := result.States[1]
	if !reflect.DeepEqual(next.Vehicles, []string{"ModelX", "ModelY"}) {
		t.Fatalf("vehicles = %v, want replaced list", next.Vehicles)
	}
	if !reflect.DeepEqual(next.Platform, []string{"App A", "App B"}) {
		t.Fatalf("platform = %v, want untouched", next.Platform)
	}
	if next.Fares != event.ValueNo {
		t.Fatalf("fares = %q, want untouched", next.Fares)
	}
	if !result.States[0].EndDate.Equal(date(t, "2024-05-01")) {
		t.Fatalf("prior state end = %v, want closed at the update date", result.States[0].EndDate)
	}
}

func TestProjectInvalidFirstEvent(t *testing.T) {
	events := []event.Event{
		updateEvent(t, event.KindFaresPolicyChanged, "2024-01-01", event.ValueYes),
	}

	result := project(t, events)

	if len(result.States) != 0 {
		t.Fatalf("states = %d, want none", len(result.States))
	}
	if !hasDiagnostic(result, diagnostics.SeverityError, diagnostics.CodeInvalidFirstEvent) {
		t.Fatalf("diagnostics = %v, want invalid_first_event error", result.Diagnostics)
	}
}

func TestProjectTestingAfterActiveIsStructural(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{Vehicles: "ModelX"}),
		launchEvent(t, event.KindServiceTesting, "2024-02-01", event.LaunchPayload{}),
	}

	result := project(t, events)

	if !hasDiagnostic(result, diagnostics.SeverityError, diagnostics.CodeLifecycleOrder) {
		t.Fatalf("diagnostics = %v, want lifecycle_order error", result.Diagnostics)
	}
	if len(result.States) != 1 {
		t.Fatalf("states = %d, want the invalid event excluded", len(result.States))
	}
	if result.States[0].Status != state.StatusActive {
		t.Fatalf("status = %q, want active untouched", result.States[0].Status)
	}
}

func TestProjectEndedFromNonActive(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceAnnounced, "2024-01-01", event.LaunchPayload{}),
		endedEvent(t, "2024-02-01"),
	}

	result := project(t, events)

	if !hasDiagnostic(result, diagnostics.SeverityError, diagnostics.CodeLifecycleOrder) {
		t.Fatalf("diagnostics = %v, want lifecycle_order error", result.Diagnostics)
	}
	if !result.States[0].Open() {
		t.Fatal("announced state should remain open")
	}
}

func TestProjectUpdateAfterEndedWarns(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{Vehicles: "ModelX"}),
		endedEvent(t, "2024-06-01"),
		updateEvent(t, event.KindVehicleTypesUpdated, "2024-07-01", "ModelY"),
	}

	result := project(t, events)

	if !hasDiagnostic(result, diagnostics.SeverityWarning, diagnostics.CodeUpdateOutsideLifecycle) {
		t.Fatalf("diagnostics = %v, want update_outside_lifecycle warning", result.Diagnostics)
	}
	if len(result.States) != 1 {
		t.Fatalf("states = %d, want 1", len(result.States))
	}
	if !reflect.DeepEqual(result.States[0].Vehicles, []string{"ModelX"}) {
		t.Fatalf("vehicles = %v, want update ignored", result.States[0].Vehicles)
	}
}

func TestProjectRedundantUpdateAppliedWithWarning(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{
			Vehicles: "ModelX", Fares: event.ValueNo,
		}),
		updateEvent(t, event.KindFaresPolicyChanged, "2024-03-01", event.ValueNo),
	}

	result := project(t, events)

	if !hasDiagnostic(result, diagnostics.SeverityWarning, diagnostics.CodeRedundantUpdate) {
		t.Fatalf("diagnostics = %v, want redundant_update warning", result.Diagnostics)
	}
	// Redundant updates still produce a state transition.
	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	if result.States[1].Fares != event.ValueNo {
		t.Fatalf("fares = %q", result.States[1].Fares)
	}
}

func TestProjectUnknownKindPassesThrough(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{Vehicles: "ModelX"}),
		{
			Company:  "Acme",
			Location: "Springfield",
			Date:     date(t, "2024-02-01"),
			Kind:     "service_paused",
		},
	}

	result := project(t, events)

	if !hasDiagnostic(result, diagnostics.SeverityWarning, diagnostics.CodeUnknownKind) {
		t.Fatalf("diagnostics = %v, want unknown_kind warning", result.Diagnostics)
	}
	if len(result.States) != 1 {
		t.Fatalf("states = %d, want unknown kind to produce no change", len(result.States))
	}
	if len(result.Events) != 2 {
		t.Fatalf("events = %d, want unknown kind preserved in the log", len(result.Events))
	}
}

func TestProjectCreatedInheritsFromPriorPhase(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceAnnounced, "2024-01-01", event.LaunchPayload{
			Platform: "TestApp", ExpectedLaunch: "2024 H2",
		}),
		launchEvent(t, event.KindServiceCreated, "2024-04-01", event.LaunchPayload{
			Vehicles: "ModelX", Fares: event.ValueYes,
		}),
	}

	result := project(t, events)

	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	active := result.States[1]
	if !reflect.DeepEqual(active.Platform, []string{"TestApp"}) {
		t.Fatalf("platform = %v, want inherited from announcement", active.Platform)
	}
	if active.ExpectedLaunch != "2024 H2" {
		t.Fatalf("expected_launch = %q, want inherited", active.ExpectedLaunch)
	}
	if active.Status != state.StatusActive {
		t.Fatalf("status = %q", active.Status)
	}
}

func TestProjectResumeAfterGapInherits(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{
			Vehicles: "ModelX", Fares: event.ValueYes, Supervision: "Autonomous",
		}),
		endedEvent(t, "2024-06-01"),
		launchEvent(t, event.KindServiceCreated, "2025-01-01", event.LaunchPayload{
			Vehicles: "ModelY",
		}),
	}

	result := project(t, events)

	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	resumed := result.States[1]
	if !resumed.Open() {
		t.Fatal("resumed state should be open")
	}
	if !resumed.EffectiveDate.Equal(date(t, "2025-01-01")) {
		t.Fatalf("resumed effective = %v", resumed.EffectiveDate)
	}
	if !reflect.DeepEqual(resumed.Vehicles, []string{"ModelY"}) {
		t.Fatalf("vehicles = %v, want payload override", resumed.Vehicles)
	}
	if resumed.Fares != event.ValueYes || resumed.Supervision != "Autonomous" {
		t.Fatalf("resumed state lost inherited attributes: %+v", resumed)
	}
	if !result.States[0].EndDate.Equal(date(t, "2024-06-01")) {
		t.Fatalf("first window end = %v, want original shutdown date kept", result.States[0].EndDate)
	}
}

func TestProjectGeometryResolution(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{
			Vehicles: "ModelX", GeometryRef: "springfield.geojson",
		}),
		updateEvent(t, event.KindGeometryUpdated, "2024-04-01", "springfield-v2.geojson"),
	}

	result, err := Project(context.Background(), events, stubResolver{area: 75.5}, Options{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	for i, s := range result.States {
		if s.ResolvedArea == nil || *s.ResolvedArea != 75.5 {
			t.Fatalf("states[%d].area = %v, want 75.5", i, s.ResolvedArea)
		}
	}
	if result.States[1].GeometryRef != "springfield-v2.geojson" {
		t.Fatalf("geometry ref = %q", result.States[1].GeometryRef)
	}
}

func TestProjectGeometryFailureDegrades(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{
			Vehicles: "ModelX", GeometryRef: "missing.geojson",
		}),
	}

	resolver := stubResolver{area: 10, failing: map[string]bool{"missing.geojson": true}}
	result, err := Project(context.Background(), events, resolver, Options{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}

	if len(result.States) != 1 {
		t.Fatalf("states = %d, want state emitted despite failure", len(result.States))
	}
	if result.States[0].ResolvedArea != nil {
		t.Fatalf("area = %v, want nil", *result.States[0].ResolvedArea)
	}
	if !hasDiagnostic(result, diagnostics.SeverityWarning, diagnostics.CodeGeometryResolution) {
		t.Fatalf("diagnostics = %v, want geometry_resolution warning", result.Diagnostics)
	}
	if result.ResolutionFailures != 1 {
		t.Fatalf("resolution failures = %d, want 1", result.ResolutionFailures)
	}
}

func TestProjectMissingIdentityIsolated(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{Vehicles: "ModelX"}),
		{Company: "", Location: "Nowhere", Date: date(t, "2024-02-01"), Kind: event.KindServiceTesting},
	}

	result := project(t, events)

	if !hasDiagnostic(result, diagnostics.SeverityError, diagnostics.CodeMissingIdentity) {
		t.Fatalf("diagnostics = %v, want missing_identity error", result.Diagnostics)
	}
	if len(result.States) != 1 {
		t.Fatalf("states = %d, want the valid event projected", len(result.States))
	}
}

func TestProjectMultipleServicesIndependent(t *testing.T) {
	other := launchEvent(t, event.KindServiceCreated, "2024-02-01", event.LaunchPayload{Vehicles: "Pod"})
	other.Company = "Borealis"
	other.Location = "Shelbyville"

	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{Vehicles: "ModelX"}),
		other,
		endedEvent(t, "2024-06-01"),
	}

	result := project(t, events)

	if result.ServiceCount != 2 {
		t.Fatalf("service count = %d, want 2", result.ServiceCount)
	}
	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	for _, s := range result.States {
		if s.ServiceID == "borealis-shelbyville" && !s.Open() {
			t.Fatal("shelbyville state closed by another service's shutdown")
		}
		if s.ServiceID == "acme-springfield" && s.Open() {
			t.Fatal("springfield state not closed")
		}
	}
}

func TestProjectIsDeterministic(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceTesting, "2024-01-01", event.LaunchPayload{Platform: "TestApp"}),
		launchEvent(t, event.KindServiceCreated, "2024-03-01", event.LaunchPayload{
			Vehicles: "ModelX", Fares: event.ValueNo, GeometryRef: "springfield.geojson",
		}),
		updateEvent(t, event.KindFaresPolicyChanged, "2024-06-01", event.ValueYes),
		endedEvent(t, "2025-01-01"),
	}

	first := project(t, events)
	second := project(t, events)

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal first: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal second: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("results differ:\n%s\n%s", a, b)
	}
}

func TestProjectRequiresResolver(t *testing.T) {
	if _, err := Project(context.Background(), nil, nil, Options{}); err == nil {
		t.Fatal("expected error for nil resolver")
	}
}

func TestProjectDoesNotMutateInput(t *testing.T) {
	events := []event.Event{
		updateEvent(t, event.KindFaresPolicyChanged, "2024-06-01", event.ValueYes),
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{Vehicles: "ModelX"}),
	}
	project(t, events)

	if events[0].Kind != event.KindFaresPolicyChanged {
		t.Fatal("input slice was reordered")
	}
}

func TestProjectManySameDayEventsCoalesce(t *testing.T) {
	var events []event.Event
	events = append(events, launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{
		Vehicles: "ModelX", Fares: event.ValueNo,
	}))
	for i, kind := range []event.Kind{
		event.KindFaresPolicyChanged,
		event.KindSupervisionUpdated,
		event.KindAccessPolicyChanged,
	} {
		value := fmt.Sprintf("v%d", i)
		if kind == event.KindFaresPolicyChanged {
			value = event.ValueYes
		}
		events = append(events, updateEvent(t, kind, "2024-01-01", value))
	}

	result := project(t, events)

	if len(result.States) != 1 {
		t.Fatalf("states = %d, want one coalesced state", len(result.States))
	}
	s := result.States[0]
	if s.Fares != event.ValueYes || s.Supervision != "v1" || s.Access != "v2" {
		t.Fatalf("coalesced state = %+v", s)
	}
}

func TestProjectSameDayRestartReusesWindow(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{
			Vehicles: "ModelX", Fares: event.ValueNo,
		}),
		endedEvent(t, "2024-01-01"),
		launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{
			Fares: event.ValueYes,
		}),
	}

	result := project(t, events)

	if len(result.States) != 1 {
		t.Fatalf("states = %d, want 1", len(result.States))
	}
	seen := map[string]bool{}
	for _, s := range result.States {
		if seen[s.ID()] {
			t.Fatalf("id %q emitted more than once", s.ID())
		}
		seen[s.ID()] = true
	}
	s := result.States[0]
	if !s.Open() {
		t.Fatalf("end date = %v, want open state", s.EndDate)
	}
	if s.Status != state.StatusActive {
		t.Fatalf("status = %q, want %q", s.Status, state.StatusActive)
	}
	if s.Fares != event.ValueYes {
		t.Fatalf("fares = %q, want %q", s.Fares, event.ValueYes)
	}
	if got := state.JoinMulti(s.Vehicles); got != "ModelX" {
		t.Fatalf("vehicles = %q, want inherited %q", got, "ModelX")
	}
}

func TestRunSkipsEventWhenTwoStatesAreOpen(t *testing.T) {
	r := &run{
		byService: map[string][]int{},
		phase:     map[string]state.Status{},
		diags:     &diagnostics.Collector{},
		areas:     &geometry.ResultSet{},
	}
	first := launchEvent(t, event.KindServiceCreated, "2024-01-01", event.LaunchPayload{})
	svcID := first.ServiceID()
	r.append(svcID, state.ServiceState{
		ServiceID: svcID, Company: "Acme", Location: "Springfield",
		Status: state.StatusActive, EffectiveDate: date(t, "2024-01-01"),
	})
	r.append(svcID, state.ServiceState{
		ServiceID: svcID, Company: "Acme", Location: "Springfield",
		Status: state.StatusActive, EffectiveDate: date(t, "2024-02-01"),
	})
	r.phase[svcID] = state.StatusActive

	r.apply(updateEvent(t, event.KindFaresPolicyChanged, "2024-03-01", event.ValueYes))

	var found bool
	for _, d := range r.diags.Diagnostics() {
		if d.Severity == diagnostics.SeverityError && d.Code == diagnostics.CodeDuplicateOpenState {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a duplicate-open-state error")
	}
	if len(r.states) != 2 {
		t.Fatalf("states = %d, want event skipped", len(r.states))
	}
	for _, s := range r.states {
		if s.Fares != "" {
			t.Fatalf("fares = %q, want update discarded", s.Fares)
		}
	}
}

func TestProjectTestingAfterAnnouncedKeepsLaterPhase(t *testing.T) {
	events := []event.Event{
		launchEvent(t, event.KindServiceAnnounced, "2024-01-01", event.LaunchPayload{
			ExpectedLaunch: "2024 H2",
		}),
		launchEvent(t, event.KindServiceTesting, "2024-02-01", event.LaunchPayload{
			Vehicles: "ModelX",
		}),
	}

	result := project(t, events)

	if hasDiagnostic(result, diagnostics.SeverityError, diagnostics.CodeLifecycleOrder) {
		t.Fatalf("diagnostics = %v, want no lifecycle error", result.Diagnostics)
	}
	if len(result.States) != 2 {
		t.Fatalf("states = %d, want 2", len(result.States))
	}
	last := result.States[len(result.States)-1]
	if last.Status != state.StatusAnnounced {
		t.Fatalf("status = %q, want %q retained", last.Status, state.StatusAnnounced)
	}
	if got := state.JoinMulti(last.Vehicles); got != "ModelX" {
		t.Fatalf("vehicles = %q, want %q overlaid", got, "ModelX")
	}
}
