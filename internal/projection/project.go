// Package projection folds the service event log into materialized state
// snapshots. The pass is a deterministic, single-threaded batch transform;
// the one I/O-bound dependency, geometry resolution, is prefetched with
// bounded concurrency before the synchronous state machine runs.
package projection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avmapdata/avmap/internal/diagnostics"
	"github.com/avmapdata/avmap/internal/event"
	"github.com/avmapdata/avmap/internal/geometry"
	"github.com/avmapdata/avmap/internal/state"
)

// Options configures a projection pass.
type Options struct {
	// GeometryPrefetchLimit bounds concurrent geometry resolutions.
	// Zero selects the resolver package default.
	GeometryPrefetchLimit int
}

// Result carries the full outcome of one projection pass: the emitted state
// sequence, the sorted pass-through event log, and all diagnostics. Callers
// decide whether diagnostics block downstream publication.
type Result struct {
	// States holds the emitted snapshots in emission order.
	States []state.ServiceState
	// Events is the chronologically sorted input log, including events that
	// produced no state change.
	Events []event.Event
	// Diagnostics holds structural errors and warnings in arrival order.
	Diagnostics []diagnostics.Diagnostic
	// ServiceCount is the number of services with at least one emitted state.
	ServiceCount int
	// ResolutionFailures is the number of geometry references that failed to
	// resolve.
	ResolutionFailures int
}

// Project replays the event log into state snapshots. It never aborts the
// batch for a single bad event: structural faults exclude the offending
// event and processing continues. The only error returns are context
// cancellation and resolver wiring faults.
func Project(ctx context.Context, events []event.Event, resolver geometry.Resolver, opts Options) (Result, error) {
	if resolver == nil {
		return Result{}, fmt.Errorf("geometry resolver is required")
	}

	sorted := append([]event.Event(nil), events...)
	event.SortChronological(sorted)

	areas, err := geometry.Prefetch(ctx, resolver, geometryRefs(sorted), opts.GeometryPrefetchLimit)
	if err != nil {
		return Result{}, fmt.Errorf("prefetch geometry: %w", err)
	}

	r := &run{
		byService: make(map[string][]int),
		phase:     make(map[string]state.Status),
		diags:     &diagnostics.Collector{},
		areas:     areas,
	}

	for _, evt := range sorted {
		r.apply(evt)
	}

	return Result{
		States:             r.states,
		Events:             sorted,
		Diagnostics:        r.diags.Diagnostics(),
		ServiceCount:       len(r.byService),
		ResolutionFailures: areas.FailureCount(),
	}, nil
}

// run owns all mutable projection state for a single pass. Nothing lives at
// package level, so passes are re-entrant and safe to fan out per service.
type run struct {
	states    []state.ServiceState
	byService map[string][]int
	phase     map[string]state.Status
	diags     *diagnostics.Collector
	areas     *geometry.ResultSet
}

func (r *run) apply(evt event.Event) {
	svcID := evt.ServiceID()
	if strings.TrimSpace(evt.Company) == "" || strings.TrimSpace(evt.Location) == "" || evt.Date.IsZero() {
		r.diags.Error(diagnostics.CodeMissingIdentity, svcID, string(evt.Kind), evt.Date,
			"event is missing company, location, or date")
		return
	}
	if !evt.Kind.IsKnown() {
		r.diags.Warn(diagnostics.CodeUnknownKind, svcID, string(evt.Kind), evt.Date,
			fmt.Sprintf("unknown event kind %q produces no state change", evt.Kind))
		return
	}

	phase := r.phase[svcID]
	if phase == state.StatusNone && !evt.Kind.IsLifecycleStart() {
		r.diags.Error(diagnostics.CodeInvalidFirstEvent, svcID, string(evt.Kind), evt.Date,
			fmt.Sprintf("first event for a service must start its lifecycle, got %q", evt.Kind))
		return
	}

	switch {
	case evt.Kind == event.KindServiceTesting || evt.Kind == event.KindServiceAnnounced:
		r.applyPreLaunch(evt, svcID, phase)
	case evt.Kind == event.KindServiceCreated:
		r.applyCreated(evt, svcID, phase)
	case evt.Kind == event.KindServiceEnded:
		r.applyEnded(evt, svcID, phase)
	default:
		r.applyUpdate(evt, svcID, phase)
	}
}

// applyPreLaunch handles service_testing and service_announced, which are
// valid only before the service goes active.
func (r *run) applyPreLaunch(evt event.Event, svcID string, phase state.Status) {
	if phase == state.StatusActive || phase == state.StatusEnded {
		r.diags.Error(diagnostics.CodeLifecycleOrder, svcID, string(evt.Kind), evt.Date,
			fmt.Sprintf("%s is not valid once a service has been active", evt.Kind))
		return
	}
	payload, err := event.DecodeLaunch(evt)
	if err != nil {
		r.diags.Error(diagnostics.CodeInvalidPayload, svcID, string(evt.Kind), evt.Date, err.Error())
		return
	}
	status, _ := state.StatusForStart(evt.Kind)
	// Status only moves forward; a testing event after an announcement
	// overlays its attributes but keeps the later phase.
	status = state.Later(phase, status)
	if !r.applyChange(evt, svcID, func(s *state.ServiceState) {
		s.Status = status
		s.Overlay(payload)
		r.resolveArea(s, payload.GeometryRef, evt)
	}) {
		return
	}
	r.phase[svcID] = status
}

// applyCreated moves a service to active from any non-active phase,
// inheriting all previously known attributes under the event's payload.
func (r *run) applyCreated(evt event.Event, svcID string, phase state.Status) {
	if phase == state.StatusActive {
		r.diags.Error(diagnostics.CodeLifecycleOrder, svcID, string(evt.Kind), evt.Date,
			"service is already active")
		return
	}
	payload, err := event.DecodeLaunch(evt)
	if err != nil {
		r.diags.Error(diagnostics.CodeInvalidPayload, svcID, string(evt.Kind), evt.Date, err.Error())
		return
	}
	if !r.applyChange(evt, svcID, func(s *state.ServiceState) {
		s.Status = state.StatusActive
		s.Overlay(payload)
		r.resolveArea(s, payload.GeometryRef, evt)
	}) {
		return
	}
	r.phase[svcID] = state.StatusActive
}

// applyEnded closes the open state without emitting a new one.
func (r *run) applyEnded(evt event.Event, svcID string, phase state.Status) {
	if phase != state.StatusActive {
		r.diags.Error(diagnostics.CodeLifecycleOrder, svcID, string(evt.Kind), evt.Date,
			fmt.Sprintf("service_ended is only valid from active, lifecycle is %q", phase))
		return
	}
	idx, found := r.openIndex(evt, svcID)
	if !found {
		r.diags.Error(diagnostics.CodeLifecycleOrder, svcID, string(evt.Kind), evt.Date,
			"no open state to close")
		return
	}
	if idx < 0 {
		return
	}
	r.states[idx].EndDate = evt.Date
	r.phase[svcID] = state.StatusEnded
}

// applyUpdate routes a single-attribute update through the dispatch table.
func (r *run) applyUpdate(evt event.Event, svcID string, phase state.Status) {
	if !phase.AcceptsUpdates() {
		r.diags.Warn(diagnostics.CodeUpdateOutsideLifecycle, svcID, string(evt.Kind), evt.Date,
			fmt.Sprintf("%s ignored while lifecycle is %q", evt.Kind, phase))
		return
	}
	rule, ok := state.RuleFor(evt.Kind)
	if !ok {
		r.diags.Warn(diagnostics.CodeUnknownKind, svcID, string(evt.Kind), evt.Date,
			fmt.Sprintf("no attribute rule for event kind %q", evt.Kind))
		return
	}
	payload, err := event.DecodeUpdate(evt)
	if err != nil {
		r.diags.Error(diagnostics.CodeInvalidPayload, svcID, string(evt.Kind), evt.Date, err.Error())
		return
	}
	value := strings.TrimSpace(payload.Value)

	r.applyChange(evt, svcID, func(s *state.ServiceState) {
		// Redundant values are applied, not rejected, but flagged: they
		// usually indicate an authoring mistake rather than a real change.
		canonical := state.JoinMulti(state.SplitMulti(value))
		if rule.Current(s) == canonical {
			r.diags.Warn(diagnostics.CodeRedundantUpdate, svcID, string(evt.Kind), evt.Date,
				fmt.Sprintf("%s already has value %q", rule.Attribute, value))
		}
		rule.Apply(s, value)
		if evt.Kind == event.KindGeometryUpdated {
			r.resolveArea(s, value, evt)
		}
	})
}

// applyChange materializes one effective change with same-day coalescing:
// an open state sharing the event's date is mutated in place, otherwise the
// open state is closed and a clone with the change overlaid becomes the new
// open state. Returns false when the single-open-state invariant is violated.
func (r *run) applyChange(evt event.Event, svcID string, mutate func(*state.ServiceState)) bool {
	idx, found := r.openIndex(evt, svcID)
	if idx < 0 && found {
		return false
	}

	if !found {
		var next state.ServiceState
		if indexes := r.byService[svcID]; len(indexes) > 0 {
			last := &r.states[indexes[len(indexes)-1]]
			// A resume on the day the service closed coalesces into that
			// window; a second state sharing the effective date would
			// collide on the synthetic identifier.
			if last.EffectiveDate.Equal(evt.Date) {
				last.EndDate = time.Time{}
				applyEnvelope(last, evt)
				mutate(last)
				return true
			}
			// Resuming after a gap inherits all previously known attributes
			// from the latest closed state.
			next = last.Clone()
			next.EffectiveDate = evt.Date
			next.EndDate = time.Time{}
		} else {
			next = state.ServiceState{
				ServiceID:     svcID,
				Company:       evt.Company,
				Location:      evt.Location,
				EffectiveDate: evt.Date,
			}
		}
		applyEnvelope(&next, evt)
		mutate(&next)
		r.append(svcID, next)
		return true
	}

	open := &r.states[idx]
	if open.EffectiveDate.Equal(evt.Date) {
		applyEnvelope(open, evt)
		mutate(open)
		return true
	}

	next := open.Clone()
	open.EndDate = evt.Date
	next.EffectiveDate = evt.Date
	next.EndDate = time.Time{}
	applyEnvelope(&next, evt)
	mutate(&next)
	r.append(svcID, next)
	return true
}

func (r *run) append(svcID string, s state.ServiceState) {
	r.states = append(r.states, s)
	r.byService[svcID] = append(r.byService[svcID], len(r.states)-1)
}

// openIndex returns the index of the service's open state, scanning from the
// most recent backwards so services with historical gaps resume from the
// latest timeline, not the first hole. More than one open state violates the
// single-open-state invariant and is reported as a structural error; the
// caller receives (-1, true) and must skip the event.
func (r *run) openIndex(evt event.Event, svcID string) (int, bool) {
	indexes := r.byService[svcID]
	last := -1
	open := 0
	for i := len(indexes) - 1; i >= 0; i-- {
		if r.states[indexes[i]].Open() {
			open++
			if last < 0 {
				last = indexes[i]
			}
		}
	}
	if open > 1 {
		r.diags.Error(diagnostics.CodeDuplicateOpenState, svcID, string(evt.Kind), evt.Date,
			fmt.Sprintf("%d open states for service", open))
		return -1, true
	}
	if last < 0 {
		return -1, false
	}
	return last, true
}

// applyEnvelope overlays the per-event source metadata every event carries.
func applyEnvelope(s *state.ServiceState, evt event.Event) {
	if strings.TrimSpace(evt.SourceURL) != "" {
		s.SourceURL = strings.TrimSpace(evt.SourceURL)
	}
	if strings.TrimSpace(evt.Notes) != "" {
		s.Notes = strings.TrimSpace(evt.Notes)
	}
}

// resolveArea stores the prefetched area for a geometry reference, degrading
// to a nil area with a warning when resolution failed.
func (r *run) resolveArea(s *state.ServiceState, ref string, evt event.Event) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return
	}
	if res, ok := r.areas.Resolution(ref); ok {
		area := res.AreaSquareMiles
		s.ResolvedArea = &area
		return
	}
	s.ResolvedArea = nil
	if err, ok := r.areas.Failure(ref); ok {
		r.diags.Warn(diagnostics.CodeGeometryResolution, s.ServiceID, string(evt.Kind), evt.Date,
			fmt.Sprintf("geometry %q did not resolve: %v", ref, err))
	}
}

// geometryRefs collects every geometry reference in the log so resolution can
// be prefetched once per distinct value.
func geometryRefs(events []event.Event) []string {
	var refs []string
	for _, evt := range events {
		switch {
		case evt.Kind.IsLifecycleStart():
			payload, err := event.DecodeLaunch(evt)
			if err != nil {
				continue
			}
			if ref := strings.TrimSpace(payload.GeometryRef); ref != "" {
				refs = append(refs, ref)
			}
		case evt.Kind == event.KindGeometryUpdated:
			payload, err := event.DecodeUpdate(evt)
			if err != nil {
				continue
			}
			if ref := strings.TrimSpace(payload.Value); ref != "" {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}
