package trace

import "sync"

// Sink is the minimal interface the generator depends on.
//
// Record must be inert: it must not panic and does not return errors.
// The caller must assume Record may be a no-op.
type Sink interface {
	Record(event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) {}

// SafeRecord records an event and guarantees inertness even if the sink is buggy.
// It intentionally swallows panics.
func SafeRecord(s Sink, event Event) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(event)
}

// Recorder is a concurrency-safe in-memory collector.
//
// Recording order is irrelevant: ordering is computed after collection.
// EventOutputCreated is deduplicated by output name.
type Recorder struct {
	mu      sync.Mutex
	events  []Event
	outputs map[string]struct{}
}

func NewRecorder() *Recorder { return &Recorder{outputs: make(map[string]struct{})} }

func (r *Recorder) Record(event Event) {
	if r == nil {
		return
	}
	defer func() {
		_ = recover()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	if event.Kind == EventOutputCreated {
		if _, seen := r.outputs[event.Output]; seen {
			return
		}
		if r.outputs == nil {
			r.outputs = make(map[string]struct{})
		}
		r.outputs[event.Output] = struct{}{}
	}
	r.events = append(r.events, event)
}

// Snapshot returns a point-in-time copy of all recorded events.
func (r *Recorder) Snapshot() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Trace builds a canonical BuildTrace from the recorded events.
func (r *Recorder) Trace(algorithm string, contentAddressed bool) BuildTrace {
	tr := BuildTrace{Algorithm: algorithm, ContentAddressed: contentAddressed}
	tr.Events = r.Snapshot()
	tr.Canonicalize()
	return tr
}
