// Package trace records what a generation pass published, in a canonical
// form whose bytes and hash do not depend on goroutine scheduling.
package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"cachebundle/internal/fsutil"
)

// BuildTrace is the canonical record of one generation pass.
//
// Invariants:
//   - Events carry logical facts only: no timestamps, no error strings.
//   - Canonicalize produces a total order, so two passes over the same
//     inputs encode to identical bytes regardless of parallelism.
//   - Whether a resource's write happened or was collapsed into an earlier
//     identical one depends on timing, so it is not recorded per resource.
//     Each distinct output gets one EventOutputCreated instead.
type BuildTrace struct {
	Algorithm        string
	ContentAddressed bool
	Events           []Event
}

// EventKind is the stable discriminator of an Event.
// The string values are part of the canonical bytes; do not rename.
type EventKind string

const (
	EventBundleGenerated   EventKind = "BundleGenerated"
	EventBundleSkipped     EventKind = "BundleSkipped"
	EventResourcePublished EventKind = "ResourcePublished"
	EventOutputCreated     EventKind = "OutputCreated"
)

// Event is a single logical fact of the pass.
type Event struct {
	Kind EventKind

	// Bundle is the bundle ID; empty for EventOutputCreated.
	Bundle string

	// Method is the accessor name for EventResourcePublished.
	Method string

	// Source is the resource's source path.
	Source string

	// Output is the published output name, or the generated file for bundle events.
	Output string
}

// Validate checks basic invariants and returns a descriptive error.
func (t *BuildTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.Algorithm == "" {
		return errors.New("algorithm is required")
	}
	for i, e := range t.Events {
		switch e.Kind {
		case EventBundleGenerated, EventBundleSkipped:
			if e.Bundle == "" {
				return fmt.Errorf("events[%d].bundle is required for kind %q", i, e.Kind)
			}
		case EventResourcePublished:
			if e.Bundle == "" || e.Method == "" || e.Output == "" {
				return fmt.Errorf("events[%d] needs bundle, method and output for kind %q", i, e.Kind)
			}
		case EventOutputCreated:
			if e.Output == "" {
				return fmt.Errorf("events[%d].output is required for kind %q", i, e.Kind)
			}
		case "":
			return fmt.Errorf("events[%d].kind is required", i)
		default:
			return fmt.Errorf("events[%d] has unknown kind %q", i, e.Kind)
		}
	}
	return nil
}

// Canonicalize sorts events by (kind order, bundle, method, output, source).
func (t *BuildTrace) Canonicalize() {
	if t == nil {
		return
	}
	sort.SliceStable(t.Events, func(i, j int) bool {
		a, b := t.Events[i], t.Events[j]
		if kindOrder(a.Kind) != kindOrder(b.Kind) {
			return kindOrder(a.Kind) < kindOrder(b.Kind)
		}
		if a.Bundle != b.Bundle {
			return a.Bundle < b.Bundle
		}
		if a.Method != b.Method {
			return a.Method < b.Method
		}
		if a.Output != b.Output {
			return a.Output < b.Output
		}
		return a.Source < b.Source
	})
}

func kindOrder(k EventKind) int {
	switch k {
	case EventOutputCreated:
		return 10
	case EventResourcePublished:
		return 20
	case EventBundleGenerated:
		return 30
	case EventBundleSkipped:
		return 40
	default:
		return 1000
	}
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
// It canonicalizes a copy to avoid mutating the caller's slice.
func (t BuildTrace) CanonicalJSON() ([]byte, error) {
	c := BuildTrace{Algorithm: t.Algorithm, ContentAddressed: t.ContentAddressed}
	c.Events = make([]Event, len(t.Events))
	copy(c.Events, t.Events)
	c.Canonicalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&c)
}

// Hash returns the deterministic trace hash of the canonical JSON bytes.
func (t BuildTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// WriteFile atomically replaces path with the canonical JSON encoding.
func (t BuildTrace) WriteFile(path string) error {
	b, err := t.CanonicalJSON()
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, bytes.NewReader(append(b, '\n')), 0o644); err != nil {
		return fmt.Errorf("writing trace: %w", err)
	}
	return nil
}

// MarshalJSON fixes field order.
func (t BuildTrace) MarshalJSON() ([]byte, error) {
	if t.Algorithm == "" {
		return nil, errors.New("algorithm is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"algorithm":`)
	ab, _ := json.Marshal(t.Algorithm)
	buf.Write(ab)
	buf.WriteString(`,"contentAddressed":`)
	if t.ContentAddressed {
		buf.WriteString("true")
	} else {
		buf.WriteString("false")
	}
	buf.WriteString(`,"events":[`)
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// MarshalJSON fixes field order and omits empty optional fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteString(`{"kind":`)
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	field := func(name, value string) {
		if value == "" {
			return
		}
		buf.WriteString(`,"` + name + `":`)
		vb, _ := json.Marshal(value)
		buf.Write(vb)
	}
	field("bundle", e.Bundle)
	field("method", e.Method)
	field("source", e.Source)
	field("output", e.Output)

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
