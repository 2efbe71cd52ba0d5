package publish

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// claim records who created an output name first.
type claim struct {
	Source string
	Digest string
}

// OutputNamespace is the per-build set of already created output names.
//
// Check-then-create is a single atomic region per name: concurrent callers
// for the same name share one create call, and a name is only recorded once
// its create succeeded.
type OutputNamespace struct {
	mu     sync.Mutex
	names  map[string]claim
	flight singleflight.Group
}

// NewOutputNamespace creates an empty namespace. Create one per build.
func NewOutputNamespace() *OutputNamespace {
	return &OutputNamespace{names: make(map[string]claim)}
}

// Contains reports whether name was already created.
func (ns *OutputNamespace) Contains(name string) bool {
	_, ok := ns.lookup(name)
	return ok
}

// Len returns the number of created names.
func (ns *OutputNamespace) Len() int {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return len(ns.names)
}

// Names returns all created names, sorted.
func (ns *OutputNamespace) Names() []string {
	ns.mu.Lock()
	out := make([]string, 0, len(ns.names))
	for n := range ns.names {
		out = append(out, n)
	}
	ns.mu.Unlock()
	sort.Strings(out)
	return out
}

func (ns *OutputNamespace) lookup(name string) (claim, bool) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	c, ok := ns.names[name]
	return c, ok
}

func (ns *OutputNamespace) record(name string, c claim) {
	ns.mu.Lock()
	ns.names[name] = c
	ns.mu.Unlock()
}

// createOnce runs create unless name already exists. It returns the claim
// that owns the name and whether this caller's create ran.
func (ns *OutputNamespace) createOnce(name string, mine claim, create func() error) (owner claim, created bool, err error) {
	v, err, _ := ns.flight.Do(name, func() (any, error) {
		if existing, ok := ns.lookup(name); ok {
			return existing, nil
		}
		if err := create(); err != nil {
			return nil, err
		}
		created = true
		ns.record(name, mine)
		return mine, nil
	})
	if err != nil {
		return claim{}, false, err
	}
	return v.(claim), created, nil
}
