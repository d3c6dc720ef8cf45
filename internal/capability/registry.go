package capability

import (
	"sync"

	"github.com/xform-labs/xform/spi"
)

// State is the lifecycle state of a Registry.
type State int

const (
	// Empty means no scan has started yet.
	Empty State = iota
	// Populating means one caller is currently performing the scan.
	Populating
	// Populated means the scan finished; contents are immutable from here on.
	Populated
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Populating:
		return "populating"
	case Populated:
		return "populated"
	default:
		return "unknown"
	}
}

// Implementation is a discovered, uninstantiated extension function: the
// constructor symbol found in an archive, plus where it came from.
type Implementation struct {
	// Symbol is the candidate name derived from the archive entry path and
	// the exported constructor name, e.g. "ext.upper.NewUpperCase".
	Symbol string

	// Archive is the canonical path of the archive the symbol was loaded from.
	Archive string

	// Construct invokes the no-argument constructor. It must not be nil for
	// a well-formed implementation; the registrar re-checks at call time.
	Construct spi.Constructor
}

// PopulateFunc performs the actual scan and load. It runs at most once per
// registry lifetime.
type PopulateFunc func() ([]Implementation, Report)

// Registry is the deduplicated collection of discovered implementations.
//
// One registry is shared process-wide (see Shared); independent instances are
// constructed in tests. Whichever caller first observes the Empty state runs
// the populate function; every concurrent caller blocks on the condition
// variable until the state reaches Populated. There is no transition back to
// Empty within the registry's lifetime, so directory arguments supplied after
// the first successful scan are ignored.
type Registry struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state State

	impls  []Implementation
	report Report
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.cond = sync.NewCond(&r.mu)
	return r
}

var shared = NewRegistry()

// Shared returns the process-wide registry.
func Shared() *Registry {
	return shared
}

// Populate runs fn exactly once across all callers of this registry. The
// first caller executes fn; concurrent callers block until it completes;
// later callers return immediately. Returns true if this call performed the
// population.
func (r *Registry) Populate(fn PopulateFunc) bool {
	r.mu.Lock()
	for r.state == Populating {
		r.cond.Wait()
	}
	if r.state == Populated {
		r.mu.Unlock()
		return false
	}
	r.state = Populating
	r.mu.Unlock()

	// The scan runs outside the lock; Populating acts as an exclusive claim,
	// so no other goroutine can reach this section.
	impls, report := fn()

	r.mu.Lock()
	r.impls = impls
	r.report = report
	r.state = Populated
	r.cond.Broadcast()
	r.mu.Unlock()
	return true
}

// State returns the current lifecycle state.
func (r *Registry) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Implementations returns a copy of the discovered implementations, in
// discovery order. Empty until the registry is populated.
func (r *Registry) Implementations() []Implementation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Implementation, len(r.impls))
	copy(out, r.impls)
	return out
}

// ScanReport returns the diagnostics accumulated during population.
func (r *Registry) ScanReport() Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := Report{Diagnostics: make([]Diagnostic, len(r.report.Diagnostics))}
	copy(out.Diagnostics, r.report.Diagnostics)
	return out
}
