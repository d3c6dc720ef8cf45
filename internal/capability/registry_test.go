package capability

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/xform-labs/xform/spi"
)

func fakeImpl(symbol string) Implementation {
	return Implementation{
		Symbol:  symbol,
		Archive: "/plugins/fake.xfp",
		Construct: func() spi.ExtensionFunction {
			return nil
		},
	}
}

func TestRegistry_StartsEmpty(t *testing.T) {
	r := NewRegistry()
	if got := r.State(); got != Empty {
		t.Errorf("State = %v, want %v", got, Empty)
	}
	if got := r.Implementations(); len(got) != 0 {
		t.Errorf("Implementations len = %d, want 0", len(got))
	}
}

func TestRegistry_PopulateRunsOnce(t *testing.T) {
	r := NewRegistry()
	calls := 0

	first := r.Populate(func() ([]Implementation, Report) {
		calls++
		return []Implementation{fakeImpl("ext.upper.NewUpper")}, Report{}
	})
	if !first {
		t.Fatal("first Populate returned false, want true")
	}
	if got := r.State(); got != Populated {
		t.Fatalf("State after populate = %v, want %v", got, Populated)
	}

	second := r.Populate(func() ([]Implementation, Report) {
		calls++
		return []Implementation{fakeImpl("ext.other.NewOther")}, Report{}
	})
	if second {
		t.Error("second Populate returned true, want false")
	}
	if calls != 1 {
		t.Errorf("populate function ran %d times, want 1", calls)
	}

	impls := r.Implementations()
	if len(impls) != 1 || impls[0].Symbol != "ext.upper.NewUpper" {
		t.Errorf("Implementations = %+v, want the first scan's contents", impls)
	}
}

func TestRegistry_ConcurrentPopulate(t *testing.T) {
	r := NewRegistry()
	var runs atomic.Int32
	var winners atomic.Int32

	const goroutines = 16
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won := r.Populate(func() ([]Implementation, Report) {
				runs.Add(1)
				return []Implementation{fakeImpl("ext.a.New"), fakeImpl("ext.b.New")}, Report{}
			})
			if won {
				winners.Add(1)
			}
			// Every caller, winner or not, must observe the populated state
			// and the full contents once Populate returns.
			if got := r.State(); got != Populated {
				t.Errorf("State after Populate = %v, want %v", got, Populated)
			}
			if got := len(r.Implementations()); got != 2 {
				t.Errorf("Implementations len = %d, want 2", got)
			}
		}()
	}
	wg.Wait()

	if got := runs.Load(); got != 1 {
		t.Errorf("populate function ran %d times, want 1", got)
	}
	if got := winners.Load(); got != 1 {
		t.Errorf("%d callers reported performing the population, want 1", got)
	}
}

func TestRegistry_ImplementationsReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Populate(func() ([]Implementation, Report) {
		return []Implementation{fakeImpl("ext.a.New")}, Report{}
	})

	impls := r.Implementations()
	impls[0].Symbol = "mutated"

	if got := r.Implementations()[0].Symbol; got != "ext.a.New" {
		t.Errorf("Symbol after caller mutation = %q, want %q", got, "ext.a.New")
	}
}

func TestRegistry_ScanReport(t *testing.T) {
	r := NewRegistry()
	var report Report
	report.Add(Diagnostic{Kind: KindIO, Archive: "/plugins/broken.xfp", Err: errors.New("short read")})
	report.Add(Diagnostic{Kind: KindTypeNotFound, Archive: "/plugins/odd.xfp", Subject: "main.go", Err: errors.New("no package clause")})

	r.Populate(func() ([]Implementation, Report) {
		return nil, report
	})

	got := r.ScanReport()
	if len(got.Diagnostics) != 2 {
		t.Fatalf("ScanReport diagnostics len = %d, want 2", len(got.Diagnostics))
	}
	if got.CountKind(KindIO) != 1 {
		t.Errorf("CountKind(KindIO) = %d, want 1", got.CountKind(KindIO))
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Empty, "empty"},
		{Populating, "populating"},
		{Populated, "populated"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
