package extension

import (
	"github.com/sirupsen/logrus"

	"github.com/xform-labs/xform/internal/capability"
	"github.com/xform-labs/xform/internal/engine"
	"github.com/xform-labs/xform/internal/loader"
	"github.com/xform-labs/xform/internal/registrar"
	"github.com/xform-labs/xform/internal/scanner"
)

// Manager drives the plugin pipeline end to end.
//
// Discovery is funneled through a capability registry that populates at most
// once per registry lifetime; for the process-wide registry that means the
// directories passed to the first Load call decide what is available for the
// rest of the process. Registration, by contrast, happens on every call, into
// a fresh engine handle.
type Manager struct {
	log      *logrus.Logger
	registry *capability.Registry

	// EngineImpl selects the engine implementation. Empty means native.
	EngineImpl string

	// HostVersion, when set, is matched against archive manifests that
	// declare a minimum host version.
	HostVersion string
}

// Result is the outcome of one Load call. The Engine handle is always
// usable; everything that went wrong on the way is in the Report.
type Result struct {
	// Engine is the configured engine handle.
	Engine engine.Handle

	// Declarations are the xmlns declarations collected from the registered
	// extension functions, first seen first, deduplicated by exact
	// (prefix, URI) pair.
	Declarations []registrar.Declaration

	// Report carries every per-archive and per-symbol diagnostic from
	// scanning, loading, instantiation and registration.
	Report capability.Report

	// Populated reports whether this call performed the registry scan.
	Populated bool
}

// NewManager creates a manager bound to the process-wide capability registry.
func NewManager(log *logrus.Logger) *Manager {
	return NewManagerWith(log, capability.Shared())
}

// NewManagerWith creates a manager bound to an explicit registry. Tests use
// this to get populate-once semantics per test instead of per process.
func NewManagerWith(log *logrus.Logger, reg *capability.Registry) *Manager {
	if log == nil {
		log = logrus.New()
	}
	return &Manager{log: log, registry: reg}
}

// Load scans the given directories for plugin archives (first call only),
// then builds an engine handle and registers every discovered extension
// function into it. Load never fails: missing directories, unreadable
// archives, malformed entries and broken constructors are all logged,
// recorded in the result's report, and skipped.
func (m *Manager) Load(dirs []string) *Result {
	populated := m.registry.Populate(func() ([]capability.Implementation, capability.Report) {
		return m.discover(dirs)
	})
	if !populated && len(dirs) > 0 {
		m.log.Debugf("Plugin registry already populated; ignoring directories %v", dirs)
	}

	handle := engine.New(m.EngineImpl)
	res := &Result{Engine: handle, Populated: populated}
	res.Report.Merge(m.registry.ScanReport())

	ext, ok := handle.(engine.Extensible)
	if !ok {
		m.log.Warnf("Engine is not extensible, skipping extension registration: %s", handle)
		return res
	}

	reg := registrar.New(m.log)
	decls, report := reg.Apply(ext.Configuration(), m.registry.Implementations())
	res.Declarations = decls
	res.Report.Merge(report)
	return res
}

// discover walks the directories for archives and loads each one.
func (m *Manager) discover(dirs []string) ([]capability.Implementation, capability.Report) {
	var impls []capability.Implementation
	var report capability.Report

	archives := scanner.New(dirs, m.log).Scan()

	ld := loader.New(m.log)
	ld.HostVersion = m.HostVersion
	for _, archive := range archives {
		found, diags := ld.LoadArchive(archive)
		impls = append(impls, found...)
		report.Merge(diags)
	}

	m.log.Infof("Discovered %d extension constructor(s) in %d archive(s)", len(impls), len(archives))
	return impls, report
}
