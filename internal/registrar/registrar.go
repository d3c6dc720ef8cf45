// Package registrar instantiates discovered extension implementations and
// registers them into the engine configuration. Registration is best-effort
// per implementation: one plugin failing to construct or register never
// blocks the rest.
package registrar

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/xform-labs/xform/internal/capability"
	"github.com/xform-labs/xform/internal/engine"
	"github.com/xform-labs/xform/spi"
)

// Declaration is a (prefix, URI) namespace declaration derived from a
// registered extension's self-declared qualified name.
type Declaration struct {
	Prefix string
	URI    string
}

// String renders the declaration the way it appears in a stylesheet header,
// e.g. xmlns:ex="http://example.org/ext".
func (d Declaration) String() string {
	return fmt.Sprintf("xmlns:%s=%q", d.Prefix, d.URI)
}

// Registrar registers extension implementations with an engine configuration.
type Registrar struct {
	log *logrus.Logger
}

// New creates a registrar.
func New(log *logrus.Logger) *Registrar {
	if log == nil {
		log = logrus.New()
	}
	return &Registrar{log: log}
}

// Apply constructs each implementation with its no-argument constructor,
// registers the instance into the configuration, and collects the namespace
// declarations. Declarations are deduplicated by exact (prefix, URI) pair,
// insertion order preserved, first seen wins. Per-item failures land in the
// report and the loop continues.
func (r *Registrar) Apply(cfg *engine.Configuration, impls []capability.Implementation) ([]Declaration, capability.Report) {
	var decls []Declaration
	var report capability.Report
	seen := make(map[Declaration]bool)

	for _, impl := range impls {
		if impl.Construct == nil {
			r.log.Errorf("Cannot find an empty constructor for %s in %s", impl.Symbol, impl.Archive)
			report.Add(capability.Diagnostic{
				Kind:    capability.KindMissingConstructor,
				Archive: impl.Archive,
				Subject: impl.Symbol,
				Err:     fmt.Errorf("constructor missing for %s", impl.Symbol),
			})
			continue
		}

		instance, err := construct(impl)
		if err == nil && instance == nil {
			err = fmt.Errorf("constructor %s returned nil", impl.Symbol)
		}
		if err != nil {
			r.log.Errorf("Failed to instantiate %s from %s: %v", impl.Symbol, impl.Archive, err)
			report.Add(capability.Diagnostic{
				Kind:    capability.KindCannotInstantiate,
				Archive: impl.Archive,
				Subject: impl.Symbol,
				Err:     err,
			})
			continue
		}

		if err := cfg.RegisterExtension(instance); err != nil {
			r.log.Errorf("Failed to register %s from %s: %v", impl.Symbol, impl.Archive, err)
			report.Add(capability.Diagnostic{
				Kind:    capability.KindRegistration,
				Archive: impl.Archive,
				Subject: impl.Symbol,
				Err:     err,
			})
			continue
		}

		qn := instance.QualifiedName()
		decl := Declaration{Prefix: qn.Prefix, URI: qn.Space}
		if !seen[decl] {
			seen[decl] = true
			decls = append(decls, decl)
		}
		r.log.Infof("Registered extension function %s (%s)", qn.String(), impl.Archive)
	}

	return decls, report
}

// construct invokes the no-argument constructor, converting a panic in
// plugin code into an error.
func construct(impl capability.Implementation) (fn spi.ExtensionFunction, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in constructor %s: %v", impl.Symbol, rec)
		}
	}()
	return impl.Construct(), nil
}
