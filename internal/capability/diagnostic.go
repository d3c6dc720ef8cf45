package capability

import "fmt"

// ErrorKind classifies a per-item failure in the scan/load/register pipeline.
type ErrorKind string

const (
	// KindTypeNotFound means an archive entry failed to evaluate or its
	// symbols could not be enumerated.
	KindTypeNotFound ErrorKind = "type-not-found"

	// KindAccessDenied means the archive file could not be opened due to
	// filesystem permissions.
	KindAccessDenied ErrorKind = "access-denied"

	// KindMissingConstructor means a previously discovered symbol was no
	// longer a well-formed no-argument constructor at registration time.
	KindMissingConstructor ErrorKind = "missing-constructor"

	// KindCannotInstantiate means a constructor panicked or returned nil
	// when invoked at registration time.
	KindCannotInstantiate ErrorKind = "cannot-instantiate"

	// KindIO covers generic I/O failures reading an archive or entry.
	KindIO ErrorKind = "io"

	// KindRegistration means the host configuration rejected the instance.
	KindRegistration ErrorKind = "registration"
)

// Diagnostic records one non-fatal failure, with enough context to diagnose
// which archive (and which entry or symbol within it) misbehaved.
type Diagnostic struct {
	Kind    ErrorKind
	Archive string // canonical archive path
	Subject string // entry path or symbol name within the archive, if known
	Err     error
}

func (d Diagnostic) String() string {
	if d.Subject != "" {
		return fmt.Sprintf("%s: %s (%s): %v", d.Kind, d.Archive, d.Subject, d.Err)
	}
	return fmt.Sprintf("%s: %s: %v", d.Kind, d.Archive, d.Err)
}

// Report is the accumulated outcome of one pipeline run. The pipeline itself
// always succeeds; failures are attached here per item.
type Report struct {
	Diagnostics []Diagnostic
}

// Add appends a diagnostic to the report.
func (r *Report) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)
}

// Merge appends all diagnostics from another report.
func (r *Report) Merge(other Report) {
	r.Diagnostics = append(r.Diagnostics, other.Diagnostics...)
}

// CountKind returns how many diagnostics of the given kind were recorded.
func (r *Report) CountKind(kind ErrorKind) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			n++
		}
	}
	return n
}
