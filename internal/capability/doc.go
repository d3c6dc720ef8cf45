// Package capability holds the process-wide registry of discovered extension
// function implementations. The registry is populated at most once per process:
// the first caller performs the directory scan, concurrent callers wait for it,
// and every later caller reuses the populated contents regardless of which
// directories it asked for.
package capability
