// Package spi defines the capability contract extension-function plugins must
// implement to be registered with the xform engine. Plugin archives ship Go
// source that imports this package; each exported zero-argument constructor
// returning an ExtensionFunction is picked up by the loader.
package spi

// QualifiedName identifies an extension function within the engine's
// namespace space.
type QualifiedName struct {
	Prefix string // namespace prefix, e.g. "ex"
	Space  string // namespace URI, e.g. "http://example.org/ext"
	Local  string // local function name, e.g. "upper-case"
}

// String renders the name in Clark notation with its prefix, e.g.
// "ex:{http://example.org/ext}upper-case". Empty parts are omitted.
func (q QualifiedName) String() string {
	name := q.Local
	if q.Space != "" {
		name = "{" + q.Space + "}" + name
	}
	if q.Prefix != "" {
		name = q.Prefix + ":" + name
	}
	return name
}

// ExtensionFunction is the capability interface a plugin type must implement
// to be eligible for registration.
type ExtensionFunction interface {
	// QualifiedName returns the function's self-declared qualified name.
	// The engine indexes registered functions by (Space, Local); the Prefix
	// is surfaced to callers as an xmlns declaration.
	QualifiedName() QualifiedName

	// Call evaluates the function against the given arguments.
	Call(args []any) (any, error)
}

// Constructor is the required shape of a plugin's no-argument constructor.
// The loader only accepts exported symbols with exactly this signature.
type Constructor func() ExtensionFunction
