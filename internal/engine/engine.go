// Package engine models the host transformation engine as a black-box
// collaborator. The loader pipeline only depends on two things here: a
// factory that produces an engine handle, and the narrow Extensible surface
// through which extension functions are registered. Transformation semantics
// live behind the handle and are not part of this repository's scope.
package engine

import (
	"fmt"

	"github.com/xform-labs/xform/spi"
)

// ImplNative names the default engine implementation.
const ImplNative = "native"

// Handle is an opaque, ready-to-use engine handle.
type Handle interface {
	fmt.Stringer
}

// Extensible is the optional registration surface of a Handle. Handles that
// do not implement it cannot carry extension functions; registration is then
// skipped entirely and the handle is used in its unextended form.
type Extensible interface {
	Configuration() *Configuration
}

// Configuration is the engine's mutable extensibility surface. Registered
// functions are indexed by (namespace URI, local name); registering a second
// function under the same qualified name silently replaces the first.
type Configuration struct {
	funcs map[qnameKey]spi.ExtensionFunction
	order []qnameKey
}

type qnameKey struct {
	space string
	local string
}

func newConfiguration() *Configuration {
	return &Configuration{funcs: make(map[qnameKey]spi.ExtensionFunction)}
}

// RegisterExtension adds one extension function to the configuration.
func (c *Configuration) RegisterExtension(fn spi.ExtensionFunction) error {
	if fn == nil {
		return fmt.Errorf("registering extension: nil function")
	}
	qn := fn.QualifiedName()
	if qn.Local == "" {
		return fmt.Errorf("registering extension: empty local name in %q", qn.String())
	}
	key := qnameKey{space: qn.Space, local: qn.Local}
	if _, exists := c.funcs[key]; !exists {
		c.order = append(c.order, key)
	}
	c.funcs[key] = fn
	return nil
}

// Extension looks up a registered function by namespace URI and local name.
func (c *Configuration) Extension(space, local string) (spi.ExtensionFunction, bool) {
	fn, ok := c.funcs[qnameKey{space: space, local: local}]
	return fn, ok
}

// Extensions returns all registered functions in registration order.
func (c *Configuration) Extensions() []spi.ExtensionFunction {
	out := make([]spi.ExtensionFunction, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.funcs[key])
	}
	return out
}

// Transformer is the native engine implementation. It exposes the extensible
// configuration surface and can invoke registered functions by name.
type Transformer struct {
	config *Configuration
}

// NewTransformer creates a native engine handle with an empty configuration.
func NewTransformer() *Transformer {
	return &Transformer{config: newConfiguration()}
}

// Configuration returns the engine's registration surface.
func (t *Transformer) Configuration() *Configuration {
	return t.config
}

// Invoke calls a registered extension function by qualified name.
func (t *Transformer) Invoke(space, local string, args []any) (any, error) {
	fn, ok := t.config.Extension(space, local)
	if !ok {
		return nil, fmt.Errorf("no extension function registered for {%s}%s", space, local)
	}
	return fn.Call(args)
}

func (t *Transformer) String() string {
	return fmt.Sprintf("xform native transformer (%d extension functions)", len(t.config.order))
}

// basicHandle is a stand-in for engine implementations without an
// extensibility surface.
type basicHandle struct {
	impl string
}

func (h basicHandle) String() string {
	return fmt.Sprintf("xform %s transformer (not extensible)", h.impl)
}

// New produces an engine handle for the named implementation. The empty
// string selects the native implementation; any other name yields a minimal
// non-extensible handle.
func New(impl string) Handle {
	switch impl {
	case "", ImplNative:
		return NewTransformer()
	default:
		return basicHandle{impl: impl}
	}
}
