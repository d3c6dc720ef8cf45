package loader

import (
	"reflect"

	"github.com/traefik/yaegi/interp"

	"github.com/xform-labs/xform/spi"
)

// spiSymbols exposes the spi package to interpreted plugin code, so archive
// sources can `import "github.com/xform-labs/xform/spi"`. The wrapper type
// follows the layout produced by `yaegi extract`, which lets interpreted
// types satisfy the compiled ExtensionFunction interface.
func spiSymbols() interp.Exports {
	return interp.Exports{
		"github.com/xform-labs/xform/spi/spi": map[string]reflect.Value{
			"QualifiedName":      reflect.ValueOf((*spi.QualifiedName)(nil)),
			"ExtensionFunction":  reflect.ValueOf((*spi.ExtensionFunction)(nil)),
			"Constructor":        reflect.ValueOf((*spi.Constructor)(nil)),
			"_ExtensionFunction": reflect.ValueOf((*_spiExtensionFunction)(nil)),
		},
	}
}

// _spiExtensionFunction is an interface wrapper for spi.ExtensionFunction.
type _spiExtensionFunction struct {
	IValue         interface{}
	WCall          func(args []any) (any, error)
	WQualifiedName func() spi.QualifiedName
}

func (W _spiExtensionFunction) Call(args []any) (any, error) {
	return W.WCall(args)
}

func (W _spiExtensionFunction) QualifiedName() spi.QualifiedName {
	return W.WQualifiedName()
}
