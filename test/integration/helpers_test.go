//go:build integration

package integration_test

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/xform-labs/xform/internal/capability"
	"github.com/xform-labs/xform/internal/extension"
)

// testEnv holds the isolated directories one integration test works in.
type testEnv struct {
	PluginDir string // where plugin archives are placed
	HomeDir   string // stands in for ~/.xform
}

// setupTestEnv creates isolated temp directories and points the XFORM env
// vars at them so nothing touches the real user configuration.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		PluginDir: t.TempDir(),
		HomeDir:   t.TempDir(),
	}
	t.Setenv("XFORM_PLUGINS_DIRS", env.PluginDir)
	return env
}

// newManager returns a manager on a fresh registry with logging discarded.
func newManager(t *testing.T) *extension.Manager {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return extension.NewManagerWith(log, capability.NewRegistry())
}

// writeArchive creates a plugin archive at dir/name with the given entries.
func writeArchive(t *testing.T, dir, name string, entries map[string]string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating archive %s: %v", path, err)
	}
	zw := zip.NewWriter(f)
	for entryName, body := range entries {
		w, err := zw.Create(entryName)
		if err != nil {
			t.Fatalf("creating entry %s: %v", entryName, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("writing entry %s: %v", entryName, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing archive file: %v", err)
	}
	return path
}

const upperSrc = `package extplug

import (
	"strings"

	"github.com/xform-labs/xform/spi"
)

type upperCase struct{}

func (upperCase) QualifiedName() spi.QualifiedName {
	return spi.QualifiedName{Prefix: "ex", Space: "http://example.org/ext", Local: "upper-case"}
}

func (upperCase) Call(args []interface{}) (interface{}, error) {
	if len(args) == 0 {
		return "", nil
	}
	s, _ := args[0].(string)
	return strings.ToUpper(s), nil
}

func NewUpperCase() spi.ExtensionFunction {
	return upperCase{}
}
`

const geoSrc = `package geoplug

import (
	"math"

	"github.com/xform-labs/xform/spi"
)

type distance struct{}

func (distance) QualifiedName() spi.QualifiedName {
	return spi.QualifiedName{Prefix: "geo", Space: "http://example.org/geo", Local: "distance"}
}

func (distance) Call(args []interface{}) (interface{}, error) {
	if len(args) < 4 {
		return 0.0, nil
	}
	x1, _ := args[0].(float64)
	y1, _ := args[1].(float64)
	x2, _ := args[2].(float64)
	y2, _ := args[3].(float64)
	return math.Hypot(x2-x1, y2-y1), nil
}

func NewDistance() spi.ExtensionFunction {
	return distance{}
}
`

const brokenSrc = `package extplug

func Broken( {
`
