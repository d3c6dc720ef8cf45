package manifest

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"go.yaml.in/yaml/v3"
)

// Parse reads a manifest file from disk.
func Parse(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseBytes unmarshals manifest YAML, typically read straight out of an
// archive entry.
func ParseBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling manifest: %w", err)
	}
	return &m, nil
}

// CheckHostVersion verifies that the running host satisfies the manifest's
// minHostVersion declaration. A manifest without the declaration always
// passes. Unparseable versions fail the check, with the manifest named in
// the error.
func CheckHostVersion(m *Manifest, hostVersion string) error {
	if m.MinHostVersion == "" {
		return nil
	}

	host, err := semver.NewVersion(hostVersion)
	if err != nil {
		// Dev builds carry a non-semver version; never block those.
		return nil
	}

	min, err := semver.NewVersion(m.MinHostVersion)
	if err != nil {
		return fmt.Errorf("manifest %q declares invalid minHostVersion %q: %w", m.Name, m.MinHostVersion, err)
	}

	if host.LessThan(min) {
		return fmt.Errorf("plugin %q requires host version >= %s, running %s", m.Name, m.MinHostVersion, hostVersion)
	}
	return nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
