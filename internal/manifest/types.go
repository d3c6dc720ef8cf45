package manifest

// Manifest describes one plugin archive.
type Manifest struct {
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`

	// MinHostVersion is the lowest xform version the archive's extensions
	// are known to work with.
	MinHostVersion string `yaml:"minHostVersion,omitempty" json:"minHostVersion,omitempty"`
}
