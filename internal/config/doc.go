// Package config manages user-level settings stored at ~/.xform/config.yaml.
// It provides functions to load, read, and write configuration keys such as
// the plugin directory list and the engine implementation name.
package config
