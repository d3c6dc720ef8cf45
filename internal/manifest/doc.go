// Package manifest parses and validates the optional extension.yaml file a
// plugin archive may carry. The manifest is metadata only: loading never
// requires one, and a malformed manifest is reported but does not keep the
// archive's types from being inspected.
package manifest
