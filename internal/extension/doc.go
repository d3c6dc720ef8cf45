// Package extension is the host-facing entry point of the plugin pipeline.
// The Manager scans the configured plugin directories, loads extension
// constructors out of the discovered archives, registers the instances into
// an engine configuration, and hands back the ready engine together with the
// namespace declarations the plugins brought along.
package extension
