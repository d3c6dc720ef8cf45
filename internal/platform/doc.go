// Package platform provides cross-platform filesystem operations used by the
// self-update mechanism. On Unix systems it applies permission bits directly;
// on Windows the Unix-style calls are no-ops.
package platform
