// Package loader opens plugin archives and extracts the extension-function
// constructors they contain. Each archive is evaluated in its own isolated
// interpreter, so identically named symbols in different archives never
// collide. Failures are classified per entry and collected into a report;
// a malformed archive never prevents other archives from loading.
package loader
