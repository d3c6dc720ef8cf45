// Package scanner walks plugin directory trees and collects candidate
// extension archives. Scanning is best-effort: an unreadable directory or a
// file that cannot be canonicalized is logged and skipped, never aborting the
// scan of siblings or other roots.
package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// ArchiveSuffix is the filename suffix that marks a loadable plugin archive.
const ArchiveSuffix = ".xfp"

// Scanner discovers archive files under a set of root directories.
type Scanner struct {
	roots []string
	log   *logrus.Logger
}

// New creates a scanner over the given root directories. The roots are fixed
// for the scanner's lifetime; Scan never mutates them.
func New(roots []string, log *logrus.Logger) *Scanner {
	if log == nil {
		log = logrus.New()
	}
	return &Scanner{roots: roots, log: log}
}

// Scan walks each root depth-first in input order and returns the canonical
// paths of all regular files ending in ArchiveSuffix, in traversal order.
// The result never contains duplicates by canonical form.
func (s *Scanner) Scan() []string {
	var archives []string
	seen := make(map[string]bool)

	for _, root := range s.roots {
		s.scanDir(root, seen, &archives)
	}

	return archives
}

// scanDir lists one directory and recurses into subdirectories. Errors on
// individual entries are logged and skipped.
func (s *Scanner) scanDir(dir string, seen map[string]bool, archives *[]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		s.log.Infof("No plugins detected in %s: %v", dir, err)
		return
	}
	if len(entries) == 0 {
		s.log.Infof("No plugins detected in %s", dir)
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		switch {
		case entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), ArchiveSuffix):
			canonical, err := canonicalize(path)
			if err != nil {
				s.log.Warnf("Unable to resolve plugin archive %s: %v", path, err)
				continue
			}
			if seen[canonical] {
				continue
			}
			seen[canonical] = true
			*archives = append(*archives, canonical)
			s.log.Infof("Scan found plugin archive: %s", canonical)

		case entry.IsDir():
			s.scanDir(path, seen, archives)

		default:
			s.log.Debugf("Ignoring non-archive entry: %s", path)
		}
	}
}

// canonicalize resolves a discovered path to its canonical absolute form,
// following symlinks so that the same file reached twice dedupes.
func canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return resolved, nil
}
