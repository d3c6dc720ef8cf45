package loader

import (
	"archive/zip"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path"
	"reflect"
	"sort"
	"strings"
	"testing/fstest"

	"github.com/sirupsen/logrus"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/xform-labs/xform/internal/capability"
	"github.com/xform-labs/xform/internal/manifest"
	"github.com/xform-labs/xform/spi"
)

// EntrySuffix marks archive entries that contain loadable plugin source.
const EntrySuffix = ".go"

// ManifestEntry is the optional metadata file inside an archive.
const ManifestEntry = "extension.yaml"

var extensionFuncType = reflect.TypeOf((*spi.ExtensionFunction)(nil)).Elem()

// Loader loads extension-function constructors from plugin archives.
type Loader struct {
	log *logrus.Logger

	// HostVersion, when set, is checked against each archive manifest's
	// minHostVersion declaration. Incompatible archives are skipped.
	HostVersion string
}

// New creates a loader.
func New(log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{log: log}
}

// sourceEntry is one parsed source entry of an archive.
type sourceEntry struct {
	name      string // path within the archive
	candidate string // symbol prefix derived from the path, e.g. "ext.upper"
	src       []byte

	// declared holds the exported top-level function and variable names this
	// entry contributes, used to attribute package symbols back to entries.
	declared map[string]bool
}

// packageGroup collects an archive's entries that share a package clause.
type packageGroup struct {
	pkg     string
	entries []*sourceEntry
}

// LoadArchive opens one archive, compiles its source entries package by
// package in an interpreter scoped to that archive, and returns the
// constructors whose declared result is the ExtensionFunction capability
// interface. All failures are recorded in the report; none abort the
// remaining entries.
func (l *Loader) LoadArchive(archivePath string) ([]capability.Implementation, capability.Report) {
	var report capability.Report

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		kind := capability.KindIO
		if os.IsPermission(err) {
			kind = capability.KindAccessDenied
			l.log.Errorf("Not allowed to read plugin archive %s: %v", archivePath, err)
		} else {
			l.log.Errorf("Failed to open plugin archive %s: %v", archivePath, err)
		}
		report.Add(capability.Diagnostic{Kind: kind, Archive: archivePath, Err: err})
		return nil, report
	}
	defer zr.Close()

	if ok := l.checkManifest(zr, archivePath); !ok {
		return nil, report
	}

	groups := l.parseEntries(zr, archivePath, &report)

	var impls []capability.Implementation
	for _, g := range groups {
		found, diags := l.loadPackage(archivePath, g)
		impls = append(impls, found...)
		report.Merge(diags)
	}

	return impls, report
}

// parseEntries reads and parses every source entry, grouping them by package
// clause in first-seen order. Entries that cannot be read or parsed get a
// diagnostic and are excluded, so one broken file never takes down its
// package siblings.
func (l *Loader) parseEntries(zr *zip.ReadCloser, archivePath string, report *capability.Report) []*packageGroup {
	var groups []*packageGroup
	byPkg := make(map[string]*packageGroup)

	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !strings.HasSuffix(entry.Name, EntrySuffix) {
			l.log.Debugf("Not a source entry, ignoring: %s", entry.Name)
			continue
		}

		src, err := readEntry(entry)
		if err != nil {
			l.log.Errorf("Failed to read entry %s in %s: %v", entry.Name, archivePath, err)
			report.Add(capability.Diagnostic{Kind: capability.KindIO, Archive: archivePath, Subject: entry.Name, Err: err})
			continue
		}

		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, entry.Name, src, 0)
		if err != nil {
			l.log.Errorf("Failed to find loadable types in %s (%s): %v", archivePath, entry.Name, err)
			report.Add(capability.Diagnostic{Kind: capability.KindTypeNotFound, Archive: archivePath, Subject: entry.Name, Err: err})
			continue
		}

		pkg := f.Name.Name
		g := byPkg[pkg]
		if g == nil {
			g = &packageGroup{pkg: pkg}
			byPkg[pkg] = g
			groups = append(groups, g)
		}
		g.entries = append(g.entries, &sourceEntry{
			name:      entry.Name,
			candidate: strings.ReplaceAll(strings.TrimSuffix(entry.Name, EntrySuffix), "/", "."),
			src:       src,
			declared:  declaredNames(f),
		})
	}

	return groups
}

// loadPackage compiles one package's entries together, so files can refer to
// each other and shared imports resolve once. If the joint compilation fails,
// the entries are retried one at a time, each in a fresh interpreter, so a
// single bad file only costs its own constructors.
func (l *Loader) loadPackage(archivePath string, g *packageGroup) ([]capability.Implementation, capability.Report) {
	var report capability.Report

	it, err := l.newPackageInterpreter(g)
	if err == nil {
		if _, err = it.Eval(fmt.Sprintf("import %q", g.pkg)); err == nil {
			return l.collect(it, archivePath, g.pkg, g.entries), report
		}
	}
	l.log.Warnf("Failed to load package %s from %s as a unit, retrying entries individually: %v", g.pkg, archivePath, err)

	var impls []capability.Implementation
	for _, e := range g.entries {
		it, err := l.newInterpreter()
		if err != nil {
			l.log.Errorf("Failed to create interpreter for %s: %v", archivePath, err)
			report.Add(capability.Diagnostic{Kind: capability.KindIO, Archive: archivePath, Subject: e.name, Err: err})
			continue
		}
		if _, err := it.Eval(string(e.src)); err != nil {
			l.log.Errorf("Failed to load types from %s (%s): %v", archivePath, e.name, err)
			report.Add(capability.Diagnostic{Kind: capability.KindTypeNotFound, Archive: archivePath, Subject: e.name, Err: err})
			continue
		}
		impls = append(impls, l.collect(it, archivePath, g.pkg, []*sourceEntry{e})...)
	}

	return impls, report
}

// collect walks the interpreter's symbol table once for the package and keeps
// the exported zero-argument constructors, each attributed to the entry that
// declared it. Symbols are visited in sorted order so discovery order is
// deterministic.
func (l *Loader) collect(it *interp.Interpreter, archivePath, pkg string, entries []*sourceEntry) []capability.Implementation {
	owner := make(map[string]string)
	for _, e := range entries {
		for name := range e.declared {
			owner[name] = e.candidate
		}
	}

	var impls []capability.Implementation
	for _, symbols := range it.Symbols(pkg) {
		names := make([]string, 0, len(symbols))
		for name := range symbols {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			value := symbols[name]
			if !token.IsExported(name) || !isConstructor(value) {
				continue
			}
			candidate, ok := owner[name]
			if !ok {
				candidate = pkg
			}
			impls = append(impls, capability.Implementation{
				Symbol:    candidate + "." + name,
				Archive:   archivePath,
				Construct: asConstructor(value),
			})
			l.log.Debugf("Found extension constructor %s.%s in %s", candidate, name, archivePath)
		}
	}

	return impls
}

// checkManifest parses the archive's optional extension.yaml. A missing or
// malformed manifest is tolerated; a manifest declaring an incompatible
// minimum host version causes the archive to be skipped. Returns false when
// the archive must be skipped.
func (l *Loader) checkManifest(zr *zip.ReadCloser, archivePath string) bool {
	entry := findManifest(zr)
	if entry == nil {
		return true
	}

	data, err := readEntry(entry)
	if err != nil {
		l.log.Warnf("Unable to read manifest in %s: %v", archivePath, err)
		return true
	}

	m, err := manifest.ParseBytes(data)
	if err != nil {
		l.log.Warnf("Ignoring malformed manifest in %s: %v", archivePath, err)
		return true
	}

	if result, err := manifest.Validate(data); err == nil && !result.Valid {
		for _, issue := range result.Issues {
			l.log.Warnf("Manifest issue in %s: %s %s", archivePath, issue.Path, issue.Message)
		}
	}

	if l.HostVersion != "" && m.MinHostVersion != "" {
		if err := manifest.CheckHostVersion(m, l.HostVersion); err != nil {
			l.log.Warnf("Skipping plugin archive %s: %v", archivePath, err)
			return false
		}
	}

	if m.Name != "" {
		l.log.Infof("Loading plugin %s %s from %s", m.Name, m.Version, archivePath)
	}
	return true
}

// newPackageInterpreter creates an interpreter whose source filesystem holds
// all of one package's entries, laid out so the package imports as a unit.
// One interpreter per package per archive is what keeps same-named types from
// different archives apart.
func (l *Loader) newPackageInterpreter(g *packageGroup) (*interp.Interpreter, error) {
	mapfs := fstest.MapFS{}
	for _, e := range g.entries {
		flat := strings.ReplaceAll(e.name, "/", "__")
		mapfs[path.Join("src", g.pkg, flat)] = &fstest.MapFile{Data: e.src}
	}

	it := interp.New(interp.Options{GoPath: "./", SourcecodeFilesystem: mapfs})
	if err := it.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	if err := it.Use(spiSymbols()); err != nil {
		return nil, fmt.Errorf("loading spi symbols: %w", err)
	}
	return it, nil
}

// newInterpreter creates a fresh interpreter for a single source entry,
// primed with the standard library and the spi symbol table.
func (l *Loader) newInterpreter() (*interp.Interpreter, error) {
	it := interp.New(interp.Options{})
	if err := it.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("loading stdlib symbols: %w", err)
	}
	if err := it.Use(spiSymbols()); err != nil {
		return nil, fmt.Errorf("loading spi symbols: %w", err)
	}
	return it, nil
}

// isConstructor reports whether a symbol is a zero-argument function whose
// single result is assignable to the ExtensionFunction interface.
func isConstructor(v reflect.Value) bool {
	if !v.IsValid() || v.Kind() != reflect.Func {
		return false
	}
	t := v.Type()
	return t.NumIn() == 0 && t.NumOut() == 1 && t.Out(0).AssignableTo(extensionFuncType)
}

// asConstructor adapts a symbol value to the spi.Constructor shape. The
// direct assertion covers the common case; the reflect fallback covers
// interpreted functions that carry the right signature under a distinct
// dynamic type.
func asConstructor(v reflect.Value) spi.Constructor {
	if fn, ok := v.Interface().(func() spi.ExtensionFunction); ok {
		return fn
	}
	return func() spi.ExtensionFunction {
		out := v.Call(nil)
		fn, _ := out[0].Interface().(spi.ExtensionFunction)
		return fn
	}
}

// declaredNames returns the exported top-level function and variable names a
// parsed file declares. Methods do not count; they are never constructors.
func declaredNames(f *ast.File) map[string]bool {
	names := make(map[string]bool)
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && token.IsExported(d.Name.Name) {
				names[d.Name.Name] = true
			}
		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, s := range d.Specs {
				vs, ok := s.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, n := range vs.Names {
					if token.IsExported(n.Name) {
						names[n.Name] = true
					}
				}
			}
		}
	}
	return names
}

// findManifest locates the manifest entry at the archive root or one level
// down.
func findManifest(zr *zip.ReadCloser) *zip.File {
	for _, entry := range zr.File {
		if entry.Name == ManifestEntry || strings.HasSuffix(entry.Name, "/"+ManifestEntry) {
			return entry
		}
	}
	return nil
}

func readEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, fmt.Errorf("opening entry %s: %w", entry.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
