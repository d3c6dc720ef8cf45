package cli

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xform-labs/xform/internal/loader"
	"github.com/xform-labs/xform/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <archive>",
	Short: "Validate a plugin archive",
	Long: `Check that an archive is a readable plugin container: a zip file with at
least one source entry, and a well-formed manifest if one is present.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	archivePath := args[0]
	out := cmd.OutOrStdout()

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", archivePath, err)
	}
	defer zr.Close()

	sources := 0
	var manifestEntry *zip.File
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name, loader.EntrySuffix) {
			sources++
		}
		if entry.Name == loader.ManifestEntry || strings.HasSuffix(entry.Name, "/"+loader.ManifestEntry) {
			manifestEntry = entry
		}
	}

	if sources == 0 {
		return fmt.Errorf("archive %s contains no %s entries", archivePath, loader.EntrySuffix)
	}
	fmt.Fprintf(out, "%d source entr%s\n", sources, pluralY(sources))

	if manifestEntry == nil {
		fmt.Fprintln(out, "no manifest (optional)")
		fmt.Fprintln(out, "OK")
		return nil
	}

	rc, err := manifestEntry.Open()
	if err != nil {
		return fmt.Errorf("opening manifest entry: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("reading manifest entry: %w", err)
	}

	m, err := manifest.ParseBytes(data)
	if err != nil {
		return fmt.Errorf("parsing manifest: %w", err)
	}

	result, err := manifest.Validate(data)
	if err != nil {
		return fmt.Errorf("validating manifest: %w", err)
	}
	if !result.Valid {
		for _, issue := range result.Issues {
			fmt.Fprintf(out, "manifest issue: %s %s\n", issue.Path, issue.Message)
		}
		return fmt.Errorf("manifest in %s is invalid", archivePath)
	}

	fmt.Fprintf(out, "manifest: %s %s\n", m.Name, m.Version)
	if m.MinHostVersion != "" {
		fmt.Fprintf(out, "requires host >= %s\n", m.MinHostVersion)
	}
	fmt.Fprintln(out, "OK")
	return nil
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
