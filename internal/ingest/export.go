// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

// FormatTable writes documents as a human-readable table to w (R2.2).
func FormatTable(docs []types.Document, w io.Writer) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents loaded.")
		return
	}

	fmt.Fprintf(w, "%-10s  %-50s  %-16s  %-24s  %s\n",
		"Key", "Title", "Type", "Creators", "Chars")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for _, d := range docs {
		fmt.Fprintf(w, "%-10s  %-50s  %-16s  %-24s  %d\n",
			d.Key,
			truncate(d.Metadata["title"], 50),
			truncate(d.Metadata["item_type"], 16),
			truncate(d.Metadata["creators"], 24),
			len(d.Content))
	}

	fmt.Fprintf(w, "\n%d documents\n", len(docs))
}

// FormatYAML writes documents as a YAML list to w (R2.3).
func FormatYAML(docs []types.Document, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(docs)
}

// FormatJSON writes documents as indented JSON to w (R2.4).
func FormatJSON(docs []types.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

// WriteFile renders docs with render and moves the result into destPath
// via a temporary file, so a failed render never leaves partial output
// behind (R2.6).
func WriteFile(docs []types.Document, destPath string, render func([]types.Document, io.Writer) error) error {
	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".export-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	renderErr := render(docs, tmpFile)
	closeErr := tmpFile.Close()
	if renderErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rendering output: %w", renderErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("moving output into place: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
