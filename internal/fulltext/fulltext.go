// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fulltext extracts text from PDF attachments that have no stored
// extraction, writing sidecar files the local loader picks up on the next
// load.
// Implements: prd004-fulltext (R1, R2);
//
//	docs/ARCHITECTURE § Fulltext.
package fulltext

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

const (
	pdfContentType = "application/pdf"
	ftCacheFile    = ".zotero-ft-cache"
)

// Converter transforms a PDF file into plain text. Different backends
// (pdftotext, OCR pipelines) implement this interface.
type Converter interface {
	// Convert reads a PDF at pdfPath and returns the extracted text.
	Convert(pdfPath string) (string, error)
}

// BatchResult holds the outcome of a batch extraction run.
type BatchResult struct {
	Extracted int
	Skipped   int
	Failed    int
}

// Total returns the total number of attachments processed.
func (r BatchResult) Total() int {
	return r.Extracted + r.Skipped + r.Failed
}

// HasFailures reports whether any attachments failed extraction.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

type extractStatus int

const (
	statusExtracted extractStatus = iota
	statusSkipped
	statusFailed
)

// extractAttachment extracts one PDF into outDir/<KEY>.txt. Attachments
// whose text the library already stores are skipped, whether as a
// .zotero-ft-cache next to the file or as an existing sidecar.
func extractAttachment(c Converter, att types.Attachment, outDir string, w io.Writer) extractStatus {
	txtPath := filepath.Join(outDir, att.Key+".txt")
	if _, err := os.Stat(txtPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (sidecar exists)\n", att.Key)
		return statusSkipped
	}
	if att.Path != "" {
		cache := filepath.Join(filepath.Dir(att.Path), ftCacheFile)
		if _, err := os.Stat(cache); err == nil {
			fmt.Fprintf(w, "skipped: %s (library cache present)\n", att.Key)
			return statusSkipped
		}
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", att.Key, err)
		return statusFailed
	}

	text, err := c.Convert(att.Path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", att.Key, err)
		return statusFailed
	}

	if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", att.Key, err)
		return statusFailed
	}

	fmt.Fprintf(w, "extracted: %s\n", att.Key)
	return statusExtracted
}

// ExtractBatch walks the items' PDF attachments through the converter,
// printing per-attachment status to w and returning a summary. The library
// itself is never modified; sidecars land in outDir only (R1.3).
func ExtractBatch(c Converter, items []types.Item, outDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, it := range items {
		for _, att := range it.Attachments {
			if att.ContentType != pdfContentType || att.Path == "" {
				continue
			}
			switch extractAttachment(c, att, outDir, w) {
			case statusExtracted:
				result.Extracted++
			case statusSkipped:
				result.Skipped++
			case statusFailed:
				result.Failed++
			}
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d extracted, %d skipped, %d failed (total: %d)\n",
		result.Extracted, result.Skipped, result.Failed, result.Total())
	return result
}
