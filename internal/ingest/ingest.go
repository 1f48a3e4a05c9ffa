// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest drives document loads from a Zotero library source and
// renders the results for downstream consumers.
// Implements: prd003-export (R1-R4);
//
//	docs/ARCHITECTURE § Export.
package ingest

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

// Source loads documents from one Zotero library. The local SQLite reader
// and the Web API client both implement it per the Strategy pattern (R1.2).
type Source interface {
	Name() string
	Load(ctx context.Context, w io.Writer) ([]types.Document, error)
}

// Summary holds the outcome of one load run.
type Summary struct {
	Source string
	Loaded int
}

// Run performs one full load from src. Warnings about skipped items go to
// w; the returned slice is fully materialized, so callers may iterate it
// repeatedly without touching the library again (R1.3, R1.4).
func Run(ctx context.Context, src Source, w io.Writer) ([]types.Document, Summary, error) {
	docs, err := src.Load(ctx, w)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("loading from %s source: %w", src.Name(), err)
	}

	sum := Summary{Source: src.Name(), Loaded: len(docs)}
	fmt.Fprintf(w, "Loaded %d document(s) from %s source\n", sum.Loaded, sum.Source)
	return docs, sum, nil
}
