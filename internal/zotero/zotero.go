// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package zotero reads a local Zotero library store and loads its items as
// normalized documents.
// Implements: prd001-local-library (R1-R6);
//
//	docs/ARCHITECTURE § Local Library.
package zotero

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mattn/go-sqlite3"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

const (
	// dbFile is the SQLite database inside a Zotero data directory.
	dbFile = "zotero.sqlite"
	// storageDir holds attachment files, one subdirectory per attachment key.
	storageDir = "storage"
	// ftCacheFile is Zotero's own cached text extraction for an attachment.
	ftCacheFile = ".zotero-ft-cache"
)

// validateQuery counts the core Zotero tables. A database missing any of
// them is not a library this loader understands.
const validateQuery = `SELECT count(*) FROM sqlite_master
	WHERE type = 'table'
	AND name IN ('items', 'itemTypes', 'itemData', 'itemDataValues', 'fields')`

// Library is a read-only handle on a local Zotero store. Nothing under the
// library path is ever written or modified.
type Library struct {
	db  *sql.DB
	dir string // directory holding zotero.sqlite and storage/
	cfg types.LibraryConfig
}

// Open validates and opens the library at cfg.Path. The path may be a
// Zotero data directory (containing zotero.sqlite) or a direct path to the
// database file. Failures map onto the load error taxonomy: a missing path
// wraps types.ErrNotFound, denied access wraps types.ErrPermission, and a
// path that is not a Zotero store wraps types.ErrInvalidLibrary (R1.1-R1.4).
func Open(cfg types.LibraryConfig) (*Library, error) {
	for _, pat := range cfg.AttachmentPatterns {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("invalid attachment pattern %q", pat)
		}
	}

	dbPath, err := resolveDBPath(cfg.Path)
	if err != nil {
		return nil, err
	}

	// Probe readability up front: the sql driver opens lazily, and mapping
	// its first-query failure back to a permission error is unreliable.
	f, err := os.Open(dbPath)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("library %s: %w", dbPath, types.ErrPermission)
		}
		return nil, fmt.Errorf("opening library %s: %w", dbPath, err)
	}
	f.Close()

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	var n int
	if err := db.QueryRow(validateQuery).Scan(&n); err != nil {
		db.Close()
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.Code == sqlite3.ErrNotADB {
			return nil, fmt.Errorf("%s: %w", dbPath, types.ErrInvalidLibrary)
		}
		return nil, fmt.Errorf("validating library %s: %w", dbPath, err)
	}
	if n < 5 {
		db.Close()
		return nil, fmt.Errorf("%s: missing core tables: %w", dbPath, types.ErrInvalidLibrary)
	}

	l := &Library{
		db:  db,
		dir: filepath.Dir(dbPath),
		cfg: cfg,
	}
	if l.cfg.FulltextDir == "" {
		l.cfg.FulltextDir = filepath.Join(l.dir, "fulltext")
	}
	return l, nil
}

// resolveDBPath maps the configured path to the SQLite file, distinguishing
// a missing path from a present-but-unrecognizable one.
func resolveDBPath(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("library %s: %w", path, types.ErrNotFound)
		case errors.Is(err, fs.ErrPermission):
			return "", fmt.Errorf("library %s: %w", path, types.ErrPermission)
		default:
			return "", fmt.Errorf("checking library %s: %w", path, err)
		}
	}

	if !fi.IsDir() {
		return path, nil
	}

	dbPath := filepath.Join(path, dbFile)
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s has no %s: %w", path, dbFile, types.ErrInvalidLibrary)
		}
		if errors.Is(err, fs.ErrPermission) {
			return "", fmt.Errorf("library %s: %w", dbPath, types.ErrPermission)
		}
		return "", fmt.Errorf("checking library %s: %w", dbPath, err)
	}
	return dbPath, nil
}

// Close releases the database connection.
func (l *Library) Close() error {
	return l.db.Close()
}

// Name identifies this source to the ingestion layer.
func (l *Library) Name() string {
	return "local"
}

// Dir returns the resolved library data directory.
func (l *Library) Dir() string {
	return l.dir
}

// FulltextDir returns the sidecar directory consulted for attachment text,
// either the configured one or <dir>/fulltext.
func (l *Library) FulltextDir() string {
	return l.cfg.FulltextDir
}

// Load enumerates all items in the library and returns one Document per
// item, in itemID order, as a fully materialized slice (R2.1, R3.4). Items
// with no extractable text are included as empty-content Documents. An item
// whose attachment text cannot be read is skipped with a warning on w; the
// rest of the batch still loads (R4.4). Store-level failures abort the call.
func (l *Library) Load(ctx context.Context, w io.Writer) ([]types.Document, error) {
	items, err := l.Items(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]types.Document, 0, len(items))
	for _, it := range items {
		doc, err := l.document(it)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping %v\n", err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// document converts one Item into a Document. Content is the item's note
// text followed by attachment text, joined with blank lines; every data
// field lands in the metadata map alongside the computed keys.
func (l *Library) document(it types.Item) (types.Document, error) {
	var parts []string
	for _, note := range it.Notes {
		if note != "" {
			parts = append(parts, note)
		}
	}
	for _, att := range it.Attachments {
		text, err := l.attachmentText(att)
		if err != nil {
			return types.Document{}, &types.ItemError{Key: it.Key, Err: err}
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}

	meta := make(map[string]string, len(it.Fields)+6)
	for k, v := range it.Fields {
		meta[k] = v
	}
	meta["item_type"] = it.Type
	if len(it.Creators) > 0 {
		meta["creators"] = joinCreators(it.Creators)
	}
	if len(it.Tags) > 0 {
		meta["tags"] = strings.Join(it.Tags, "; ")
	}
	if len(it.Collections) > 0 {
		meta["collections"] = strings.Join(it.Collections, "; ")
	}
	if it.DateAdded != "" {
		meta["date_added"] = it.DateAdded
	}
	if it.DateModified != "" {
		meta["date_modified"] = it.DateModified
	}

	return types.Document{
		Key:      it.Key,
		Content:  strings.Join(parts, "\n\n"),
		Metadata: meta,
	}, nil
}

// joinCreators renders creators in stored order as "Name; Name; ...".
func joinCreators(creators []types.Creator) string {
	names := make([]string, 0, len(creators))
	for _, c := range creators {
		if name := c.Name(); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "; ")
}
