// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// Store-level load failures wrap one of these sentinels so callers can
// branch with errors.Is. Any of them aborts the whole load.
// Per prd001-local-library R4.1-R4.3.
var (
	// ErrNotFound indicates the library path does not exist.
	ErrNotFound = errors.New("library path not found")

	// ErrInvalidLibrary indicates the path exists but does not hold a
	// recognizable Zotero library store.
	ErrInvalidLibrary = errors.New("not a Zotero library")

	// ErrPermission indicates read access to the library was denied.
	ErrPermission = errors.New("library access denied")
)

// ItemError records a single item that failed to load. Item-level failures
// are recoverable: loaders skip the item with a warning and continue, so one
// malformed record does not block the rest of the batch.
// Per prd001-local-library R4.4.
type ItemError struct {
	// Key identifies the failed item within the library.
	Key string

	// Err is the underlying cause.
	Err error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %s: %v", e.Key, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
