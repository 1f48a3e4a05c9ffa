// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce coalesces the burst of filesystem events Zotero emits
// during a single sync before reloading.
const defaultDebounce = 500 * time.Millisecond

// Watch invokes onChange whenever the library database or its storage tree
// changes, debouncing event bursts. Each reload is a fresh read-only load;
// nothing is written back to the library (R4.1-R4.3). Watch blocks until
// ctx is cancelled and returns the cancellation cause.
func Watch(ctx context.Context, libraryDir string, debounce time.Duration, w io.Writer, onChange func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(libraryDir); err != nil {
		return fmt.Errorf("watching %s: %w", libraryDir, err)
	}

	// Libraries without attachments have no storage directory.
	storage := filepath.Join(libraryDir, "storage")
	if info, err := os.Stat(storage); err == nil && info.IsDir() {
		if err := watcher.Add(storage); err != nil {
			return fmt.Errorf("watching %s: %w", storage, err)
		}
	}

	if debounce <= 0 {
		debounce = defaultDebounce
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if relevantEvent(event) {
				timer.Reset(debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "warning: watch error: %v\n", err)
		case <-timer.C:
			if err := onChange(); err != nil {
				fmt.Fprintf(w, "warning: reload failed: %v\n", err)
			}
		}
	}
}

// relevantEvent filters to changes that can alter load output: the SQLite
// database and its journal files, storage entries, and fulltext caches.
func relevantEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}

	base := filepath.Base(event.Name)
	switch {
	case strings.HasPrefix(base, "zotero.sqlite"):
		return true
	case base == ".zotero-ft-cache":
		return true
	case filepath.Base(filepath.Dir(event.Name)) == "storage":
		return true
	}
	return false
}
