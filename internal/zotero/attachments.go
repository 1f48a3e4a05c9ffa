// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

// storagePrefix marks attachment paths stored inside the library's own
// storage/ tree. Other prefixes ("attachments:") point at a user-configured
// base directory this loader does not know about.
const storagePrefix = "storage:"

// resolveAttachmentPath maps a stored attachment path to a filesystem
// location. Stored files live under storage/<KEY>/; absolute paths are
// linked files and pass through. Unresolvable paths come back empty and the
// attachment contributes no text.
func (l *Library) resolveAttachmentPath(key, path string) string {
	switch {
	case path == "":
		return ""
	case strings.HasPrefix(path, storagePrefix):
		return filepath.Join(l.dir, storageDir, key, strings.TrimPrefix(path, storagePrefix))
	case filepath.IsAbs(path):
		return path
	default:
		return ""
	}
}

// attachmentText extracts text for one attachment. Text attachments (by
// content type or configured filename pattern) are read directly; anything
// else falls back to Zotero's cached extraction next to the file, then to
// the sidecar fulltext directory. A missing file is not an error: the
// attachment may simply not be downloaded. An unreadable file is, and makes
// the owning item skippable (R4.4).
func (l *Library) attachmentText(att types.Attachment) (string, error) {
	if att.Path == "" {
		return "", nil
	}

	if l.isTextAttachment(att) {
		return readOptional(att.Path)
	}

	cache := filepath.Join(filepath.Dir(att.Path), ftCacheFile)
	if text, err := readOptional(cache); err != nil || text != "" {
		return text, err
	}

	if l.cfg.FulltextDir != "" {
		return readOptional(filepath.Join(l.cfg.FulltextDir, att.Key+".txt"))
	}
	return "", nil
}

// isTextAttachment reports whether the attachment should be read as text
// directly: every text/* content type, plus filenames matching a configured
// doublestar pattern.
func (l *Library) isTextAttachment(att types.Attachment) bool {
	if strings.HasPrefix(att.ContentType, "text/") {
		return true
	}
	name := filepath.Base(att.Path)
	for _, pat := range l.cfg.AttachmentPatterns {
		if ok, _ := doublestar.Match(pat, name); ok {
			return true
		}
	}
	return false
}

// readOptional reads a file, treating absence as empty text.
func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
