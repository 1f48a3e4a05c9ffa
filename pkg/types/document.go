// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Document is the normalized output record consumed by downstream indexing
// pipelines. One Document is produced per library item at load time; it owns
// copies of the item's text and metadata and has no identity beyond the load
// call that returned it.
// Per prd001-local-library R3.1-R3.3.
type Document struct {
	// Key is the item key, unique within the source library (e.g. "ABCD2345").
	Key string `json:"key" yaml:"key"`

	// Content is the item's extracted text: child note text followed by
	// attachment text. Empty when the item exposes neither.
	Content string `json:"content" yaml:"content"`

	// Metadata maps field names to values: every stored item field under its
	// Zotero field name (title, date, DOI, url, abstractNote, ...) plus the
	// computed keys item_type, creators, tags, collections, date_added, and
	// date_modified.
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Creator is one ordered contributor on an item.
type Creator struct {
	// Given and Family hold the two-field name form ("Ada", "Lovelace").
	Given  string `json:"given,omitempty" yaml:"given,omitempty"`
	Family string `json:"family,omitempty" yaml:"family,omitempty"`

	// Literal holds single-field names (institutions, pseudonyms).
	Literal string `json:"literal,omitempty" yaml:"literal,omitempty"`

	// Role is the Zotero creator type (author, editor, translator, ...).
	Role string `json:"role,omitempty" yaml:"role,omitempty"`
}

// Name returns the display form of the creator: "Given Family", or the
// literal name for single-field creators.
func (c Creator) Name() string {
	if c.Literal != "" {
		return c.Literal
	}
	return strings.TrimSpace(c.Given + " " + c.Family)
}

// Attachment describes one attachment belonging to an item.
type Attachment struct {
	// Key is the attachment item's own key; stored files live under
	// storage/<Key>/ in the library directory.
	Key string `json:"key" yaml:"key"`

	// ContentType is the stored MIME type (e.g. "application/pdf").
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`

	// Path locates the attachment file: a filesystem path for local
	// libraries, or an API href for remote ones. Empty when the attachment
	// could not be resolved to a location.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Item is one bibliographic record read from a library store, before
// normalization into a Document. Child notes and attachments are folded in;
// standalone notes and attachments appear as Items of their own type.
// Per prd001-local-library R2.1-R2.5.
type Item struct {
	// Key is the item key, unique within the library.
	Key string `json:"key" yaml:"key"`

	// Type is the Zotero item type (journalArticle, book, note, ...).
	Type string `json:"type" yaml:"type"`

	// Fields holds the item's data fields by Zotero field name.
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`

	// Creators lists contributors in stored order.
	Creators []Creator `json:"creators,omitempty" yaml:"creators,omitempty"`

	// Tags lists the item's tag names, sorted.
	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Collections lists the names of collections containing the item, sorted.
	Collections []string `json:"collections,omitempty" yaml:"collections,omitempty"`

	// Notes holds the plain text of the item's notes, HTML already stripped.
	Notes []string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// Attachments lists the item's attachments in stored order.
	Attachments []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`

	// DateAdded and DateModified are the library's own timestamps, kept in
	// their stored string form.
	DateAdded    string `json:"date_added,omitempty" yaml:"date_added,omitempty"`
	DateModified string `json:"date_modified,omitempty" yaml:"date_modified,omitempty"`
}
