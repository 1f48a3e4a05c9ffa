package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that talk to the
// Zotero Web API.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "zotero-ingest/0.1"). Per prd002-web-api R5.2.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LibraryConfig holds settings for reading a local Zotero data directory.
// Per prd001-local-library R1.2, R5.1-R5.3.
type LibraryConfig struct {
	// Path is the Zotero data directory (contains zotero.sqlite and
	// storage/), or a direct path to the SQLite database file.
	Path string `json:"path" yaml:"path"`

	// FulltextDir is an optional sidecar directory holding extracted
	// attachment text as <KEY>.txt files. It is consulted when the library
	// itself has no cached extraction for an attachment.
	FulltextDir string `json:"fulltext_dir,omitempty" yaml:"fulltext_dir,omitempty"`

	// AttachmentPatterns lists glob patterns (doublestar syntax) for
	// attachment filenames to read directly as text, in addition to
	// attachments with a text/* content type.
	AttachmentPatterns []string `json:"attachment_patterns,omitempty" yaml:"attachment_patterns,omitempty"`
}

// APIConfig holds settings for the Zotero Web API source.
// Per prd002-web-api R1.1-R1.4, R5.1-R5.4.
type APIConfig struct {
	HTTPConfig `yaml:",inline"`

	// UserID is the numeric Zotero user ID owning the library.
	UserID string `json:"user_id" yaml:"user_id"`

	// APIKey authenticates requests; sent as a Bearer token.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// PageSize is the number of items requested per page (default 25,
	// capped at 100 by the server).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxRetries is the retry budget for rate-limited requests (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SourceKind selects which loader backs a load run.
// Per prd003-export R1.1.
type SourceKind string

const (
	SourceLocal SourceKind = "local"
	SourceAPI   SourceKind = "api"
)

// LoadConfig holds settings for the load operation itself.
type LoadConfig struct {
	// Source selects the loader: local (SQLite store) or api (Web API).
	Source SourceKind `json:"source" yaml:"source"`

	// Collection restricts an API load to one collection key. The local
	// source ignores it.
	Collection string `json:"collection,omitempty" yaml:"collection,omitempty"`
}

// FulltextConfig holds settings for container-based attachment text
// extraction. Per prd004-fulltext R5.1-R5.2.
type FulltextConfig struct {
	// Image is the pdftotext container image.
	Image string `json:"image" yaml:"image"`

	// OutputDir is the sidecar directory extracted text is written to. It
	// lives outside the library path; the library itself is never written.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// Config groups all stage configurations for the CLI.
type Config struct {
	Library  LibraryConfig  `json:"library" yaml:"library"`
	API      APIConfig      `json:"api" yaml:"api"`
	Load     LoadConfig     `json:"load" yaml:"load"`
	Fulltext FulltextConfig `json:"fulltext" yaml:"fulltext"`
}
