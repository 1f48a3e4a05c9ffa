package ingest

import (
	"io"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
// Implements: prd003-export R2.5.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// cslTypes maps Zotero item types onto their CSL equivalents. Types not
// listed fall back to "document".
var cslTypes = map[string]string{
	"journalArticle":  "article-journal",
	"conferencePaper": "paper-conference",
	"preprint":        "article",
	"book":            "book",
	"bookSection":     "chapter",
	"thesis":          "thesis",
	"report":          "report",
	"manuscript":      "manuscript",
	"webpage":         "webpage",
}

// FormatCSL writes documents as a CSL-YAML list to w.
func FormatCSL(docs []types.Document, w io.Writer) error {
	items := make([]CSLItem, len(docs))
	for i, d := range docs {
		items[i] = toCSLItem(d)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a Document's metadata to a CSLItem.
func toCSLItem(d types.Document) CSLItem {
	item := CSLItem{
		ID:       d.Key,
		Type:     cslType(d.Metadata["item_type"]),
		Title:    d.Metadata["title"],
		Abstract: d.Metadata["abstractNote"],
		DOI:      d.Metadata["DOI"],
		URL:      d.Metadata["url"],
	}

	for _, name := range strings.Split(d.Metadata["creators"], "; ") {
		if cn := parseAuthorName(name); cn != (CSLName{}) {
			item.Author = append(item.Author, cn)
		}
	}

	if parts := dateParts(d.Metadata["date"]); len(parts) > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{parts}}
	}

	return item
}

func cslType(itemType string) string {
	if t, ok := cslTypes[itemType]; ok {
		return t
	}
	return "document"
}

// parseAuthorName splits a full name string into CSL family/given parts.
// It splits on the last space: everything before is given, the last token
// is family. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}

// dateParts extracts CSL date-parts from a freeform Zotero date string.
// ISO prefixes (2026-01-15, 2026-01, 2026) parse fully; anything else
// falls back to a leading four-digit year when one is present.
func dateParts(date string) []int {
	date = strings.TrimSpace(date)
	if t, err := time.Parse("2006-01-02", date); err == nil {
		return []int{t.Year(), int(t.Month()), t.Day()}
	}
	if t, err := time.Parse("2006-01", date); err == nil {
		return []int{t.Year(), int(t.Month())}
	}
	if len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil && year >= 1000 {
			return []int{year}
		}
	}
	return nil
}
