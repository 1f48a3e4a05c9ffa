package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

// --- mock source ---

type fakeSource struct {
	name string
	docs []types.Document
	err  error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Load(_ context.Context, _ io.Writer) ([]types.Document, error) {
	return f.docs, f.err
}

func sampleDocs() []types.Document {
	return []types.Document{
		{
			Key:     "AAAA0001",
			Content: "Hello world",
			Metadata: map[string]string{
				"title":        "Test Paper",
				"item_type":    "journalArticle",
				"creators":     "Ada Lovelace; Analytical Society",
				"date":         "2026-01-15",
				"DOI":          "10.1000/demo",
				"abstractNote": "A fixture.",
			},
		},
		{
			Key:      "AAAA0002",
			Metadata: map[string]string{"title": "No Content", "item_type": "book"},
		},
	}
}

// --- Run ---

func TestRunReturnsDocuments(t *testing.T) {
	src := &fakeSource{name: "local", docs: sampleDocs()}
	var out bytes.Buffer

	docs, sum, err := Run(context.Background(), src, &out)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("len(docs) = %d, want 2", len(docs))
	}
	if sum.Source != "local" || sum.Loaded != 2 {
		t.Errorf("Summary = %+v, want {local 2}", sum)
	}
	if !strings.Contains(out.String(), "Loaded 2 document(s) from local source") {
		t.Errorf("output = %q, want load summary line", out.String())
	}
}

func TestRunEmptyLibrary(t *testing.T) {
	src := &fakeSource{name: "local"}
	docs, sum, err := Run(context.Background(), src, io.Discard)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("len(docs) = %d, want 0", len(docs))
	}
	if sum.Loaded != 0 {
		t.Errorf("Loaded = %d, want 0", sum.Loaded)
	}
}

func TestRunWrapsSourceError(t *testing.T) {
	src := &fakeSource{name: "api", err: fmt.Errorf("probing library: %w", types.ErrNotFound)}
	_, _, err := Run(context.Background(), src, io.Discard)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "loading from api source") {
		t.Errorf("error = %v, want source name in message", err)
	}
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("error = %v, want errors.Is ErrNotFound", err)
	}
}

// --- table output ---

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleDocs(), &buf)
	out := buf.String()

	if !strings.Contains(out, "AAAA0001") {
		t.Errorf("output missing key:\n%s", out)
	}
	if !strings.Contains(out, "Test Paper") {
		t.Errorf("output missing title:\n%s", out)
	}
	if !strings.Contains(out, "2 documents") {
		t.Errorf("output missing count:\n%s", out)
	}
}

func TestFormatTableTruncatesLongTitle(t *testing.T) {
	docs := []types.Document{{
		Key:      "AAAA0001",
		Metadata: map[string]string{"title": strings.Repeat("long ", 20)},
	}}
	var buf bytes.Buffer
	FormatTable(docs, &buf)

	if !strings.Contains(buf.String(), "...") {
		t.Errorf("long title not truncated:\n%s", buf.String())
	}
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	if !strings.Contains(buf.String(), "No documents loaded.") {
		t.Errorf("output = %q", buf.String())
	}
}

// --- structured output ---

func TestFormatJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON(sampleDocs(), &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	var got []types.Document
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Key != "AAAA0001" || got[0].Content != "Hello world" {
		t.Errorf("round trip = %+v", got)
	}
	if got[1].Metadata["title"] != "No Content" {
		t.Errorf(`got[1] title = %q`, got[1].Metadata["title"])
	}
}

func TestFormatYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatYAML(sampleDocs(), &buf); err != nil {
		t.Fatalf("FormatYAML: %v", err)
	}

	var got []types.Document
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 || got[0].Metadata["creators"] != "Ada Lovelace; Analytical Society" {
		t.Errorf("round trip = %+v", got)
	}
}

// --- file output ---

func TestWriteFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "out", "library.json")
	if err := WriteFile(sampleDocs(), dest, FormatJSON); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	var got []types.Document
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(got) = %d, want 2", len(got))
	}
}

func TestWriteFileCleansUpOnRenderFailure(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "library.json")
	failing := func([]types.Document, io.Writer) error {
		return fmt.Errorf("render exploded")
	}

	if err := WriteFile(sampleDocs(), dest, failing); err == nil {
		t.Fatal("expected error from failing render")
	}
	if _, err := os.Stat(dest); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("destination exists after failed render")
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

// --- CSL output ---

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatCSL(sampleDocs(), &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}

	var items []CSLItem
	if err := yaml.Unmarshal(buf.Bytes(), &items); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}

	it := items[0]
	if it.ID != "AAAA0001" {
		t.Errorf("ID = %q", it.ID)
	}
	if it.Type != "article-journal" {
		t.Errorf("Type = %q, want article-journal", it.Type)
	}
	if it.DOI != "10.1000/demo" {
		t.Errorf("DOI = %q", it.DOI)
	}
	if len(it.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(it.Author))
	}
	if it.Author[0].Given != "Ada" || it.Author[0].Family != "Lovelace" {
		t.Errorf("Author[0] = %+v", it.Author[0])
	}
	if it.Issued == nil || len(it.Issued.DateParts) != 1 {
		t.Fatalf("Issued = %+v", it.Issued)
	}
	if got := it.Issued.DateParts[0]; got[0] != 2026 || got[1] != 1 || got[2] != 15 {
		t.Errorf("DateParts = %v, want [2026 1 15]", got)
	}

	if items[1].Type != "book" {
		t.Errorf("items[1].Type = %q, want book", items[1].Type)
	}
	if len(items[1].Author) != 0 {
		t.Errorf("items[1].Author = %+v, want empty", items[1].Author)
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		input string
		want  CSLName
	}{
		{"Ada Lovelace", CSLName{Given: "Ada", Family: "Lovelace"}},
		{"Jean-Luc van der Berg", CSLName{Given: "Jean-Luc van der", Family: "Berg"}},
		{"Aristotle", CSLName{Literal: "Aristotle"}},
		{"  ", CSLName{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseAuthorName(tt.input); got != tt.want {
				t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDateParts(t *testing.T) {
	tests := []struct {
		input string
		want  []int
	}{
		{"2026-01-15", []int{2026, 1, 15}},
		{"2026-01", []int{2026, 1}},
		{"2026", []int{2026}},
		{"1987", []int{1987}},
		{"circa 1900", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := dateParts(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("dateParts(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("dateParts(%q) = %v, want %v", tt.input, got, tt.want)
				}
			}
		})
	}
}

func TestCSLTypeFallback(t *testing.T) {
	if got := cslType("podcast"); got != "document" {
		t.Errorf("cslType(podcast) = %q, want document", got)
	}
	if got := cslType("conferencePaper"); got != "paper-conference" {
		t.Errorf("cslType(conferencePaper) = %q", got)
	}
}
