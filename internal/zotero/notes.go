// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags are elements that break text onto a new line when stripping
// note HTML.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true,
}

// noteText strips a Zotero note's HTML down to plain text. Block elements
// become line breaks, entities are decoded, and runs of whitespace collapse.
// Script and style content is dropped.
func noteText(fragment string) string {
	if fragment == "" {
		return ""
	}

	tok := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := ""

	for {
		switch tok.Next() {
		case html.ErrorToken:
			return collapseWhitespace(b.String())
		case html.StartTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip = tag
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if tag == skip {
				skip = ""
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := tok.TagName()
			if blockTags[string(name)] {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skip == "" {
				b.Write(tok.Text())
			}
		}
	}
}

// collapseWhitespace trims each line and drops empty ones, so stripped HTML
// reads as compact paragraphs.
func collapseWhitespace(s string) string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// noteTitleLimit caps derived note titles, the way Zotero truncates them.
const noteTitleLimit = 80

// noteTitle derives a display title from stripped note text: the first
// line, capped at noteTitleLimit runes.
func noteTitle(text string) string {
	line := text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	runes := []rune(line)
	if len(runes) > noteTitleLimit {
		line = string(runes[:noteTitleLimit])
	}
	return line
}
