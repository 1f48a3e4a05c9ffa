// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webapi reads a Zotero library through the Zotero Web API v3.
// It is the remote counterpart of the local SQLite loader: read-only GET
// access, one Document per item.
// Implements: prd002-web-api (R1-R5);
//
//	docs/ARCHITECTURE § Web API.
package webapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/zotero-ingest/internal/httputil"
	"github.com/pdiddy/zotero-ingest/pkg/types"
)

// zoteroAPIBase is the Zotero API root. Declared as a var so tests can
// substitute an httptest server.
var zoteroAPIBase = "https://api.zotero.org"

// apiVersion pins the wire contract via the Zotero-API-Version header.
const apiVersion = "3"

// Client reads one user's library through the Web API (R1.1). It performs
// only GET requests; the remote library is never modified.
//
// TODO: support group libraries (/groups/{id} prefix alongside /users/{id}).
type Client struct {
	// HTTP is the underlying HTTP client.
	HTTP *http.Client

	// Config carries credentials, paging, and retry settings.
	Config types.APIConfig

	// Collection, when set, restricts loads to one collection key.
	Collection string
}

// Name identifies this source to the ingestion layer.
func (c *Client) Name() string { return "api" }

// Load fetches every item in the library (or the configured collection) and
// returns one Document per item in server order, fully materialized. Items
// carrying an attachment link get their content from the attachment's
// fulltext endpoint; items without one load as empty-content Documents. An
// item whose fulltext fetch fails is skipped with a warning on w (R4.4).
func (c *Client) Load(ctx context.Context, w io.Writer) ([]types.Document, error) {
	items, err := c.items(ctx, "")
	if err != nil {
		return nil, err
	}
	return c.documents(ctx, items, w), nil
}

// Search runs a server-side item search (the q parameter matches titles and
// creators) and returns the matching items as Documents.
func (c *Client) Search(ctx context.Context, query string, w io.Writer) ([]types.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	items, err := c.items(ctx, query)
	if err != nil {
		return nil, err
	}
	return c.documents(ctx, items, w), nil
}

// items pages through the item listing, following Link rel="next" headers
// until the last page (R2.2).
func (c *Client) items(ctx context.Context, query string) ([]apiItem, error) {
	start, err := c.startURL(query)
	if err != nil {
		return nil, err
	}

	var items []apiItem
	for next := start; next != ""; {
		page, nextURL, err := c.fetchPage(ctx, next)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)
		next = nextURL
	}
	return items, nil
}

// startURL builds the first page URL for the configured library scope.
func (c *Client) startURL(query string) (string, error) {
	if c.Config.UserID == "" {
		return "", fmt.Errorf("Zotero user ID required (set api.user_id or ZOTERO_USER_ID)")
	}

	path := fmt.Sprintf("%s/users/%s/items", zoteroAPIBase, c.Config.UserID)
	if c.Collection != "" {
		path = fmt.Sprintf("%s/users/%s/collections/%s/items",
			zoteroAPIBase, c.Config.UserID, c.Collection)
	}

	params := url.Values{}
	if c.Config.PageSize > 0 {
		params.Set("limit", strconv.Itoa(c.Config.PageSize))
	}
	if query != "" {
		params.Set("q", query)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return path, nil
}

// fetchPage retrieves one page of items and the URL of the next page, if
// the server advertises one.
func (c *Client) fetchPage(ctx context.Context, pageURL string) ([]apiItem, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return nil, "", fmt.Errorf("Zotero API request: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, "", err
	}

	var items []apiItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, "", fmt.Errorf("parsing Zotero response: %w", err)
	}
	return items, parseLinkNext(resp.Header.Get("Link")), nil
}

// Fulltext fetches the server-side text extraction for an attachment by its
// API href. A 404 means no extraction exists and is not an error.
func (c *Client) Fulltext(ctx context.Context, attachmentHref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachmentHref+"/fulltext", nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req)

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Config.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("fulltext request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var ft struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ft); err != nil {
		return "", fmt.Errorf("parsing fulltext response: %w", err)
	}
	return ft.Content, nil
}

// documents converts fetched items, pulling attachment fulltext for the
// ones that link an attachment.
func (c *Client) documents(ctx context.Context, items []apiItem, w io.Writer) []types.Document {
	docs := make([]types.Document, 0, len(items))
	for _, it := range items {
		doc := documentFromItem(it)
		if href := it.Links.Attachment.Href; href != "" {
			text, err := c.Fulltext(ctx, href)
			if err != nil {
				fmt.Fprintf(w, "warning: skipping %v\n", &types.ItemError{Key: it.Key, Err: err})
				continue
			}
			doc.Content = text
		}
		docs = append(docs, doc)
	}
	return docs
}

func (c *Client) setHeaders(req *http.Request) {
	if c.Config.UserAgent != "" {
		req.Header.Set("User-Agent", c.Config.UserAgent)
	}
	if c.Config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.Config.APIKey)
	}
	req.Header.Set("Zotero-API-Version", apiVersion)
}

// checkStatus maps HTTP failures onto the load error taxonomy: auth
// failures wrap types.ErrPermission, an unknown user or collection wraps
// types.ErrNotFound (R4.1-R4.3).
func checkStatus(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("Zotero API returned HTTP %d: %w", resp.StatusCode, types.ErrPermission)
	case http.StatusNotFound:
		return fmt.Errorf("Zotero API returned HTTP %d: %w", resp.StatusCode, types.ErrNotFound)
	default:
		return fmt.Errorf("Zotero API returned HTTP %d", resp.StatusCode)
	}
}

// parseLinkNext extracts the rel="next" target from a Link header of the
// form `<url>; rel="first", <url>; rel="next", ...`.
func parseLinkNext(header string) string {
	for _, part := range strings.Split(header, ",") {
		fields := strings.Split(part, ";")
		if len(fields) < 2 {
			continue
		}
		target := strings.TrimSpace(fields[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, attr := range fields[1:] {
			if strings.TrimSpace(attr) == `rel="next"` {
				return strings.Trim(target, "<>")
			}
		}
	}
	return ""
}

// documentFromItem maps an API item onto a Document with the same metadata
// keys the local loader produces.
func documentFromItem(it apiItem) types.Document {
	meta := make(map[string]string, 10)
	set := func(key, value string) {
		if value != "" {
			meta[key] = value
		}
	}
	set("title", it.Data.Title)
	set("abstractNote", it.Data.AbstractNote)
	set("date", it.Data.Date)
	set("DOI", it.Data.DOI)
	set("url", it.Data.URL)
	set("item_type", it.Data.ItemType)
	set("date_added", it.Data.DateAdded)
	set("date_modified", it.Data.DateModified)
	set("creators", creatorNames(it.Data.Creators))
	set("tags", tagNames(it.Data.Tags))

	return types.Document{Key: it.Key, Metadata: meta}
}

func creatorNames(creators []apiCreator) string {
	names := make([]string, 0, len(creators))
	for _, cr := range creators {
		c := types.Creator{Given: cr.FirstName, Family: cr.LastName, Literal: cr.Name}
		if name := c.Name(); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, "; ")
}

func tagNames(tags []apiTag) string {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Tag != "" {
			names = append(names, t.Tag)
		}
	}
	return strings.Join(names, "; ")
}

// Zotero API JSON structures.
type apiItem struct {
	Key     string      `json:"key"`
	Version int         `json:"version"`
	Links   apiLinks    `json:"links"`
	Data    apiItemData `json:"data"`
}

type apiLinks struct {
	Self       apiLink `json:"self"`
	Attachment apiLink `json:"attachment"`
}

type apiLink struct {
	Href string `json:"href"`
	Type string `json:"type"`
}

type apiItemData struct {
	Key          string       `json:"key"`
	ItemType     string       `json:"itemType"`
	Title        string       `json:"title"`
	AbstractNote string       `json:"abstractNote"`
	Date         string       `json:"date"`
	DOI          string       `json:"DOI"`
	URL          string       `json:"url"`
	DateAdded    string       `json:"dateAdded"`
	DateModified string       `json:"dateModified"`
	Creators     []apiCreator `json:"creators"`
	Tags         []apiTag     `json:"tags"`
}

type apiCreator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"`
}

type apiTag struct {
	Tag string `json:"tag"`
}
