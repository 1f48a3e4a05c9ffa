// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package zotero

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pdiddy/zotero-ingest/pkg/types"
)

// itemListQuery enumerates loadable items in itemID order. Deleted items
// are excluded, as are annotations. Notes and attachments joined here carry
// their parent so child records can be folded into the parent item instead
// of loading on their own (R2.2-R2.4).
const itemListQuery = `
	SELECT i.itemID, i.key, it.typeName, i.dateAdded, i.dateModified,
	       n.parentItemID, a.parentItemID
	FROM items i
	JOIN itemTypes it ON it.itemTypeID = i.itemTypeID
	LEFT JOIN itemNotes n ON n.itemID = i.itemID
	LEFT JOIN itemAttachments a ON a.itemID = i.itemID
	LEFT JOIN deletedItems d ON d.itemID = i.itemID
	WHERE d.itemID IS NULL AND it.typeName != 'annotation'
	ORDER BY i.itemID`

const (
	fieldQuery = `
		SELECT f.fieldName, v.value
		FROM itemData d
		JOIN fields f ON f.fieldID = d.fieldID
		JOIN itemDataValues v ON v.valueID = d.valueID
		WHERE d.itemID = ?
		ORDER BY f.fieldName`

	creatorQuery = `
		SELECT c.firstName, c.lastName, c.fieldMode, ct.creatorType
		FROM itemCreators ic
		JOIN creators c ON c.creatorID = ic.creatorID
		JOIN creatorTypes ct ON ct.creatorTypeID = ic.creatorTypeID
		WHERE ic.itemID = ?
		ORDER BY ic.orderIndex`

	tagQuery = `
		SELECT t.name
		FROM itemTags it
		JOIN tags t ON t.tagID = it.tagID
		WHERE it.itemID = ?
		ORDER BY t.name`

	collectionQuery = `
		SELECT c.collectionName
		FROM collectionItems ci
		JOIN collections c ON c.collectionID = ci.collectionID
		WHERE ci.itemID = ?
		ORDER BY c.collectionName`

	childNoteQuery = `
		SELECT n.note
		FROM itemNotes n
		LEFT JOIN deletedItems d ON d.itemID = n.itemID
		WHERE n.parentItemID = ? AND d.itemID IS NULL
		ORDER BY n.itemID`

	ownNoteQuery = `SELECT note FROM itemNotes WHERE itemID = ?`

	childAttachmentQuery = `
		SELECT ai.key, a.contentType, a.path
		FROM itemAttachments a
		JOIN items ai ON ai.itemID = a.itemID
		LEFT JOIN deletedItems d ON d.itemID = a.itemID
		WHERE a.parentItemID = ? AND d.itemID IS NULL
		ORDER BY a.itemID`

	ownAttachmentQuery = `SELECT contentType, path FROM itemAttachments WHERE itemID = ?`
)

// itemRow is one row of itemListQuery before assembly.
type itemRow struct {
	id           int64
	key          string
	typeName     string
	dateAdded    string
	dateModified string
	noteParent   sql.NullInt64
	attachParent sql.NullInt64
}

// Items enumerates the library and returns fully assembled item records in
// itemID order. Child notes and attachments are folded into their parents;
// standalone notes and attachments come back as items of their own.
func (l *Library) Items(ctx context.Context) ([]types.Item, error) {
	rows, err := l.db.QueryContext(ctx, itemListQuery)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var list []itemRow
	for rows.Next() {
		var r itemRow
		if err := rows.Scan(&r.id, &r.key, &r.typeName, &r.dateAdded, &r.dateModified,
			&r.noteParent, &r.attachParent); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		// Child notes and attachments fold into their parent item.
		if r.typeName == "note" && r.noteParent.Valid {
			continue
		}
		if r.typeName == "attachment" && r.attachParent.Valid {
			continue
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	items := make([]types.Item, 0, len(list))
	for _, r := range list {
		item, err := l.assembleItem(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("reading item %s: %w", r.key, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// assembleItem fills in fields, creators, tags, collections, notes, and
// attachments for one enumerated row.
func (l *Library) assembleItem(ctx context.Context, r itemRow) (types.Item, error) {
	item := types.Item{
		Key:          r.key,
		Type:         r.typeName,
		DateAdded:    r.dateAdded,
		DateModified: r.dateModified,
	}

	fields, err := l.itemFields(ctx, r.id)
	if err != nil {
		return item, err
	}
	item.Fields = fields

	if item.Creators, err = l.itemCreators(ctx, r.id); err != nil {
		return item, err
	}
	if item.Tags, err = l.stringColumn(ctx, tagQuery, r.id); err != nil {
		return item, err
	}
	if item.Collections, err = l.stringColumn(ctx, collectionQuery, r.id); err != nil {
		return item, err
	}

	switch r.typeName {
	case "note":
		if err := l.fillOwnNote(ctx, r.id, &item); err != nil {
			return item, err
		}
	case "attachment":
		if err := l.fillOwnAttachment(ctx, r, &item); err != nil {
			return item, err
		}
	default:
		if err := l.fillChildren(ctx, r.id, &item); err != nil {
			return item, err
		}
	}

	return item, nil
}

func (l *Library) itemFields(ctx context.Context, id int64) (map[string]string, error) {
	rows, err := l.db.QueryContext(ctx, fieldQuery, id)
	if err != nil {
		return nil, fmt.Errorf("reading fields: %w", err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		fields[name] = value
	}
	return fields, rows.Err()
}

func (l *Library) itemCreators(ctx context.Context, id int64) ([]types.Creator, error) {
	rows, err := l.db.QueryContext(ctx, creatorQuery, id)
	if err != nil {
		return nil, fmt.Errorf("reading creators: %w", err)
	}
	defer rows.Close()

	var creators []types.Creator
	for rows.Next() {
		var first, last sql.NullString
		var fieldMode sql.NullInt64
		var role string
		if err := rows.Scan(&first, &last, &fieldMode, &role); err != nil {
			return nil, fmt.Errorf("scanning creator: %w", err)
		}
		c := types.Creator{Role: role}
		// fieldMode 1 marks a single-field name stored in lastName.
		if fieldMode.Valid && fieldMode.Int64 == 1 {
			c.Literal = last.String
		} else {
			c.Given = first.String
			c.Family = last.String
		}
		creators = append(creators, c)
	}
	return creators, rows.Err()
}

// stringColumn runs a single-column query and collects the values.
func (l *Library) stringColumn(ctx context.Context, query string, id int64) ([]string, error) {
	rows, err := l.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// fillOwnNote loads the body of a standalone note item. The display title
// is derived from the first line of text, the way Zotero titles notes.
func (l *Library) fillOwnNote(ctx context.Context, id int64, item *types.Item) error {
	var note sql.NullString
	err := l.db.QueryRowContext(ctx, ownNoteQuery, id).Scan(&note)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading note: %w", err)
	}

	text := noteText(note.String)
	if text != "" {
		item.Notes = []string{text}
	}
	if _, ok := item.Fields["title"]; !ok && text != "" {
		if item.Fields == nil {
			item.Fields = make(map[string]string, 1)
		}
		item.Fields["title"] = noteTitle(text)
	}
	return nil
}

// fillOwnAttachment loads the descriptor of a standalone attachment item.
func (l *Library) fillOwnAttachment(ctx context.Context, r itemRow, item *types.Item) error {
	var contentType, path sql.NullString
	err := l.db.QueryRowContext(ctx, ownAttachmentQuery, r.id).Scan(&contentType, &path)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading attachment: %w", err)
	}

	item.Attachments = []types.Attachment{{
		Key:         r.key,
		ContentType: contentType.String,
		Path:        l.resolveAttachmentPath(r.key, path.String),
	}}
	return nil
}

// fillChildren loads the child notes and attachments of a regular item.
func (l *Library) fillChildren(ctx context.Context, id int64, item *types.Item) error {
	noteRows, err := l.db.QueryContext(ctx, childNoteQuery, id)
	if err != nil {
		return fmt.Errorf("reading child notes: %w", err)
	}
	defer noteRows.Close()

	for noteRows.Next() {
		var note sql.NullString
		if err := noteRows.Scan(&note); err != nil {
			return fmt.Errorf("scanning child note: %w", err)
		}
		if text := noteText(note.String); text != "" {
			item.Notes = append(item.Notes, text)
		}
	}
	if err := noteRows.Err(); err != nil {
		return err
	}

	attRows, err := l.db.QueryContext(ctx, childAttachmentQuery, id)
	if err != nil {
		return fmt.Errorf("reading child attachments: %w", err)
	}
	defer attRows.Close()

	for attRows.Next() {
		var key string
		var contentType, path sql.NullString
		if err := attRows.Scan(&key, &contentType, &path); err != nil {
			return fmt.Errorf("scanning child attachment: %w", err)
		}
		item.Attachments = append(item.Attachments, types.Attachment{
			Key:         key,
			ContentType: contentType.String,
			Path:        l.resolveAttachmentPath(key, path.String),
		})
	}
	return attRows.Err()
}
