package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const itemColumns = `i.id, i.type, i.title, i.content, i.url, i.file_path,
	i.favicon_path, i.excerpt, i.archived, i.favorite, i.created_at, i.updated_at`

// tagNamesExpr denormalizes an item's tag names as a comma-joined string,
// in link order so the result is deterministic per invocation.
const tagNamesExpr = `COALESCE((SELECT group_concat(name) FROM (
	SELECT t.name FROM item_tags it JOIN tags t ON t.id = it.tag_id
	WHERE it.item_id = i.id ORDER BY it.rowid)), '')`

// CreateItem inserts the item row, its url metadata (when meta is non-nil)
// and its tag links in one transaction. The FTS5 insert trigger runs inside
// the same transaction, so item and index commit as a single unit.
// The item's ID and timestamps are filled in on success.
func (s *Store) CreateItem(ctx context.Context, item *Item, meta *URLMetadata, tags []string) error {
	now := time.Now().UnixMilli()
	if item.CreatedAt == 0 {
		item.CreatedAt = now
	}
	if item.UpdatedAt == 0 {
		item.UpdatedAt = item.CreatedAt
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO items (type, title, content, url, file_path, favicon_path,
		excerpt, archived, favorite, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Type, item.Title, item.Content, item.URL, item.FilePath,
		item.FaviconPath, item.Excerpt, item.Archived, item.Favorite,
		item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	item.ID = id

	if meta != nil {
		meta.ItemID = id
		if err := insertURLMetadata(ctx, tx, meta); err != nil {
			return fmt.Errorf("insert url metadata: %w", err)
		}
	}

	linked, err := replaceItemTags(ctx, tx, id, tags)
	if err != nil {
		return fmt.Errorf("link tags: %w", err)
	}
	item.Tags = strings.Join(linked, ",")
	item.Metadata = meta

	return tx.Commit()
}

// GetItem returns the item with denormalized tag names and, for url items,
// the attached metadata row. Returns (nil, nil) when the id is unknown.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT `+itemColumns+`, `+tagNamesExpr+` FROM items i WHERE i.id = ?`, id)

	item, err := scanItem(row)
	if err != nil || item == nil {
		return item, err
	}
	if item.Type == "url" {
		meta, err := s.GetURLMetadata(ctx, id)
		if err != nil {
			return nil, err
		}
		item.Metadata = meta
	}
	return item, nil
}

// UpdateItem applies a partial update: only non-nil fields change, and
// updated_at is always refreshed. When upd.Tags is set, the full tag set is
// replaced in the same transaction. Returns (nil, nil) for unknown ids.
func (s *Store) UpdateItem(ctx context.Context, id int64, upd ItemUpdate) (*Item, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM items WHERE id = ?`, id).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check item: %w", err)
	}

	sets := []string{"updated_at = ?"}
	args := []any{time.Now().UnixMilli()}
	if upd.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *upd.Title)
	}
	if upd.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *upd.Content)
	}
	if upd.Excerpt != nil {
		sets = append(sets, "excerpt = ?")
		args = append(args, *upd.Excerpt)
	}
	if upd.Archived != nil {
		sets = append(sets, "archived = ?")
		args = append(args, *upd.Archived)
	}
	if upd.Favorite != nil {
		sets = append(sets, "favorite = ?")
		args = append(args, *upd.Favorite)
	}
	args = append(args, id)

	if _, err := tx.ExecContext(ctx,
		`UPDATE items SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}

	if upd.Tags != nil {
		if _, err := replaceItemTags(ctx, tx, id, *upd.Tags); err != nil {
			return nil, fmt.Errorf("replace tags: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetItem(ctx, id)
}

// DeleteItem removes the item row; tag links and url metadata cascade away
// and the FTS5 delete trigger drops the index entry, all in one unit.
// The removed item is returned so the caller can delete referenced blob
// files. Returns (nil, nil) for unknown ids.
func (s *Store) DeleteItem(ctx context.Context, id int64) (*Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("delete item: %w", err)
	}
	return item, nil
}

// CountItems returns the total number of items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Type, &it.Title, &it.Content, &it.URL,
		&it.FilePath, &it.FaviconPath, &it.Excerpt, &it.Archived, &it.Favorite,
		&it.CreatedAt, &it.UpdatedAt, &it.Tags)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan item: %w", err)
	}
	return &it, nil
}
