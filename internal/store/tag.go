package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// DefaultTagColor is the display hint assigned to lazily created tags.
const DefaultTagColor = "#666666"

// querier is satisfied by *sql.DB and *sql.Tx so tag resolution can run
// standalone or inside an item-mutation transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ResolveTag looks up a tag by trimmed, case-sensitive name, creating it
// with the default color when absent. Concurrent creations of the same new
// name are resolved by the UNIQUE constraint: the loser re-reads the row
// the winner inserted.
func (s *Store) ResolveTag(ctx context.Context, name string) (*Tag, error) {
	id, err := resolveTag(ctx, s.DB, name)
	if err != nil {
		return nil, err
	}
	return s.GetTag(ctx, id)
}

func resolveTag(ctx context.Context, q querier, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("empty tag name")
	}

	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup tag: %w", err)
	}

	res, insertErr := q.ExecContext(ctx,
		`INSERT INTO tags (name, color, created_at) VALUES (?, ?, ?)`,
		name, DefaultTagColor, time.Now().UnixMilli())
	if insertErr != nil {
		// Lost the get-or-create race: the unique constraint rejected our
		// insert, so the row must exist now.
		if err := q.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&id); err == nil {
			return id, nil
		}
		return 0, fmt.Errorf("create tag: %w", insertErr)
	}
	return res.LastInsertId()
}

// LinkTag associates a tag with an item. Linking an already-linked pair is
// a silent no-op.
func (s *Store) LinkTag(ctx context.Context, itemID, tagID int64) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)`, itemID, tagID)
	return err
}

// replaceItemTags drops all of an item's tag links, then resolves and links
// each supplied name, skipping blanks. Returns the linked names in order.
func replaceItemTags(ctx context.Context, q querier, itemID int64, names []string) ([]string, error) {
	if _, err := q.ExecContext(ctx, `DELETE FROM item_tags WHERE item_id = ?`, itemID); err != nil {
		return nil, fmt.Errorf("clear tags: %w", err)
	}
	var linked []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tagID, err := resolveTag(ctx, q, name)
		if err != nil {
			return nil, err
		}
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO item_tags (item_id, tag_id) VALUES (?, ?)`, itemID, tagID); err != nil {
			return nil, fmt.Errorf("link tag: %w", err)
		}
		linked = append(linked, name)
	}
	return linked, nil
}

// ReplaceItemTags replaces an item's full tag set in one transaction. This
// is the only supported tag-update operation; partial edits are not.
func (s *Store) ReplaceItemTags(ctx context.Context, itemID int64, names []string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := replaceItemTags(ctx, tx, itemID, names); err != nil {
		return err
	}
	return tx.Commit()
}

// GetTag returns a tag by id, with its linked-item count. (nil, nil) when absent.
func (s *Store) GetTag(ctx context.Context, id int64) (*Tag, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT t.id, t.name, t.color, t.created_at, COUNT(it.item_id)
		FROM tags t LEFT JOIN item_tags it ON t.id = it.tag_id
		WHERE t.id = ? GROUP BY t.id`, id)
	return scanTag(row)
}

// GetTagByName returns a tag by exact name. (nil, nil) when absent.
func (s *Store) GetTagByName(ctx context.Context, name string) (*Tag, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT t.id, t.name, t.color, t.created_at, COUNT(it.item_id)
		FROM tags t LEFT JOIN item_tags it ON t.id = it.tag_id
		WHERE t.name = ? GROUP BY t.id`, name)
	return scanTag(row)
}

// ListTags returns all tags ordered by name, each with its item count.
func (s *Store) ListTags(ctx context.Context) ([]*Tag, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT t.id, t.name, t.color, t.created_at, COUNT(it.item_id)
		FROM tags t LEFT JOIN item_tags it ON t.id = it.tag_id
		GROUP BY t.id ORDER BY t.name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	tags := []*Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.ItemCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	return tags, rows.Err()
}

// CreateTag inserts a tag with an explicit color. The name must not exist.
func (s *Store) CreateTag(ctx context.Context, name, color string) (*Tag, error) {
	name = strings.TrimSpace(name)
	if color == "" {
		color = DefaultTagColor
	}
	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO tags (name, color, created_at) VALUES (?, ?, ?)`,
		name, color, time.Now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetTag(ctx, id)
}

// UpdateTag changes a tag's name and/or color. (nil, nil) when absent.
func (s *Store) UpdateTag(ctx context.Context, id int64, name, color *string) (*Tag, error) {
	sets := []string{}
	args := []any{}
	if name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*name))
	}
	if color != nil {
		sets = append(sets, "color = ?")
		args = append(args, *color)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := s.DB.ExecContext(ctx,
			`UPDATE tags SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return nil, fmt.Errorf("update tag: %w", err)
		}
	}
	return s.GetTag(ctx, id)
}

// DeleteTag removes a tag; item links cascade away, items stay intact.
// Reports whether a row was deleted.
func (s *Store) DeleteTag(ctx context.Context, id int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete tag: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func scanTag(row rowScanner) (*Tag, error) {
	var t Tag
	err := row.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt, &t.ItemCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	return &t, nil
}
