package store

import (
	"context"
	"fmt"
	"strings"
)

// ListFilter holds the optional listing criteria. All set filters are
// conjunctive; zero values impose no constraint (except Archived, which
// always filters — the default view is the unarchived list).
type ListFilter struct {
	Archived bool
	Favorite *bool
	Type     string
	TagID    int64
}

// whereClause folds the active criteria into one WHERE clause plus its
// parameter bindings. The same clause feeds both the page query and the
// count query so the two can never disagree.
func (f ListFilter) whereClause() (string, []any) {
	clauses := []string{"i.archived = ?"}
	args := []any{f.Archived}

	if f.Favorite != nil {
		clauses = append(clauses, "i.favorite = ?")
		args = append(args, *f.Favorite)
	}
	if f.Type != "" {
		clauses = append(clauses, "i.type = ?")
		args = append(args, f.Type)
	}
	if f.TagID > 0 {
		clauses = append(clauses, "i.id IN (SELECT item_id FROM item_tags WHERE tag_id = ?)")
		args = append(args, f.TagID)
	}
	return strings.Join(clauses, " AND "), args
}

// ListItems returns one page of items matching the filter, newest first
// (created_at descending, id descending on timestamp ties), each with its
// denormalized tag names.
func (s *Store) ListItems(ctx context.Context, f ListFilter, page, limit int) (*ItemList, error) {
	page, limit = normalizePage(page, limit)
	where, args := f.whereClause()

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items i WHERE `+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+itemColumns+`, `+tagNamesExpr+`
		FROM items i WHERE `+where+`
		ORDER BY i.created_at DESC, i.id DESC
		LIMIT ? OFFSET ?`,
		append(args, limit, (page-1)*limit)...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []*Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ItemList{
		Items:      items,
		Pagination: paginate(page, limit, total),
	}, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return page, limit
}

func paginate(page, limit, total int) Pagination {
	return Pagination{
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: (total + limit - 1) / limit,
	}
}
