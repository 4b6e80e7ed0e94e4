package store

import (
	"context"
	"fmt"
)

// Snippet token windows, per FTS5 snippet(): roughly how many tokens of
// context surround the matched terms.
const (
	titleSnippetTokens   = 32
	contentSnippetTokens = 64
	snippetEllipsis      = "..."
)

// Search runs an FTS5 query over (title, content, excerpt), best match
// first (bm25 rank, id descending on ties). Each hit carries the full item,
// highlighted title and content snippets, and the item's tag names.
func (s *Store) Search(ctx context.Context, query string, page, limit int) (*SearchResults, error) {
	page, limit = normalizePage(page, limit)

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items_fts WHERE items_fts MATCH ?`, query).Scan(&total); err != nil {
		return nil, fmt.Errorf("count search: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+itemColumns+`, `+tagNamesExpr+`, items_fts.rank,
			snippet(items_fts, 0, ?, ?, ?, ?) AS title_snippet,
			snippet(items_fts, 1, ?, ?, ?, ?) AS content_snippet
		FROM items_fts
		JOIN items i ON i.id = items_fts.rowid
		WHERE items_fts MATCH ?
		ORDER BY items_fts.rank, i.id DESC
		LIMIT ? OFFSET ?`,
		s.markStart, s.markEnd, snippetEllipsis, titleSnippetTokens,
		s.markStart, s.markEnd, snippetEllipsis, contentSnippetTokens,
		query, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	results := []*SearchHit{}
	for rows.Next() {
		var h SearchHit
		err := rows.Scan(&h.ID, &h.Type, &h.Title, &h.Content, &h.URL,
			&h.FilePath, &h.FaviconPath, &h.Excerpt, &h.Archived, &h.Favorite,
			&h.CreatedAt, &h.UpdatedAt, &h.Tags,
			&h.Rank, &h.TitleSnippet, &h.ContentSnippet)
		if err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		results = append(results, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &SearchResults{
		Results:    results,
		Query:      query,
		Pagination: paginate(page, limit, total),
	}, nil
}
