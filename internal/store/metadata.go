package store

import (
	"context"
	"database/sql"
	"fmt"
)

// insertURLMetadata writes the 1:1 metadata row for a url item. Called once,
// inside the item-creation transaction, and never updated afterwards.
func insertURLMetadata(ctx context.Context, q querier, m *URLMetadata) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO url_metadata (item_id, domain, author, published_date,
		word_count, reading_time_minutes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ItemID, m.Domain, m.Author, m.PublishedDate, m.WordCount, m.ReadingTimeMinutes)
	return err
}

// GetURLMetadata returns the metadata row for a url item, or (nil, nil)
// when extraction never produced one.
func (s *Store) GetURLMetadata(ctx context.Context, itemID int64) (*URLMetadata, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT item_id, domain, author, published_date, word_count, reading_time_minutes
		FROM url_metadata WHERE item_id = ?`, itemID)

	var m URLMetadata
	err := row.Scan(&m.ItemID, &m.Domain, &m.Author, &m.PublishedDate,
		&m.WordCount, &m.ReadingTimeMinutes)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan url metadata: %w", err)
	}
	return &m, nil
}
