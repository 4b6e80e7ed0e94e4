package store

import "database/sql"

// SchemaVersion is recorded in schema_version at first initialization.
// Future schema changes must be additive and bump this marker.
const SchemaVersion = 1

// Schema is the complete stash schema: items with a synchronized FTS5
// index, tags, item_tags, url_metadata, and the version marker.
const Schema = `
CREATE TABLE IF NOT EXISTS items (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    type         TEXT NOT NULL CHECK(type IN ('url', 'note', 'pdf', 'image', 'screenshot')),
    title        TEXT NOT NULL,
    content      TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    file_path    TEXT NOT NULL DEFAULT '',
    favicon_path TEXT NOT NULL DEFAULT '',
    excerpt      TEXT NOT NULL DEFAULT '',
    archived     INTEGER NOT NULL DEFAULT 0,
    favorite     INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL,
    updated_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_type ON items(type);
CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_items_archived ON items(archived);
CREATE INDEX IF NOT EXISTS idx_items_favorite ON items(favorite);

-- FTS5 shadow of (title, content, excerpt), keyed by item id.
CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
    title, content, excerpt, content='items', content_rowid='id'
);

-- Triggers keep the index in lockstep with item writes: both sides of
-- every mutation commit in the same transaction.
CREATE TRIGGER IF NOT EXISTS items_ai AFTER INSERT ON items BEGIN
    INSERT INTO items_fts(rowid, title, content, excerpt)
    VALUES (new.id, new.title, new.content, new.excerpt);
END;
CREATE TRIGGER IF NOT EXISTS items_ad AFTER DELETE ON items BEGIN
    INSERT INTO items_fts(items_fts, rowid, title, content, excerpt)
    VALUES ('delete', old.id, old.title, old.content, old.excerpt);
END;
CREATE TRIGGER IF NOT EXISTS items_au AFTER UPDATE ON items BEGIN
    INSERT INTO items_fts(items_fts, rowid, title, content, excerpt)
    VALUES ('delete', old.id, old.title, old.content, old.excerpt);
    INSERT INTO items_fts(rowid, title, content, excerpt)
    VALUES (new.id, new.title, new.content, new.excerpt);
END;

CREATE TABLE IF NOT EXISTS tags (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    color      TEXT NOT NULL DEFAULT '#666666',
    created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tags_name ON tags(name);

CREATE TABLE IF NOT EXISTS item_tags (
    item_id INTEGER NOT NULL REFERENCES items(id) ON DELETE CASCADE,
    tag_id  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (item_id, tag_id)
);

CREATE TABLE IF NOT EXISTS url_metadata (
    item_id              INTEGER PRIMARY KEY REFERENCES items(id) ON DELETE CASCADE,
    domain               TEXT NOT NULL DEFAULT '',
    author               TEXT NOT NULL DEFAULT '',
    published_date       TEXT NOT NULL DEFAULT '',
    word_count           INTEGER NOT NULL DEFAULT 0,
    reading_time_minutes INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_url_metadata_domain ON url_metadata(domain);

CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

// ApplySchema creates all tables, indexes and triggers, and records the
// schema version on first initialization.
func ApplySchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return err
	}
	var v int
	err := db.QueryRow(`SELECT version FROM schema_version WHERE version = ?`, SchemaVersion).Scan(&v)
	if err == sql.ErrNoRows {
		_, err = db.Exec(`INSERT INTO schema_version (version, applied_at) VALUES (?, unixepoch() * 1000)`, SchemaVersion)
	}
	return err
}
