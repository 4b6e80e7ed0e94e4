package store

import (
	"context"
	"path/filepath"
	"testing"
)

func mustCreate(t *testing.T, s *Store, item *Item, meta *URLMetadata, tags []string) *Item {
	t.Helper()
	if err := s.CreateItem(context.Background(), item, meta, tags); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func TestCreateItem_RoundTrip(t *testing.T) {
	// WHAT: A created url item comes back with metadata, tags and timestamps.
	s := OpenMemory(t)
	ctx := context.Background()

	item := &Item{
		Type:    "url",
		Title:   "Go Concurrency Patterns",
		Content: "Pipelines and cancellation.",
		URL:     "https://go.dev/blog/pipelines",
		Excerpt: "Pipelines",
	}
	meta := &URLMetadata{Domain: "go.dev", Author: "Sameer Ajmani", WordCount: 2400, ReadingTimeMinutes: 12}
	mustCreate(t, s, item, meta, []string{"go", "concurrency"})

	if item.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if item.CreatedAt == 0 || item.UpdatedAt != item.CreatedAt {
		t.Errorf("timestamps: created=%d updated=%d", item.CreatedAt, item.UpdatedAt)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil {
		t.Fatal("expected item")
	}
	if got.Title != item.Title || got.URL != item.URL {
		t.Errorf("fields: %+v", got)
	}
	if got.Tags != "go,concurrency" {
		t.Errorf("tags = %q, want go,concurrency", got.Tags)
	}
	if got.Metadata == nil || got.Metadata.Domain != "go.dev" || got.Metadata.ReadingTimeMinutes != 12 {
		t.Errorf("metadata = %+v", got.Metadata)
	}
}

func TestGetItem_Unknown_ReturnsNil(t *testing.T) {
	s := OpenMemory(t)
	got, err := s.GetItem(context.Background(), 9999)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestCreateItem_InvalidType_Rejected(t *testing.T) {
	// WHAT: The CHECK constraint on items.type rejects unknown discriminators.
	s := OpenMemory(t)
	err := s.CreateItem(context.Background(), &Item{Type: "bookmark", Title: "x"}, nil, nil)
	if err == nil {
		t.Fatal("expected constraint error")
	}
}

func TestUpdateItem_PartialFields(t *testing.T) {
	// WHAT: Only supplied fields change; absent fields keep prior values.
	s := OpenMemory(t)
	ctx := context.Background()

	item := mustCreate(t, s, &Item{Type: "note", Title: "draft", Content: "original body"}, nil, nil)

	title := "final"
	fav := true
	got, err := s.UpdateItem(ctx, item.ID, ItemUpdate{Title: &title, Favorite: &fav})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if got.Title != "final" || !got.Favorite {
		t.Errorf("update not applied: %+v", got)
	}
	if got.Content != "original body" {
		t.Errorf("content should be untouched, got %q", got.Content)
	}
	if got.UpdatedAt < got.CreatedAt {
		t.Errorf("updated_at %d < created_at %d", got.UpdatedAt, got.CreatedAt)
	}
}

func TestUpdateItem_ReplaceTags(t *testing.T) {
	// WHAT: A non-nil Tags field replaces the full tag set; nil leaves it alone.
	s := OpenMemory(t)
	ctx := context.Background()

	item := mustCreate(t, s, &Item{Type: "note", Title: "n"}, nil, []string{"a", "b"})

	title := "n2"
	got, err := s.UpdateItem(ctx, item.ID, ItemUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if got.Tags != "a,b" {
		t.Errorf("tags should survive a title-only update, got %q", got.Tags)
	}

	newTags := []string{"c"}
	got, err = s.UpdateItem(ctx, item.ID, ItemUpdate{Tags: &newTags})
	if err != nil {
		t.Fatalf("UpdateItem tags: %v", err)
	}
	if got.Tags != "c" {
		t.Errorf("tags = %q, want c", got.Tags)
	}

	empty := []string{}
	got, err = s.UpdateItem(ctx, item.ID, ItemUpdate{Tags: &empty})
	if err != nil {
		t.Fatalf("UpdateItem clear tags: %v", err)
	}
	if got.Tags != "" {
		t.Errorf("tags should be cleared, got %q", got.Tags)
	}
}

func TestUpdateItem_Unknown_ReturnsNil(t *testing.T) {
	s := OpenMemory(t)
	title := "x"
	got, err := s.UpdateItem(context.Background(), 424242, ItemUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestDeleteItem_Cascades(t *testing.T) {
	// WHAT: Deleting an item removes its metadata and tag links but keeps
	// the tag rows themselves.
	s := OpenMemory(t)
	ctx := context.Background()

	item := mustCreate(t, s,
		&Item{Type: "url", Title: "t", URL: "https://example.com", FilePath: "favicons/x.png"},
		&URLMetadata{Domain: "example.com"},
		[]string{"keep-me"})

	deleted, err := s.DeleteItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if deleted == nil || deleted.FilePath != "favicons/x.png" {
		t.Fatalf("expected deleted item with file path, got %+v", deleted)
	}

	if got, _ := s.GetItem(ctx, item.ID); got != nil {
		t.Error("item should be gone")
	}
	if meta, _ := s.GetURLMetadata(ctx, item.ID); meta != nil {
		t.Error("metadata should cascade away")
	}
	tag, err := s.GetTagByName(ctx, "keep-me")
	if err != nil || tag == nil {
		t.Fatalf("tag row should survive: %v %v", tag, err)
	}
	if tag.ItemCount != 0 {
		t.Errorf("item count = %d, want 0", tag.ItemCount)
	}
}

func TestDeleteItem_CascadesAcrossPooledConnections(t *testing.T) {
	// WHAT: FK cascades hold when each statement lands on a fresh pooled
	// connection, not just the one that happened to run the pragmas.
	// WHY: With zero idle connections every query opens a new one; if
	// foreign_keys were enabled per-connection instead of in the DSN, the
	// delete would leave orphaned url_metadata and item_tags rows.
	s, err := Open(filepath.Join(t.TempDir(), "stash.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.DB.SetMaxIdleConns(0)
	ctx := context.Background()

	item := mustCreate(t, s,
		&Item{Type: "url", Title: "t", URL: "https://example.com"},
		&URLMetadata{Domain: "example.com"},
		[]string{"linked"})

	if _, err := s.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	var metaRows, linkRows int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM url_metadata WHERE item_id = ?`, item.ID).Scan(&metaRows); err != nil {
		t.Fatalf("count url_metadata: %v", err)
	}
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM item_tags WHERE item_id = ?`, item.ID).Scan(&linkRows); err != nil {
		t.Fatalf("count item_tags: %v", err)
	}
	if metaRows != 0 || linkRows != 0 {
		t.Errorf("orphaned rows after delete: url_metadata=%d item_tags=%d", metaRows, linkRows)
	}
}

func TestDeleteItem_Unknown_ReturnsNil(t *testing.T) {
	s := OpenMemory(t)
	got, err := s.DeleteItem(context.Background(), 77)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestCountItems(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		mustCreate(t, s, &Item{Type: "note", Title: "n"}, nil, nil)
	}
	n, err := s.CountItems(ctx)
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}
