package store

import (
	"context"
	"strings"
	"testing"
)

func TestSearch_HighlightsMatches(t *testing.T) {
	// WHAT: A match in the title comes back as a snippet with the default
	// <mark> highlight pair around the matched token.
	s := OpenMemory(t)
	ctx := context.Background()

	mustCreate(t, s, &Item{Type: "note", Title: "hello world", Content: "a greeting example"}, nil, nil)

	res, err := s.Search(ctx, "hello", 1, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 1 {
		t.Fatalf("results: %d", len(res.Results))
	}
	hit := res.Results[0]
	if !strings.Contains(hit.TitleSnippet, "<mark>hello</mark>") {
		t.Errorf("title snippet = %q", hit.TitleSnippet)
	}
	if res.Query != "hello" || res.Pagination.Total != 1 {
		t.Errorf("response envelope: query=%q pagination=%+v", res.Query, res.Pagination)
	}
}

func TestSearch_CustomMarkers(t *testing.T) {
	s := OpenMemory(t, WithHighlightMarkers("[", "]"))
	ctx := context.Background()

	mustCreate(t, s, &Item{Type: "note", Title: "custom markers"}, nil, nil)

	res, err := s.Search(ctx, "custom", 1, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 1 || !strings.Contains(res.Results[0].TitleSnippet, "[custom]") {
		t.Errorf("results: %+v", res.Results)
	}
}

func TestSearch_ContentAndExcerptIndexed(t *testing.T) {
	// WHAT: All three indexed columns (title, content, excerpt) are
	// searchable through one MATCH.
	s := OpenMemory(t)
	ctx := context.Background()

	mustCreate(t, s, &Item{Type: "note", Title: "plain", Content: "the zanzibar archipelago"}, nil, nil)
	mustCreate(t, s, &Item{Type: "note", Title: "plain two", Excerpt: "about quokkas"}, nil, nil)

	for query, want := range map[string]int{"zanzibar": 1, "quokkas": 1, "plain": 2} {
		res, err := s.Search(ctx, query, 1, 20)
		if err != nil {
			t.Fatalf("Search %q: %v", query, err)
		}
		if len(res.Results) != want {
			t.Errorf("query %q: %d results, want %d", query, len(res.Results), want)
		}
	}
}

func TestSearch_UpdateReindexes(t *testing.T) {
	// WHAT: Updating an item's text is reflected by the next search; the
	// index never serves the stale tokens.
	s := OpenMemory(t)
	ctx := context.Background()

	item := mustCreate(t, s, &Item{Type: "note", Title: "alpha draft"}, nil, nil)

	if res, _ := s.Search(ctx, "omega", 1, 20); len(res.Results) != 0 {
		t.Fatalf("premature match: %+v", res.Results)
	}

	title := "omega final"
	if _, err := s.UpdateItem(ctx, item.ID, ItemUpdate{Title: &title}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	res, err := s.Search(ctx, "omega", 1, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].ID != item.ID {
		t.Errorf("results after update: %+v", res.Results)
	}
	if res, _ := s.Search(ctx, "alpha", 1, 20); len(res.Results) != 0 {
		t.Errorf("stale tokens still indexed: %+v", res.Results)
	}
}

func TestSearch_DeleteRemovesFromIndex(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	item := mustCreate(t, s, &Item{Type: "note", Title: "ephemeral"}, nil, nil)
	if _, err := s.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	res, err := s.Search(ctx, "ephemeral", 1, 20)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 0 {
		t.Errorf("deleted item still indexed: %+v", res.Results)
	}
}

func TestSearch_Pagination(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		mustCreate(t, s, &Item{Type: "note", Title: "pagination fodder"}, nil, nil)
	}

	res, err := s.Search(ctx, "fodder", 2, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Results) != 10 {
		t.Errorf("page size: %d", len(res.Results))
	}
	if res.Pagination.Total != 25 || res.Pagination.Pages != 3 {
		t.Errorf("pagination %+v", res.Pagination)
	}
}
