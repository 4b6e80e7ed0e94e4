package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/nmoreau/stash/internal/fetch"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	return u
}

func serveHTML(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestExtractor() *Extractor {
	return New(fetch.New(fetch.Config{}), nil)
}

func TestPageTitle_FallbackChain(t *testing.T) {
	// WHAT: Title resolution prefers og:title, then twitter:title, then
	// <title>, then <h1>, then the hostname.
	u := mustURL(t, "https://blog.example.net/post")

	cases := []struct {
		name string
		html string
		want string
	}{
		{"og wins", `<head><meta property="og:title" content="OG"><title>T</title></head><h1>H</h1>`, "OG"},
		{"twitter next", `<head><meta name="twitter:title" content="TW"><title>T</title></head>`, "TW"},
		{"title tag", `<head><title>Plain Title</title></head><h1>H</h1>`, "Plain Title"},
		{"h1 fallback", `<body><h1>Heading Only</h1></body>`, "Heading Only"},
		{"hostname last", `<body><p>nothing titled</p></body>`, "blog.example.net"},
	}
	for _, tc := range cases {
		doc := parseDoc(t, tc.html)
		if got := pageTitle(doc, u); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestPageExcerpt_FallbackChain(t *testing.T) {
	cases := []struct {
		name string
		html string
		want string
	}{
		{"og description", `<head><meta property="og:description" content="OG desc"><meta name="description" content="std"></head>`, "OG desc"},
		{"meta description", `<head><meta name="description" content="std desc"></head>`, "std desc"},
		{"first paragraph", `<article><p>Lead paragraph.</p></article>`, "Lead paragraph."},
	}
	for _, tc := range cases {
		doc := parseDoc(t, tc.html)
		if got := pageExcerpt(doc); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestPageExcerpt_TruncatesLongParagraph(t *testing.T) {
	long := strings.Repeat("words and more ", 40) // > 300 chars
	doc := parseDoc(t, "<p>"+long+"</p>")
	got := pageExcerpt(doc)
	if len(got) == 0 || len(got) > 300 {
		t.Errorf("excerpt length = %d, want 1..300", len(got))
	}
}

func TestPageAuthorAndDate(t *testing.T) {
	doc := parseDoc(t, `<head>
		<meta name="author" content="Jo Writer">
		<meta property="article:published_time" content="2024-03-01T10:00:00Z">
	</head>`)
	if got := pageAuthor(doc); got != "Jo Writer" {
		t.Errorf("author = %q", got)
	}
	if got := pagePublishedDate(doc); got != "2024-03-01T10:00:00Z" {
		t.Errorf("date = %q", got)
	}
}

func TestFaviconURL(t *testing.T) {
	u := mustURL(t, "https://example.com/articles/1")

	doc := parseDoc(t, `<head><link rel="icon" href="/static/fav.png"></head>`)
	if got := faviconURL(doc, u); got != "https://example.com/static/fav.png" {
		t.Errorf("explicit icon = %q", got)
	}

	doc = parseDoc(t, `<head></head>`)
	if got := faviconURL(doc, u); got != "https://example.com/favicon.ico" {
		t.Errorf("default icon = %q", got)
	}
}

func TestExtractURL_FullPage(t *testing.T) {
	// WHAT: A realistic page yields title, excerpt, domain, readable content
	// and a word-count-derived reading time.
	body := `<!DOCTYPE html><html><head>
		<title>Reading Go Code</title>
		<meta name="description" content="How to read Go code well.">
		<meta name="author" content="A. Gopher">
	</head><body>
		<nav><a href="/">home</a><a href="/about">about</a></nav>
		<article>
			<h1>Reading Go Code</h1>
			<p>` + strings.Repeat("Reading unfamiliar code is a skill worth deliberate practice. ", 20) + `</p>
			<p>` + strings.Repeat("Start from the entry points and follow the data. ", 20) + `</p>
		</article>
		<footer>copyright</footer>
	</body></html>`
	srv := serveHTML(t, body)

	meta, err := newTestExtractor().ExtractURL(context.Background(), srv.URL+"/post")
	if err != nil {
		t.Fatalf("ExtractURL: %v", err)
	}
	if meta.Title != "Reading Go Code" {
		t.Errorf("title = %q", meta.Title)
	}
	if meta.Excerpt != "How to read Go code well." {
		t.Errorf("excerpt = %q", meta.Excerpt)
	}
	if meta.Author != "A. Gopher" {
		t.Errorf("author = %q", meta.Author)
	}
	if !strings.Contains(meta.Content, "deliberate practice") {
		t.Errorf("content missing article text: %q", meta.Content)
	}
	if strings.Contains(meta.Content, "copyright") {
		t.Errorf("boilerplate leaked into content: %q", meta.Content)
	}
	if meta.WordCount == 0 {
		t.Error("word count should be positive")
	}
	wantMinutes := (meta.WordCount + 199) / 200
	if meta.ReadingTimeMinutes != wantMinutes {
		t.Errorf("reading time = %d, want %d", meta.ReadingTimeMinutes, wantMinutes)
	}
	if meta.FaviconURL == "" {
		t.Error("favicon url should fall back to /favicon.ico")
	}
}

func TestExtractURL_InvalidURL(t *testing.T) {
	if _, err := newTestExtractor().ExtractURL(context.Background(), "not a url"); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtractURL_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	if _, err := newTestExtractor().ExtractURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFetchFavicon_NameFromDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("icon-bytes"))
	}))
	t.Cleanup(srv.Close)

	data, name, err := newTestExtractor().FetchFavicon(context.Background(), srv.URL+"/fav.png", "blog.example.net")
	if err != nil {
		t.Fatalf("FetchFavicon: %v", err)
	}
	if string(data) != "icon-bytes" {
		t.Errorf("data = %q", data)
	}
	if name != "blog_example_net.png" {
		t.Errorf("name = %q", name)
	}
}

func TestCountWords(t *testing.T) {
	if n := countWords("  one  two\nthree "); n != 3 {
		t.Errorf("countWords = %d, want 3", n)
	}
}
