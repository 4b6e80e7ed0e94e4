// Package extract turns a URL into normalized content: title, excerpt,
// author, published date, readable main-content text, word count, reading
// time, and a favicon location.
//
// Every fallback step is allowed to fail individually; callers decide
// whether the surviving fields are enough (title is the only load-bearing
// one for item creation).
package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/nmoreau/stash/internal/fetch"
)

// Metadata is the normalized result of extracting a URL.
type Metadata struct {
	Title              string
	Excerpt            string
	Author             string
	PublishedDate      string
	Domain             string
	Content            string
	WordCount          int
	ReadingTimeMinutes int
	FaviconURL         string
}

// Extractor fetches pages and favicons and runs the extraction chains.
type Extractor struct {
	fetcher  *fetch.Fetcher
	logger   *slog.Logger
	sanitize *bluemonday.Policy
	md       *converter.Converter
}

// New creates an Extractor.
func New(f *fetch.Fetcher, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		fetcher:  f,
		logger:   logger,
		sanitize: bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// ExtractURL fetches rawURL and runs the full extraction: metadata fallback
// chains, readability content, word count and reading time (ceil words/200).
// A fetch or parse failure fails the extraction as a whole; individual
// chain steps degrade silently.
func (e *Extractor) ExtractURL(ctx context.Context, rawURL string) (*Metadata, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid url %q", rawURL)
	}

	res, err := e.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	doc, err := html.Parse(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	meta := &Metadata{
		Title:         strings.TrimSpace(pageTitle(doc, u)),
		Excerpt:       pageExcerpt(doc),
		Author:        pageAuthor(doc),
		PublishedDate: pagePublishedDate(doc),
		Domain:        u.Hostname(),
		FaviconURL:    faviconURL(doc, u),
	}

	if body := mainContent(doc); body != nil {
		text := collectText(body)
		meta.Content = e.contentText(renderNode(body), rawURL, text)
		meta.WordCount = countWords(text)
		meta.ReadingTimeMinutes = (meta.WordCount + 199) / 200
		if meta.Excerpt == "" {
			meta.Excerpt = truncate(text, 500)
		}
	}

	return meta, nil
}

// FetchFavicon downloads a favicon and returns its bytes plus a filename
// derived from the domain and the URL's extension.
func (e *Extractor) FetchFavicon(ctx context.Context, faviconURL, domain string) ([]byte, string, error) {
	res, err := e.fetcher.Get(ctx, faviconURL)
	if err != nil {
		return nil, "", fmt.Errorf("favicon %s: %w", faviconURL, err)
	}
	ext := ".ico"
	switch {
	case strings.HasSuffix(faviconURL, ".png"):
		ext = ".png"
	case strings.HasSuffix(faviconURL, ".svg"):
		ext = ".svg"
	}
	name := strings.ReplaceAll(domain, ".", "_") + ext
	return res.Body, name, nil
}

// contentText converts the sanitized content HTML to markdown, falling
// back to the plain text when conversion fails or comes back empty.
func (e *Extractor) contentText(contentHTML, sourceURL, fallback string) string {
	if contentHTML == "" {
		return fallback
	}
	clean := e.sanitize.Sanitize(contentHTML)
	result, err := e.md.ConvertString(clean, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(result) == "" {
		return fallback
	}
	return strings.TrimSpace(result)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
