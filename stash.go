// Package stash implements a personal read-it-later service: items saved
// as urls, notes, PDFs, images or screenshots, normalized by per-type
// content extractors, stored in sqlite with a synchronized full-text
// index, and organized with tags.
package stash

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/nmoreau/stash/internal/blob"
	"github.com/nmoreau/stash/internal/extract"
	"github.com/nmoreau/stash/internal/fetch"
	"github.com/nmoreau/stash/internal/imagex"
	"github.com/nmoreau/stash/internal/pdfx"
	"github.com/nmoreau/stash/internal/store"
)

// Service wires the store, blob store and extractors into the item flows.
type Service struct {
	cfg    Config
	store  *store.Store
	blobs  *blob.Store
	ex     *extract.Extractor
	logger *slog.Logger
}

// New opens the database, prepares the blob directories and returns a
// ready Service.
func New(cfg Config, logger *slog.Logger) (*Service, error) {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStorage, err)
	}
	blobs := blob.New(cfg.DataDir)
	if err := blobs.EnsureDirs(); err != nil {
		st.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &Service{
		cfg:    cfg,
		store:  st,
		blobs:  blobs,
		ex:     extract.New(fetch.New(cfg.Fetch), logger),
		logger: logger,
	}, nil
}

// newWithStore builds a Service around an existing store; used by tests.
func newWithStore(cfg Config, st *store.Store, logger *slog.Logger) (*Service, error) {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}
	blobs := blob.New(cfg.DataDir)
	if err := blobs.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &Service{
		cfg:    cfg,
		store:  st,
		blobs:  blobs,
		ex:     extract.New(fetch.New(cfg.Fetch), logger),
		logger: logger,
	}, nil
}

// Close releases the database.
func (s *Service) Close() error {
	return s.store.Close()
}

// SaveRequest is one item-creation request. File carries the uploaded
// bytes for pdf, image and screenshot types.
type SaveRequest struct {
	Type     string
	Title    string
	Content  string
	URL      string
	Excerpt  string
	Tags     []string
	File     []byte
	FileName string
}

// SaveItem normalizes the request through the type's extractor, persists
// the item (with url metadata and tag links) and returns it.
//
// URL extraction failures degrade: the item is still created when a title
// was supplied, just without metadata. PDF and image encoding failures are
// fatal to the request.
func (s *Service) SaveItem(ctx context.Context, req SaveRequest) (*store.Item, error) {
	if !ItemTypes[req.Type] {
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, req.Type)
	}

	item := &store.Item{
		Type:    req.Type,
		Title:   strings.TrimSpace(req.Title),
		Content: req.Content,
		URL:     req.URL,
		Excerpt: req.Excerpt,
	}
	var meta *store.URLMetadata

	switch req.Type {
	case "url":
		if req.URL == "" {
			return nil, fmt.Errorf("%w: url is required", ErrInvalidInput)
		}
		if err := validateURL(req.URL); err != nil {
			return nil, err
		}
		m, err := s.ex.ExtractURL(ctx, req.URL)
		if err != nil {
			s.logger.Warn("url extraction failed", "url", req.URL, "error", err)
			if item.Title == "" {
				return nil, fmt.Errorf("%w: title is required when extraction fails", ErrInvalidInput)
			}
		} else {
			if item.Title == "" {
				item.Title = m.Title
			}
			if item.Excerpt == "" {
				item.Excerpt = m.Excerpt
			}
			if item.Content == "" {
				item.Content = m.Content
			}
			meta = &store.URLMetadata{
				Domain:             m.Domain,
				Author:             m.Author,
				PublishedDate:      m.PublishedDate,
				WordCount:          m.WordCount,
				ReadingTimeMinutes: m.ReadingTimeMinutes,
			}
			item.FaviconPath = s.saveFavicon(ctx, m)
		}

	case "pdf":
		if len(req.File) == 0 {
			return nil, fmt.Errorf("%w: pdf file is required", ErrInvalidInput)
		}
		res, err := pdfx.Extract(req.File)
		if err != nil {
			return nil, fmt.Errorf("%w: pdf: %v", ErrExtraction, err)
		}
		item.Content = res.Text
		if item.Excerpt == "" {
			item.Excerpt = truncateRunes(res.Text, 500)
		}
		key, err := s.blobs.Save(req.File, req.FileName, "pdf")
		if err != nil {
			return nil, fmt.Errorf("%w: save pdf: %v", ErrStorage, err)
		}
		item.FilePath = key

	case "image", "screenshot":
		if len(req.File) == 0 {
			return nil, fmt.Errorf("%w: %s file is required", ErrInvalidInput, req.Type)
		}
		var processed []byte
		var err error
		if req.Type == "screenshot" {
			processed, err = imagex.ProcessScreenshot(req.File)
		} else {
			processed, err = imagex.Process(req.File, s.cfg.Image)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: image: %v", ErrExtraction, err)
		}
		key, err := s.blobs.Save(processed, req.FileName, req.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: save %s: %v", ErrStorage, req.Type, err)
		}
		item.FilePath = key
	}

	if err := validateNewItem(req.Type, item.Title); err != nil {
		return nil, err
	}

	if err := s.store.CreateItem(ctx, item, meta, req.Tags); err != nil {
		return nil, fmt.Errorf("%w: create item: %v", ErrStorage, err)
	}
	s.logger.Info("item created", "id", item.ID, "type", item.Type)
	return item, nil
}

// saveFavicon downloads and stores the discovered favicon; failures only
// cost the favicon, never the item.
func (s *Service) saveFavicon(ctx context.Context, m *extract.Metadata) string {
	if m.FaviconURL == "" {
		return ""
	}
	data, name, err := s.ex.FetchFavicon(ctx, m.FaviconURL, m.Domain)
	if err != nil {
		s.logger.Debug("favicon download failed", "url", m.FaviconURL, "error", err)
		return ""
	}
	key, err := s.blobs.Save(data, name, "favicon")
	if err != nil {
		s.logger.Warn("favicon save failed", "error", err)
		return ""
	}
	return key
}

// GetItem returns an item with its tags and, for urls, metadata.
func (s *Service) GetItem(ctx context.Context, id int64) (*store.Item, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: get item: %v", ErrStorage, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return item, nil
}

// UpdateItem applies a partial update; only supplied fields change.
func (s *Service) UpdateItem(ctx context.Context, id int64, upd store.ItemUpdate) (*store.Item, error) {
	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
	}
	item, err := s.store.UpdateItem(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("%w: update item: %v", ErrStorage, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	return item, nil
}

// DeleteItem removes the item row (index entry, tag links and metadata go
// with it) and then its blob files. A file already gone is not an error.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	item, err := s.store.DeleteItem(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: delete item: %v", ErrStorage, err)
	}
	if item == nil {
		return fmt.Errorf("%w: item %d", ErrNotFound, id)
	}
	for _, key := range []string{item.FilePath, item.FaviconPath} {
		if key == "" {
			continue
		}
		if err := s.blobs.Delete(key); err != nil {
			s.logger.Warn("blob delete failed", "key", key, "error", err)
		}
	}
	return nil
}

// ListItems returns one filtered page, newest first.
func (s *Service) ListItems(ctx context.Context, f store.ListFilter, page, limit int) (*store.ItemList, error) {
	list, err := s.store.ListItems(ctx, f, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %v", ErrStorage, err)
	}
	return list, nil
}

// Search runs a ranked full-text query. An empty query is a client error.
func (s *Service) Search(ctx context.Context, query string, page, limit int) (*store.SearchResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}
	res, err := s.store.Search(ctx, query, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %v", ErrStorage, err)
	}
	return res, nil
}

// ReadFile returns the stored file bytes and mime type for an item.
func (s *Service) ReadFile(ctx context.Context, id int64) ([]byte, string, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if item.FilePath == "" {
		return nil, "", fmt.Errorf("%w: item %d has no file", ErrNotFound, id)
	}
	data, err := s.blobs.Read(item.FilePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: file %s", ErrNotFound, item.FilePath)
		}
		return nil, "", fmt.Errorf("%w: read file: %v", ErrStorage, err)
	}
	return data, blob.MimeType(item.FilePath), nil
}

// ListTags returns all tags with item counts.
func (s *Service) ListTags(ctx context.Context) ([]*store.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list tags: %v", ErrStorage, err)
	}
	return tags, nil
}

// CreateTag creates a tag with an explicit color. Duplicate names are
// rejected with ErrDuplicate.
func (s *Service) CreateTag(ctx context.Context, name, color string) (*store.Tag, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: tag name is required", ErrInvalidInput)
	}
	existing, err := s.store.GetTagByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if existing != nil {
		return existing, fmt.Errorf("%w: tag %q", ErrDuplicate, name)
	}
	tag, err := s.store.CreateTag(ctx, name, color)
	if err != nil {
		return nil, fmt.Errorf("%w: create tag: %v", ErrStorage, err)
	}
	return tag, nil
}

// UpdateTag changes a tag's name and/or color.
func (s *Service) UpdateTag(ctx context.Context, id int64, name, color *string) (*store.Tag, error) {
	if name == nil && color == nil {
		return nil, fmt.Errorf("%w: no updates provided", ErrInvalidInput)
	}
	tag, err := s.store.UpdateTag(ctx, id, name, color)
	if err != nil {
		return nil, fmt.Errorf("%w: update tag: %v", ErrStorage, err)
	}
	if tag == nil {
		return nil, fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	return tag, nil
}

// DeleteTag removes a tag and its item associations; items stay intact.
func (s *Service) DeleteTag(ctx context.Context, id int64) error {
	deleted, err := s.store.DeleteTag(ctx, id)
	if err != nil {
		return fmt.Errorf("%w: delete tag: %v", ErrStorage, err)
	}
	if !deleted {
		return fmt.Errorf("%w: tag %d", ErrNotFound, id)
	}
	return nil
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

