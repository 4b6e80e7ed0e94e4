// Package api exposes the stash service over HTTP: JSON for reads and
// writes, multipart for uploads.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	stash "github.com/nmoreau/stash"
	"github.com/nmoreau/stash/internal/store"
)

// Server routes HTTP requests to the service.
type Server struct {
	svc       *stash.Service
	logger    *slog.Logger
	maxUpload int64
}

// New builds a Server. maxUpload caps a single uploaded file in bytes.
func New(svc *stash.Service, logger *slog.Logger, maxUpload int64) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{svc: svc, logger: logger, maxUpload: maxUpload}
}

// Router returns the chi router with all endpoints registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/api/health", s.handleHealth)

	r.Route("/api/items", func(r chi.Router) {
		r.Get("/", s.handleListItems)
		r.Post("/", s.handleCreateItem)
		r.Get("/{id}", s.handleGetItem)
		r.Put("/{id}", s.handleUpdateItem)
		r.Delete("/{id}", s.handleDeleteItem)
		r.Get("/{id}/file", s.handleGetFile)
	})

	r.Get("/api/search", s.handleSearch)

	r.Route("/api/tags", func(r chi.Router) {
		r.Get("/", s.handleListTags)
		r.Post("/", s.handleCreateTag)
		r.Put("/{id}", s.handleUpdateTag)
		r.Delete("/{id}", s.handleDeleteTag)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := store.ListFilter{
		Archived: q.Get("archived") == "true",
		Type:     q.Get("type"),
	}
	if v := q.Get("favorite"); v != "" {
		fav := v == "true"
		filter.Favorite = &fav
	}
	if v := q.Get("tag"); v != "" {
		tagID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeErrorMsg(w, http.StatusBadRequest, "invalid tag id")
			return
		}
		filter.TagID = tagID
	}

	page, limit := pageParams(q.Get("page"), q.Get("limit"))
	list, err := s.svc.ListItems(r.Context(), filter, page, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// createItemRequest is the JSON body for POST /api/items. Uploads use
// multipart/form-data with the same field names plus "file".
type createItemRequest struct {
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	URL     string   `json:"url"`
	Excerpt string   `json:"excerpt"`
	Tags    []string `json:"tags"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeCreateRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	item, err := s.svc.SaveItem(r.Context(), *req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) decodeCreateRequest(r *http.Request) (*stash.SaveRequest, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "multipart/form-data" {
		var body createItemRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("%w: invalid json body", stash.ErrInvalidInput)
		}
		return &stash.SaveRequest{
			Type:    body.Type,
			Title:   body.Title,
			Content: body.Content,
			URL:     body.URL,
			Excerpt: body.Excerpt,
			Tags:    body.Tags,
		}, nil
	}

	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return nil, fmt.Errorf("%w: invalid multipart body", stash.ErrInvalidInput)
	}
	req := &stash.SaveRequest{
		Type:    r.FormValue("type"),
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		URL:     r.FormValue("url"),
		Excerpt: r.FormValue("excerpt"),
		Tags:    parseTagsField(r.FormValue("tags")),
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
		if readErr != nil {
			return nil, fmt.Errorf("%w: read upload: %v", stash.ErrStorage, readErr)
		}
		if int64(len(data)) > s.maxUpload {
			return nil, fmt.Errorf("%w: file exceeds %d bytes", stash.ErrInvalidInput, s.maxUpload)
		}
		req.File = data
		req.FileName = header.Filename
	} else if !errors.Is(err, http.ErrMissingFile) {
		return nil, fmt.Errorf("%w: invalid file field", stash.ErrInvalidInput)
	}
	return req, nil
}

// parseTagsField accepts either a JSON string array or a comma-separated
// list, as form clients send both.
func parseTagsField(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags
		}
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	item, err := s.svc.GetItem(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// updateItemRequest is the JSON body for PUT /api/items/{id}. Absent
// fields keep their prior values; tags, when present, replaces the set.
type updateItemRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Excerpt  *string   `json:"excerpt"`
	Archived *bool     `json:"archived"`
	Favorite *bool     `json:"favorite"`
	Tags     *[]string `json:"tags"`
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json body")
		return
	}

	item, err := s.svc.UpdateItem(r.Context(), id, store.ItemUpdate{
		Title:    body.Title,
		Content:  body.Content,
		Excerpt:  body.Excerpt,
		Archived: body.Archived,
		Favorite: body.Favorite,
		Tags:     body.Tags,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.DeleteItem(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, mimeType, err := s.svc.ReadFile(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, limit := pageParams(q.Get("page"), q.Get("limit"))
	res, err := s.svc.Search(r.Context(), q.Get("q"), page, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.svc.ListTags(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

type tagRequest struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	var body tagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json body")
		return
	}
	var name, color string
	if body.Name != nil {
		name = *body.Name
	}
	if body.Color != nil {
		color = *body.Color
	}
	tag, err := s.svc.CreateTag(r.Context(), name, color)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body tagRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json body")
		return
	}
	tag, err := s.svc.UpdateTag(r.Context(), id, body.Name, body.Color)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tag)
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.svc.DeleteTag(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id", stash.ErrInvalidInput)
	}
	return id, nil
}

func pageParams(pageStr, limitStr string) (int, int) {
	page, _ := strconv.Atoi(pageStr)
	limit, _ := strconv.Atoi(limitStr)
	return page, limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service sentinels onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stash.ErrInvalidInput):
		writeErrorMsg(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, stash.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, err.Error())
	case errors.Is(err, stash.ErrDuplicate):
		writeErrorMsg(w, http.StatusConflict, err.Error())
	case errors.Is(err, stash.ErrExtraction):
		writeErrorMsg(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeErrorMsg(w, http.StatusInternalServerError, "internal error")
	}
}
