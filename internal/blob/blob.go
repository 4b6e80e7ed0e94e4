// Package blob persists raw file bytes (PDFs, images, screenshots,
// favicons) on local disk, keyed by generated relative paths. Callers treat
// the key as opaque; contents are never inspected here.
package blob

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category subdirectories under the store root.
var categoryDirs = map[string]string{
	"pdf":        "pdfs",
	"image":      "images",
	"screenshot": "screenshots",
	"favicon":    "favicons",
}

// Store is a category-keyed byte store rooted at one directory.
type Store struct {
	root string
}

// New creates a Store rooted at dir. Call EnsureDirs before first use.
func New(dir string) *Store {
	return &Store{root: dir}
}

// EnsureDirs creates the root and all category subdirectories.
func (s *Store) EnsureDirs() error {
	for _, sub := range categoryDirs {
		if err := os.MkdirAll(filepath.Join(s.root, sub), 0o755); err != nil {
			return fmt.Errorf("blob: mkdir %s: %w", sub, err)
		}
	}
	return nil
}

// Save writes data under the category's directory with a generated unique
// filename and returns the relative key.
func (s *Store) Save(data []byte, originalName, category string) (string, error) {
	sub, ok := categoryDirs[category]
	if !ok {
		return "", fmt.Errorf("blob: unknown category %q", category)
	}
	if err := os.MkdirAll(filepath.Join(s.root, sub), 0o755); err != nil {
		return "", fmt.Errorf("blob: mkdir: %w", err)
	}

	name := generateFilename(originalName)
	key := path.Join(sub, name)
	if err := os.WriteFile(filepath.Join(s.root, sub, name), data, 0o644); err != nil {
		return "", fmt.Errorf("blob: write: %w", err)
	}
	return key, nil
}

// Read returns the bytes for a key. A missing file reports fs.ErrNotExist.
func (s *Store) Read(key string) ([]byte, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("blob: read %s: %w", key, err)
	}
	return data, nil
}

// Delete removes the file for a key. Deleting a missing key is a no-op.
func (s *Store) Delete(key string) error {
	p, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %s: %w", key, err)
	}
	return nil
}

// resolve maps a key to an absolute path, rejecting traversal outside the
// store root.
func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("blob: invalid key %q: %w", key, fs.ErrInvalid)
	}
	return filepath.Join(s.root, clean), nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// sanitizeFilename strips characters that are unsafe in filenames and caps
// the length.
func sanitizeFilename(name string) string {
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	if len(name) > 200 {
		name = name[:200]
	}
	return name
}

// generateFilename prefixes the sanitized original name with a timestamp
// and a short random fragment so keys never collide.
func generateFilename(originalName string) string {
	frag := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%s_%s", time.Now().UnixMilli(), frag, sanitizeFilename(originalName))
}

// MimeType guesses a content type from a key's extension.
func MimeType(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	default:
		return "application/octet-stream"
	}
}
