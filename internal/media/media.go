// Package media stores uploaded images on disk.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go-blog-app/internal/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file is too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// Upload folders.
const (
	ProfilePictures = "profile_pics"
	PageImages      = "page_images"
)

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store saves images under a root directory using random names.
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates the media directory if needed.
func NewStore(cfg config.MediaConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &Store{dir: cfg.Dir, maxBytes: cfg.MaxBytes}, nil
}

// Dir returns the root directory, for serving.
func (s *Store) Dir() string { return s.dir }

// Save sniffs the content type, rejects anything but common web images and
// writes the file under folder. It returns the slash-separated path relative to the root.
func (s *Store) Save(folder string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if n > s.maxBytes {
		return "", ErrTooLarge
	}
	ext, ok := allowed[mimetype.Detect(buf.Bytes()).String()]
	if !ok {
		return "", ErrUnsupportedType
	}

	if err := os.MkdirAll(filepath.Join(s.dir, folder), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media folder: %w", err)
	}
	rel := path.Join(folder, uuid.NewString()+ext)
	if err := os.WriteFile(filepath.Join(s.dir, filepath.FromSlash(rel)), buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write upload: %w", err)
	}
	return rel, nil
}

// Delete removes a previously saved file. Missing files are ignored.
func (s *Store) Delete(rel string) error {
	clean := path.Clean("/" + rel)
	if rel == "" || strings.Contains(rel, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.FromSlash(clean)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", rel, err)
	}
	return nil
}
