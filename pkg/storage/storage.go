// Package storage writes uploaded order images to local disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxSize is the largest accepted upload (5 MiB)
const DefaultMaxSize int64 = 5 << 20

// UploadDir is the directory, relative to the storage root, holding order images
const UploadDir = "uploads/custom_orders"

var (
	// ErrTooLarge is returned for files above the configured cap
	ErrTooLarge = errors.New("file exceeds the maximum upload size")
	// ErrUnsupportedType is returned for anything that is not a jpeg, png or gif image
	ErrUnsupportedType = errors.New("only image files are allowed")
)

var allowedExtensions = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
	"gif":  true,
}

// Upload is one file received from a multipart form
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredFile describes a file written by ImageStore
type StoredFile struct {
	Path         string
	OriginalName string
	ContentType  string
	Size         int64
}

// ImageStore validates and persists order images
type ImageStore struct {
	root    string
	maxSize int64
	now     func() time.Time
}

// NewImageStore creates a store rooted at root; maxSize <= 0 uses DefaultMaxSize
func NewImageStore(root string, maxSize int64) *ImageStore {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &ImageStore{
		root:    root,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// MaxSize returns the per-file cap in bytes
func (s *ImageStore) MaxSize() int64 {
	return s.maxSize
}

// Validate checks the name and declared media type without reading the body
func (s *ImageStore) Validate(u Upload) error {
	if u.Size > s.maxSize {
		return ErrTooLarge
	}
	ext := extension(u.Filename)
	if !allowedExtensions[ext] {
		return ErrUnsupportedType
	}
	declared := strings.ToLower(u.ContentType)
	if !strings.HasPrefix(declared, "image/") || !allowedExtensions[strings.TrimPrefix(declared, "image/")] {
		return ErrUnsupportedType
	}
	return nil
}

// Save validates the upload, sniffs its content and writes it to disk.
// The returned path is relative to the storage root.
func (s *ImageStore) Save(u Upload) (*StoredFile, error) {
	if err := s.Validate(u); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(u.Body, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.maxSize {
		return nil, ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if !detected.Is("image/jpeg") && !detected.Is("image/png") && !detected.Is("image/gif") {
		return nil, ErrUnsupportedType
	}

	name := fmt.Sprintf("custom-order-%d-%d.%s", s.now().UnixMilli(), rand.Int63n(1_000_000_000), extension(u.Filename))
	rel := filepath.ToSlash(filepath.Join(UploadDir, name))
	dir := filepath.Join(s.root, UploadDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := writeFile(filepath.Join(dir, name), bytes.NewReader(data)); err != nil {
		return nil, err
	}

	return &StoredFile{
		Path:         rel,
		OriginalName: u.Filename,
		ContentType:  detected.String(),
		Size:         int64(len(data)),
	}, nil
}

// Remove deletes a previously stored file, ignoring missing files
func (s *ImageStore) Remove(path string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// writeFile copies src into a new file at path. A partial file is removed
// when the copy or close fails.
func writeFile(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
