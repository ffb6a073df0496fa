package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var photoExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true}

// PhotoStore keeps checklist photos as files under one directory.
type PhotoStore struct {
	dir string
}

// NewPhotoStore creates dir if needed.
func NewPhotoStore(dir string) (*PhotoStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("photo dir is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	return &PhotoStore{dir: dir}, nil
}

// Save copies an uploaded photo under a fresh random name and returns it.
func (p *PhotoStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !photoExts[ext] {
		ext = ".jpg"
	}
	name := uuid.NewString() + ext

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(p.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("write photo: %w", err)
	}
	return name, dst.Close()
}

// Remove deletes stored photos, ignoring missing files.
func (p *PhotoStore) Remove(names ...string) {
	for _, n := range names {
		if path, ok := p.Path(n); ok {
			os.Remove(path)
		}
	}
}

// Path resolves a stored photo name. Names with path elements are refused.
func (p *PhotoStore) Path(name string) (string, bool) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return filepath.Join(p.dir, name), true
}
