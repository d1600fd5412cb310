package services

import (
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
)

// MediaStore is the file-backed object store for uploaded photos: it persists
// an upload under a stable name and resolves public URLs back to locally
// readable paths.
type MediaStore interface {
	SaveUpload(fileID uuid.UUID, originalName, contentType string, r io.Reader) (*StoredObject, error)
	URLFor(filename string) string
	// PathFromURL maps a served URL back into the store. Returns false for
	// URLs that do not point at this store.
	PathFromURL(rawURL string) (string, bool)
	PathFor(filename string) string
	Delete(path string) error
}

type StoredObject struct {
	URL      string
	FilePath string
}

const uploadsURLPrefix = "/uploads/"

type localMediaStore struct {
	dir string
	log *logger.Logger
}

func NewLocalMediaStore(dir string, baseLog *logger.Logger) (MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads dir: %w", err)
	}
	return &localMediaStore{dir: dir, log: baseLog.With("service", "MediaStore")}, nil
}

func (s *localMediaStore) SaveUpload(fileID uuid.UUID, originalName, contentType string, r io.Reader) (*StoredObject, error) {
	ext := normalizedImageExtension(originalName, contentType)
	filename := fileID.String() + ext
	path := s.PathFor(filename)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	_, werr := io.Copy(f, r)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload file: %w", werr)
	}

	return &StoredObject{URL: s.URLFor(filename), FilePath: path}, nil
}

func (s *localMediaStore) URLFor(filename string) string {
	return uploadsURLPrefix + filename
}

func (s *localMediaStore) PathFor(filename string) string {
	return filepath.Join(s.dir, filename)
}

func (s *localMediaStore) PathFromURL(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Scheme != "" {
		path = u.Path
	}
	if !strings.HasPrefix(path, uploadsURLPrefix) {
		return "", false
	}
	return s.PathFor(strings.TrimPrefix(path, uploadsURLPrefix)), true
}

func (s *localMediaStore) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var knownImageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
	".heic": true, ".heif": true, ".bmp": true, ".tif": true, ".tiff": true,
}

var contentTypeExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
	"image/heic": ".heic",
	"image/heif": ".heif",
	"image/bmp":  ".bmp",
	"image/tiff": ".tiff",
}

// normalizedImageExtension picks a storage extension from the original file
// name when it looks like an image, else from the declared content type.
func normalizedImageExtension(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if knownImageExtensions[ext] {
		if ext == ".jpeg" {
			return ".jpg"
		}
		return ext
	}

	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	if mapped, ok := contentTypeExtensions[ct]; ok {
		return mapped
	}

	if guessed, err := mime.ExtensionsByType(ct); err == nil && len(guessed) > 0 {
		if guessed[0] == ".jpe" {
			return ".jpg"
		}
		return guessed[0]
	}
	return ""
}
