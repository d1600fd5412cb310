package services

import (
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
)

func TestNormalizedImageExtension(t *testing.T) {
	cases := []struct {
		name        string
		filename    string
		contentType string
		want        string
	}{
		{name: "jpg_from_name", filename: "photo.JPG", contentType: "", want: ".jpg"},
		{name: "jpeg_normalized", filename: "photo.jpeg", contentType: "", want: ".jpg"},
		{name: "png_from_name", filename: "photo.png", contentType: "image/jpeg", want: ".png"},
		{name: "heic_from_name", filename: "IMG_0042.HEIC", contentType: "", want: ".heic"},
		{name: "content_type_fallback", filename: "upload", contentType: "image/png", want: ".png"},
		{name: "content_type_with_params", filename: "upload.bin", contentType: "image/jpeg; charset=binary", want: ".jpg"},
		{name: "webp", filename: "blob", contentType: "image/webp", want: ".webp"},
		{name: "unknown_everything", filename: "blob", contentType: "application/octet-stream", want: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizedImageExtension(tc.filename, tc.contentType)
			if got != tc.want {
				t.Fatalf("normalizedImageExtension(%q, %q)=%q, want %q", tc.filename, tc.contentType, got, tc.want)
			}
		})
	}
}

func TestLocalMediaStoreSaveUpload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalMediaStore(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("NewLocalMediaStore: %v", err)
	}

	fileID := uuid.New()
	obj, err := store.SaveUpload(fileID, "site.jpeg", "image/jpeg", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if obj.URL != "/uploads/"+fileID.String()+".jpg" {
		t.Fatalf("URL=%q", obj.URL)
	}
	data, err := os.ReadFile(obj.FilePath)
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "fake image bytes" {
		t.Fatalf("stored bytes %q", data)
	}
}

func TestLocalMediaStorePathFromURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalMediaStore(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("NewLocalMediaStore: %v", err)
	}

	cases := []struct {
		name   string
		url    string
		wantOK bool
	}{
		{name: "relative", url: "/uploads/abc.jpg", wantOK: true},
		{name: "absolute", url: "http://localhost:8000/uploads/abc.jpg", wantOK: true},
		{name: "outside_store", url: "/exports/run_x.pdf", wantOK: false},
		{name: "empty", url: "", wantOK: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path, ok := store.PathFromURL(tc.url)
			if ok != tc.wantOK {
				t.Fatalf("PathFromURL(%q)=%q, %v", tc.url, path, ok)
			}
			if ok && path != store.PathFor("abc.jpg") {
				t.Fatalf("path=%q", path)
			}
		})
	}
}

func TestLocalMediaStoreDeleteMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalMediaStore(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("NewLocalMediaStore: %v", err)
	}
	if err := store.Delete(store.PathFor("never-existed.jpg")); err != nil {
		t.Fatalf("Delete of missing file: %v", err)
	}
}
