package services

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
)

func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if filepath.Ext(path) == ".png" {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, nil)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func decodeJPEG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestThumbnailGenerate(t *testing.T) {
	dir := t.TempDir()
	ts := NewThumbnailService(logger.NewNop())

	cases := []struct {
		name string
		src  string
		w, h int
	}{
		{name: "landscape_jpeg", src: "wide.jpg", w: 1024, h: 400},
		{name: "portrait_jpeg", src: "tall.jpg", w: 300, h: 900},
		{name: "png_source", src: "shot.png", w: 640, h: 640},
		{name: "smaller_than_thumbnail", src: "tiny.jpg", w: 64, h: 64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := filepath.Join(dir, tc.src)
			dst := filepath.Join(dir, "thumb_"+tc.name+".jpg")
			writeTestImage(t, src, tc.w, tc.h)

			if err := ts.Generate(src, dst); err != nil {
				t.Fatalf("Generate: %v", err)
			}
			b := decodeJPEG(t, dst).Bounds()
			if b.Dx() != 512 || b.Dy() != 512 {
				t.Fatalf("thumbnail is %dx%d, want 512x512", b.Dx(), b.Dy())
			}
		})
	}
}

func TestThumbnailGenerateRejectsNonImage(t *testing.T) {
	dir := t.TempDir()
	ts := NewThumbnailService(logger.NewNop())

	src := filepath.Join(dir, "doc.jpg")
	if err := os.WriteFile(src, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "thumb.jpg")
	if err := ts.Generate(src, dst); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatal("failed generate left a thumbnail file behind")
	}
}

func TestThumbnailPlaceholder(t *testing.T) {
	dir := t.TempDir()
	ts := NewThumbnailService(logger.NewNop())

	dst := filepath.Join(dir, "placeholder.jpg")
	if err := ts.Placeholder("IMG_0042.HEIC", dst); err != nil {
		t.Fatalf("Placeholder: %v", err)
	}
	b := decodeJPEG(t, dst).Bounds()
	if b.Dx() != 512 || b.Dy() != 512 {
		t.Fatalf("placeholder is %dx%d, want 512x512", b.Dx(), b.Dy())
	}
}
