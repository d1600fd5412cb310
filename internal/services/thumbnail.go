package services

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"

	_ "image/gif"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/utils"
)

const thumbnailSize = 512

// ThumbnailService is the opaque image-in, smaller-image-out capability:
// given a stored photo it produces a fixed-size square preview, or a labeled
// placeholder tile when the source cannot be decoded.
type ThumbnailService interface {
	Generate(srcPath, dstPath string) error
	Placeholder(label, dstPath string) error
}

type thumbnailService struct {
	log      *logger.Logger
	fontFace font.Face
}

func NewThumbnailService(baseLog *logger.Logger) ThumbnailService {
	serviceLog := baseLog.With("service", "ThumbnailService")

	var face font.Face
	fontPath := utils.GetEnv("THUMBNAIL_FONT", "", baseLog)
	if strings.TrimSpace(fontPath) != "" {
		loaded, err := loadFontFace(fontPath, 36)
		if err != nil {
			serviceLog.Warn("Could not load thumbnail font, placeholders use the built-in face", "font", fontPath, "error", err)
		} else {
			face = loaded
		}
	}

	return &thumbnailService{log: serviceLog, fontFace: face}
}

// Generate decodes the source image, center-crops it to a square and scales
// it down to the thumbnail size.
func (ts *thumbnailService) Generate(srcPath, dstPath string) error {
	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open source image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode source image: %w", err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid image dimensions")
	}

	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, thumbnailSize, thumbnailSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	return writeJPEG(dstPath, dst)
}

// Placeholder draws a flat tile carrying the photo label, used when the
// upload exists but is not decodable as an image.
func (ts *thumbnailService) Placeholder(label, dstPath string) error {
	dc := gg.NewContext(thumbnailSize, thumbnailSize)

	dc.SetColor(color.NRGBA{R: 0x60, G: 0x66, B: 0x70, A: 0xFF})
	dc.DrawRectangle(0, 0, thumbnailSize, thumbnailSize)
	dc.Fill()

	if ts.fontFace != nil {
		dc.SetFontFace(ts.fontFace)
	}
	text := strings.TrimSpace(label)
	if text == "" {
		text = "photo"
	}
	tw, th := dc.MeasureString(text)
	cx, cy := float64(thumbnailSize)/2, float64(thumbnailSize)/2

	dc.SetColor(color.White)
	dc.DrawString(text, cx-tw/2, cy+th/2)

	return writeJPEG(dstPath, dc.Image())
}

func writeJPEG(path string, img image.Image) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create thumbnail file: %w", err)
	}
	werr := jpeg.Encode(f, img, &jpeg.Options{Quality: 82})
	cerr := f.Close()
	if werr != nil {
		_ = os.Remove(path)
		return fmt.Errorf("encode thumbnail: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close thumbnail file: %w", cerr)
	}
	return nil
}

func loadFontFace(path string, points float64) (font.Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	tt, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return truetype.NewFace(tt, &truetype.Options{Size: points}), nil
}
