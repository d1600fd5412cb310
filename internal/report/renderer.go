package report

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/go-pdf/fpdf"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/template"
)

// AccessPointsBucketID marks the one bucket whose document shape is driven by
// runtime data: it expands into ap_count repeating sub-sections.
const AccessPointsBucketID = "access_points"

// APQuestionID is the synthetic per-index question id that AP photos are
// attached under.
func APQuestionID(idx int) string {
	return fmt.Sprintf("AP-PHOTO-%d", idx)
}

// ErrRender is returned when the PDF document itself fails to build.
var ErrRender = errors.New("report render failed")

// RunInfo is the run metadata printed in the report header.
type RunInfo struct {
	ID              string
	SiteName        string
	PRef            string
	EngineerName    string
	Status          string
	TemplateName    string
	TemplateVersion string
	APCount         int
	GeneratedAt     time.Time
}

type Photo struct {
	URL      string
	FilePath string
	Caption  string
}

type Answer struct {
	Value   template.AnswerValue
	Comment string
	Photos  []Photo
}

// Input is a stable snapshot of everything the renderer consumes. The
// renderer never re-reads answers, so output is deterministic for identical
// inputs and timestamps.
type Input struct {
	Template         *template.Template
	Run              RunInfo
	Answers          map[string]Answer
	DeclarationItems []string
}

type Renderer struct {
	log *logger.Logger
}

func NewRenderer(baseLog *logger.Logger) *Renderer {
	return &Renderer{log: baseLog.With("component", "ReportRenderer")}
}

// RenderFile renders the report into path. The output file is opened for
// exclusive write and closed on every exit path; a file left over from a
// failed render is removed rather than served as valid output.
func (r *Renderer) RenderFile(input Input, path string) (int, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open report file: %w", err)
	}
	pages, rerr := r.Render(input, f)
	cerr := f.Close()
	if rerr == nil && cerr != nil {
		rerr = fmt.Errorf("close report file: %w", cerr)
	}
	if rerr != nil {
		_ = os.Remove(path)
		return 0, rerr
	}
	return pages, nil
}

// Render walks the template in declaration order and writes a paginated PDF
// to w. It returns the number of pages emitted.
func (r *Renderer) Render(input Input, w io.Writer) (int, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(input.Run.GeneratedAt)
	pdf.SetModificationDate(input.Run.GeneratedAt)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("BCQA Report %s", input.Run.ID), true)

	st := &state{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		log: r.log,
	}
	st.newPage()

	st.header(input.Run)
	st.declaration(input.DeclarationItems)
	st.answers(input)

	if pdf.Err() {
		return 0, fmt.Errorf("%w: %v", ErrRender, pdf.Error())
	}
	if err := pdf.Output(w); err != nil {
		return 0, fmt.Errorf("write report: %w", err)
	}
	return pdf.PageCount(), nil
}

// state is the single-pass layout cursor: the current page is implicit in the
// fpdf document, y is the baseline of the last drawn line, and the font
// context is re-applied after every page break.
type state struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	log *logger.Logger

	y         float64
	fontStyle string
	fontSize  float64
	imageSeq  int
}

func (s *state) setFont(style string, size float64) {
	s.fontStyle, s.fontSize = style, size
	s.pdf.SetFont("Helvetica", style, size)
}

func (s *state) newPage() {
	s.pdf.AddPage()
	s.y = marginY
	if s.fontSize > 0 {
		s.pdf.SetFont("Helvetica", s.fontStyle, s.fontSize)
	}
}

// ensure starts a new page when fewer than h millimetres remain above the
// bottom margin. Pagination happens before drawing; a block never splits.
func (s *state) ensure(h float64) {
	if s.y+h > pageHeight-marginY {
		s.newPage()
	}
}

// gap advances the cursor by ink-free spacing, clamped at the bottom margin
// so the cursor itself never leaves the page.
func (s *state) gap(h float64) {
	s.y += h
	if s.y > pageHeight-marginY {
		s.y = pageHeight - marginY
	}
}

// line draws one pre-wrapped text line at x and advances the cursor.
func (s *state) line(x float64, text string) {
	s.ensure(lineH)
	s.y += lineH
	s.pdf.Text(x, s.y, s.tr(text))
}

func (s *state) wrapped(x float64, text string, width int) {
	for _, ln := range wrapText(text, width) {
		s.line(x, ln)
	}
}

func (s *state) header(run RunInfo) {
	s.setFont("B", 16)
	s.line(marginX, "BCQA — PDF Export")
	s.gap(5)

	s.setFont("", 10)
	s.wrapped(marginX, fmt.Sprintf("Site: %s", run.SiteName), wrapBody)
	s.wrapped(marginX, fmt.Sprintf("P-Ref: %s", run.PRef), wrapBody)
	s.wrapped(marginX, fmt.Sprintf("Engineer: %s", run.EngineerName), wrapBody)
	s.wrapped(marginX, fmt.Sprintf("Template: %s (v%s)", run.TemplateName, run.TemplateVersion), wrapBody)
	s.wrapped(marginX, fmt.Sprintf("Status: %s", run.Status), wrapBody)
	s.wrapped(marginX, fmt.Sprintf("Generated: %s", run.GeneratedAt.UTC().Format(time.RFC3339)), wrapBody)
	s.gap(4)
}

func (s *state) declaration(items []string) {
	if len(items) == 0 {
		return
	}
	s.setFont("B", 12)
	s.line(marginX, "Declaration")
	s.gap(2)
	s.setFont("", 10)
	for _, item := range items {
		s.wrapped(marginX, fmt.Sprintf("[x] %s", item), wrapWide)
	}
	s.gap(4)
}

func (s *state) answers(input Input) {
	s.setFont("B", 12)
	s.line(marginX, "Checklist Answers")
	s.gap(2)
	s.setFont("", 9)

	for bi := range input.Template.Buckets {
		s.bucket(&input.Template.Buckets[bi], input)
	}
}

func (s *state) bucket(b *template.Bucket, input Input) {
	s.ensure(25)
	s.setFont("B", 11)
	s.line(marginX, b.Title)
	s.gap(1)
	s.setFont("", 9)

	if b.BucketID == AccessPointsBucketID && input.Run.APCount > 0 {
		s.accessPoints(input)
	}

	for gi := range b.Groups {
		g := &b.Groups[gi]
		s.ensure(20)
		s.setFont("B", 10)
		s.wrapped(marginX, g.Title, wrapWide)
		s.setFont("", 9)

		for qi := range g.Questions {
			s.question(&g.Questions[qi], input.Answers[g.Questions[qi].QuestionID])
		}
	}
}

// accessPoints emits exactly ap_count "AP i" sub-sections, whatever photos
// exist under the synthetic AP-PHOTO ids.
func (s *state) accessPoints(input Input) {
	s.ensure(22)
	s.setFont("B", 10)
	s.wrapped(marginX, "AP Photos", wrapWide)
	s.setFont("", 9)
	for idx := 1; idx <= input.Run.APCount; idx++ {
		s.ensure(20)
		s.wrapped(marginX+6, fmt.Sprintf("AP %d", idx), wrapWide)
		s.photos(input.Answers[APQuestionID(idx)].Photos)
		s.gap(3)
	}
}

func (s *state) question(q *template.Question, a Answer) {
	s.ensure(20)

	value := "—"
	if a.Value.IsSet() {
		value = string(a.Value)
	}

	s.wrapped(marginX, fmt.Sprintf("%s — %s", q.QuestionID, q.Text), wrapWide)
	s.wrapped(marginX+6, fmt.Sprintf("Answer: %s", value), wrapBody)
	if a.Comment != "" {
		s.wrapped(marginX+6, fmt.Sprintf("Comment: %s", a.Comment), wrapBody)
	}
	s.photos(a.Photos)
	s.gap(2)
}

func (s *state) photos(photos []Photo) {
	if len(photos) == 0 {
		return
	}
	photoX := marginX + photoIndent
	photoMaxW := pageWidth - marginX - photoX

	s.wrapped(marginX+6, fmt.Sprintf("Photos: %d", len(photos)), wrapBody)
	for _, p := range photos {
		var captionLines []string
		needed := photoMaxH + 8
		if p.Caption != "" {
			captionLines = wrapText(fmt.Sprintf("Caption: %s", p.Caption), wrapIndent)
			needed += float64(len(captionLines))*lineH + 1
		}
		s.ensure(needed)

		for _, ln := range captionLines {
			s.line(photoX, ln)
		}
		if len(captionLines) > 0 {
			s.gap(1)
		}

		buf, iw, ih, err := loadImageAsJPEG(p.FilePath)
		if err != nil {
			// One bad image degrades to its reference string; the render
			// always continues.
			s.log.Warn("Photo unreadable, printing reference instead", "file", p.FilePath, "error", err)
			s.wrapped(photoX, fmt.Sprintf("Photo: %s", p.URL), wrapIndent)
			s.gap(2)
			continue
		}

		scale := photoMaxW / float64(iw)
		if hScale := photoMaxH / float64(ih); hScale < scale {
			scale = hScale
		}
		w := float64(iw) * scale
		h := float64(ih) * scale

		// The image is its own atomic block: it may break to a fresh page
		// after the caption rather than draw past the bottom margin.
		s.ensure(2 + h + 4)

		s.imageSeq++
		name := fmt.Sprintf("photo-%d", s.imageSeq)
		opt := fpdf.ImageOptions{ImageType: "JPEG"}
		s.pdf.RegisterImageOptionsReader(name, opt, buf)
		s.pdf.ImageOptions(name, photoX, s.y+2, w, h, false, opt, 0, "")
		s.y += 2 + h + 4
	}
}

// loadImageAsJPEG fully decodes a local photo file and re-encodes it as JPEG,
// so a file that is missing, truncated or in an unsupported format is caught
// here and can never poison the PDF document.
func loadImageAsJPEG(path string) (*bytes.Buffer, int, int, error) {
	if path == "" {
		return nil, 0, 0, fmt.Errorf("no local file")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid image dimensions")
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode image: %w", err)
	}
	return &buf, b.Dx(), b.Dy(), nil
}
