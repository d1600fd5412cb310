package report

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/template"
)

// newTestState builds a layout cursor on a fresh document so block methods
// can be driven directly.
func newTestState(compress bool) *state {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetAutoPageBreak(false, 0)
	st := &state{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		log: logger.NewNop(),
	}
	st.newPage()
	st.setFont("", 9)
	return st
}

func testRun() RunInfo {
	return RunInfo{
		ID:              "7f3a2c9e-0000-0000-0000-000000000001",
		SiteName:        "Riverside Depot",
		PRef:            "P-10482",
		EngineerName:    "J. Morgan",
		Status:          "submitted",
		TemplateName:    "BCQA Site Survey",
		TemplateVersion: "1.0.0",
		GeneratedAt:     time.Date(2025, 6, 3, 10, 30, 0, 0, time.UTC),
	}
}

func reportTemplate(questionCount int) *template.Template {
	qs := make([]template.Question, 0, questionCount)
	for i := 1; i <= questionCount; i++ {
		qs = append(qs, template.Question{
			QuestionID: fmt.Sprintf("Q-%d", i),
			Text: fmt.Sprintf("Question %d: confirm the installation at this location matches "+
				"the agreed design, including cable routing, containment and labelling", i),
			AnswerType: template.AnswerTypeTriState,
			Required:   true,
		})
	}
	return &template.Template{
		SchemaVersion: template.SchemaVersion,
		Meta:          template.Meta{TemplateID: "bcqa-site-survey", Name: "BCQA Site Survey", Version: "1.0.0"},
		UI:            template.UIHints{DefaultBucketIcon: "clipboard", BucketOrdering: template.OrderingAsDefined},
		Buckets: []template.Bucket{
			{
				BucketID: "general",
				Title:    "General",
				Groups:   []template.Group{{GroupID: "g1", Title: "Main", Questions: qs}},
			},
		},
	}
}

func writeTestJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

func render(t *testing.T, input Input) (int, []byte) {
	t.Helper()
	var buf bytes.Buffer
	pages, err := NewRenderer(logger.NewNop()).Render(input, &buf)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if pages < 1 {
		t.Fatalf("pages=%d", pages)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF")
	}
	return pages, buf.Bytes()
}

func TestRenderSinglePage(t *testing.T) {
	input := Input{
		Template: reportTemplate(2),
		Run:      testRun(),
		Answers: map[string]Answer{
			"Q-1": {Value: template.ValuePass},
			"Q-2": {Value: template.ValueFail, Comment: "tray missing at riser"},
		},
		DeclarationItems: []string{"I confirm the survey was completed as described."},
	}
	pages, _ := render(t, input)
	if pages != 1 {
		t.Fatalf("pages=%d, want 1", pages)
	}
}

func TestRenderPaginates(t *testing.T) {
	input := Input{
		Template: reportTemplate(40),
		Run:      testRun(),
		Answers:  map[string]Answer{},
	}
	pages, _ := render(t, input)
	if pages < 2 {
		t.Fatalf("pages=%d, want >1 for 40 questions", pages)
	}
}

func TestRenderDeterministic(t *testing.T) {
	input := Input{
		Template: reportTemplate(10),
		Run:      testRun(),
		Answers: map[string]Answer{
			"Q-3": {Value: template.ValueNA},
		},
		DeclarationItems: []string{"Checked", "Double checked"},
	}
	_, first := render(t, input)
	_, second := render(t, input)
	if !bytes.Equal(first, second) {
		t.Fatal("identical inputs produced different bytes")
	}
}

func TestRenderAccessPointExpansion(t *testing.T) {
	tpl := reportTemplate(8)
	tpl.Buckets = append(tpl.Buckets, template.Bucket{
		BucketID: AccessPointsBucketID,
		Title:    "Access Points",
	})

	dir := t.TempDir()
	photoPath := filepath.Join(dir, "ap2.jpg")
	writeTestJPEG(t, photoPath, 320, 240)

	run := testRun()
	run.APCount = 3
	input := Input{
		Template: tpl,
		Run:      run,
		Answers: map[string]Answer{
			"Q-1": {Value: template.ValuePass},
			APQuestionID(2): {Photos: []Photo{
				{URL: "/uploads/ap2.jpg", FilePath: photoPath, Caption: "AP mounted above door"},
			}},
		},
	}
	withAPs, _ := render(t, input)

	run.APCount = 0
	input.Run = run
	withoutAPs, _ := render(t, input)

	// Three AP sections, one carrying an 80mm photo, must occupy more pages
	// than the same report with the bucket collapsed.
	if withAPs <= withoutAPs {
		t.Fatalf("pages with APs=%d, without=%d", withAPs, withoutAPs)
	}
}

// The cursor must never pass the bottom margin, whatever position a photo
// block starts from. A caption wrapping to several lines must not eat the
// space reserved for the image.
func TestPhotoBlockNeverExceedsPageHeight(t *testing.T) {
	dir := t.TempDir()
	photoPath := filepath.Join(dir, "site.jpg")
	writeTestJPEG(t, photoPath, 400, 300)

	longCaption := strings.Repeat("containment re-routed around the riser after the landlord walkthrough ", 5)
	photos := []Photo{{URL: "/uploads/site.jpg", FilePath: photoPath, Caption: longCaption}}

	limit := pageHeight - marginY
	st := newTestState(true)
	for y0 := marginY; y0 < limit; y0++ {
		st.newPage()
		st.y = y0
		st.photos(photos)
		if st.y > limit {
			t.Fatalf("photo block starting at y=%.1f advanced cursor to %.1f, limit %.1f", y0, st.y, limit)
		}
	}
}

func TestQuestionBlockNeverExceedsPageHeight(t *testing.T) {
	dir := t.TempDir()
	photoPath := filepath.Join(dir, "q.jpg")
	writeTestJPEG(t, photoPath, 300, 400)

	q := &template.Question{
		QuestionID: "Q-1",
		Text:       strings.Repeat("confirm labelling at every containment transition ", 6),
		AnswerType: template.AnswerTypeTriState,
	}
	a := Answer{
		Value:   template.ValueFail,
		Comment: strings.Repeat("re-inspection booked ", 20),
		Photos:  []Photo{{URL: "/uploads/q.jpg", FilePath: photoPath, Caption: "before remediation"}},
	}

	limit := pageHeight - marginY
	st := newTestState(true)
	for y0 := marginY; y0 < limit; y0 += 3 {
		st.newPage()
		st.y = y0
		st.question(q, a)
		if st.y > limit {
			t.Fatalf("question block starting at y=%.1f advanced cursor to %.1f, limit %.1f", y0, st.y, limit)
		}
	}
}

// Uncompressed content streams expose the drawn strings, so the AP expansion
// can be counted exactly.
func TestAccessPointSectionCount(t *testing.T) {
	run := testRun()
	run.APCount = 3
	input := Input{
		Template: reportTemplate(1),
		Run:      run,
		Answers:  map[string]Answer{},
	}

	st := newTestState(false)
	st.accessPoints(input)

	var buf bytes.Buffer
	if err := st.pdf.Output(&buf); err != nil {
		t.Fatalf("Output: %v", err)
	}
	out := buf.String()

	if !strings.Contains(out, "(AP Photos)") {
		t.Fatal("AP Photos heading not drawn")
	}
	for i := 1; i <= run.APCount; i++ {
		if !strings.Contains(out, fmt.Sprintf("(AP %d)", i)) {
			t.Fatalf("AP %d sub-section not drawn", i)
		}
	}
	if strings.Contains(out, "(AP 4)") {
		t.Fatal("more AP sub-sections drawn than ap_count")
	}
}

func TestRenderMissingPhotoFallsBack(t *testing.T) {
	input := Input{
		Template: reportTemplate(1),
		Run:      testRun(),
		Answers: map[string]Answer{
			"Q-1": {
				Value: template.ValueFail,
				Photos: []Photo{
					{URL: "/uploads/gone.jpg", FilePath: filepath.Join(t.TempDir(), "gone.jpg")},
					{URL: "/uploads/remote-only.jpg"},
				},
			},
		},
	}
	// Unreadable photos degrade to their URL line; the render must not error.
	render(t, input)
}

func TestRenderCorruptPhotoFallsBack(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(bad, []byte("definitely not a jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	input := Input{
		Template: reportTemplate(1),
		Run:      testRun(),
		Answers: map[string]Answer{
			"Q-1": {Value: template.ValuePass, Photos: []Photo{{URL: "/uploads/bad.jpg", FilePath: bad}}},
		},
	}
	render(t, input)
}

func TestRenderEmbedsPhotos(t *testing.T) {
	dir := t.TempDir()
	wide := filepath.Join(dir, "wide.jpg")
	tall := filepath.Join(dir, "tall.jpg")
	writeTestJPEG(t, wide, 800, 200)
	writeTestJPEG(t, tall, 200, 800)

	input := Input{
		Template: reportTemplate(2),
		Run:      testRun(),
		Answers: map[string]Answer{
			"Q-1": {Value: template.ValuePass, Photos: []Photo{{URL: "/uploads/wide.jpg", FilePath: wide, Caption: "cable tray"}}},
			"Q-2": {Value: template.ValuePass, Photos: []Photo{{URL: "/uploads/tall.jpg", FilePath: tall}}},
		},
	}
	_, out := render(t, input)
	if !bytes.Contains(out, []byte("/DCTDecode")) {
		t.Fatal("no embedded JPEG stream in output")
	}
}

func TestRenderLongUnbrokenText(t *testing.T) {
	tpl := reportTemplate(1)
	tpl.Buckets[0].Groups[0].Questions[0].Text = strings.Repeat("x", 600)
	input := Input{
		Template: tpl,
		Run:      testRun(),
		Answers:  map[string]Answer{"Q-1": {Comment: strings.Repeat("y", 500)}},
	}
	render(t, input)
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_test.pdf")
	input := Input{
		Template: reportTemplate(3),
		Run:      testRun(),
		Answers:  map[string]Answer{"Q-1": {Value: template.ValuePass}},
	}
	pages, err := NewRenderer(logger.NewNop()).RenderFile(input, path)
	if err != nil {
		t.Fatalf("RenderFile: %v", err)
	}
	if pages < 1 {
		t.Fatalf("pages=%d", pages)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatal("output file is not a PDF")
	}
}
