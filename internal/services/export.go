package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/bcqa/bcqa-backend/internal/observability"
	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/report"
	"github.com/bcqa/bcqa-backend/internal/repos"
	"github.com/bcqa/bcqa-backend/internal/template"
	"github.com/bcqa/bcqa-backend/internal/types"
)

type DeclarationItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type ExportResult struct {
	PDFURL string              `json:"pdf_url"`
	Pages  int                 `json:"pages"`
	Gate   template.GateResult `json:"gate"`
}

type ExportService interface {
	Export(ctx context.Context, tx *gorm.DB, runID uuid.UUID, declarationChecks []DeclarationItem) (*ExportResult, error)
}

type exportService struct {
	db         *gorm.DB
	log        *logger.Logger
	registry   *template.Registry
	runRepo    repos.RunRepo
	answerRepo repos.AnswerRepo
	renderer   *report.Renderer
	exportDir  string
	apiURL     string
}

func NewExportService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *template.Registry,
	runRepo repos.RunRepo,
	answerRepo repos.AnswerRepo,
	renderer *report.Renderer,
	exportDir, apiURL string,
) (ExportService, error) {
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		return nil, fmt.Errorf("create exports dir: %w", err)
	}
	return &exportService{
		db:         db,
		log:        baseLog.With("service", "ExportService"),
		registry:   registry,
		runRepo:    runRepo,
		answerRepo: answerRepo,
		renderer:   renderer,
		exportDir:  exportDir,
		apiURL:     apiURL,
	}, nil
}

// ExportFilename derives the report file name deterministically from the run
// id, so re-exports overwrite rather than accumulate.
func ExportFilename(runID uuid.UUID) string {
	return fmt.Sprintf("run_%s.pdf", runID)
}

func (es *exportService) Export(ctx context.Context, tx *gorm.DB, runID uuid.UUID, declarationChecks []DeclarationItem) (*ExportResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = es.db
	}

	ctx, span := observability.Tracer("bcqa/export").Start(ctx, "export.render",
		trace.WithAttributes(attribute.String("run_id", runID.String())))
	defer span.End()

	run, err := es.runRepo.GetByID(ctx, transaction, runID)
	if err != nil {
		return nil, err
	}
	tpl, err := es.registry.Get(ctx, run.TemplateID)
	if err != nil {
		return nil, err
	}
	answers, err := es.answerRepo.GetByRunID(ctx, transaction, runID)
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(declarationChecks))
	for _, item := range declarationChecks {
		labels = append(labels, item.Label)
	}

	// Advisory: the verdict travels with the export, it does not block it.
	gate := template.EvaluateBeforeExport(tpl, answerInputs(answers), labels)

	input := report.Input{
		Template:         tpl,
		Run:              runInfo(run, tpl),
		Answers:          renderAnswers(answers),
		DeclarationItems: labels,
	}

	filename := ExportFilename(runID)
	path := filepath.Join(es.exportDir, filename)
	pages, err := es.renderer.RenderFile(input, path)
	if err != nil {
		es.log.Error("Report render failed", "run_id", runID, "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("report.pages", pages))
	es.log.Info("Report exported", "run_id", runID, "file", filename, "pages", pages)

	return &ExportResult{
		PDFURL: fmt.Sprintf("%s/exports/%s", es.apiURL, filename),
		Pages:  pages,
		Gate:   gate,
	}, nil
}

func runInfo(run *types.ChecklistRun, tpl *template.Template) report.RunInfo {
	return report.RunInfo{
		ID:              run.ID.String(),
		SiteName:        run.SiteName,
		PRef:            run.PRef,
		EngineerName:    run.EngineerName,
		Status:          run.Status,
		TemplateName:    tpl.Meta.Name,
		TemplateVersion: tpl.Meta.Version,
		APCount:         run.APCount,
		GeneratedAt:     time.Now(),
	}
}

func renderAnswers(answers []*types.ChecklistAnswer) map[string]report.Answer {
	out := make(map[string]report.Answer, len(answers))
	for _, a := range answers {
		photos := make([]report.Photo, 0, len(a.Photos))
		for _, p := range a.Photos {
			photos = append(photos, report.Photo{
				URL:      p.URL,
				FilePath: p.FilePath,
				Caption:  p.Caption,
			})
		}
		out[a.QuestionID] = report.Answer{
			Value:   template.AnswerValue(a.Value),
			Comment: a.Comment,
			Photos:  photos,
		}
	}
	return out
}
