package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/bcqa/bcqa-backend/internal/pkg/errors"
	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/repos"
	"github.com/bcqa/bcqa-backend/internal/template"
	"github.com/bcqa/bcqa-backend/internal/types"
)

type RunCreateInput struct {
	TemplateID     string
	PRef           string
	SiteName       string
	Address        string
	EngineerName   string
	ContractorName string
	SupplierName   string
	VisitDate      time.Time
	TechBands      types.TechBands
	APCount        int
}

// RunUpdateInput carries optional fields; nil means "leave unchanged".
type RunUpdateInput struct {
	TemplateID     *string
	PRef           *string
	SiteName       *string
	Address        *string
	EngineerName   *string
	ContractorName *string
	SupplierName   *string
	VisitDate      *time.Time
	TechBands      types.TechBands
	APCount        *int
}

type TemplateSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type PhotoView struct {
	ID           uuid.UUID `json:"id"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Caption      string    `json:"caption,omitempty"`
}

type AnswerView struct {
	Value   string      `json:"value,omitempty"`
	Comment string      `json:"comment,omitempty"`
	Photos  []PhotoView `json:"photos"`
}

type RunDetails struct {
	Run             *types.ChecklistRun       `json:"run"`
	TemplateSummary TemplateSummary           `json:"template_summary"`
	Buckets         []template.BucketProgress `json:"buckets"`
	Answers         map[string]AnswerView     `json:"answers"`
}

type SubmitResult struct {
	Run  *types.ChecklistRun `json:"run,omitempty"`
	Gate template.GateResult `json:"gate"`
}

type RunService interface {
	Create(ctx context.Context, tx *gorm.DB, input RunCreateInput) (*types.ChecklistRun, error)
	Update(ctx context.Context, tx *gorm.DB, runID uuid.UUID, input RunUpdateInput) (*types.ChecklistRun, error)
	List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.ChecklistRun, error)
	Delete(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error
	Details(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*RunDetails, error)
	// Submit transitions draft -> submitted when the before_declare rules
	// pass; the gate verdict is returned either way.
	Submit(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*SubmitResult, error)
}

type runService struct {
	db         *gorm.DB
	log        *logger.Logger
	registry   *template.Registry
	runRepo    repos.RunRepo
	answerRepo repos.AnswerRepo
	photoRepo  repos.PhotoRepo
	store      MediaStore
}

func NewRunService(
	db *gorm.DB,
	baseLog *logger.Logger,
	registry *template.Registry,
	runRepo repos.RunRepo,
	answerRepo repos.AnswerRepo,
	photoRepo repos.PhotoRepo,
	store MediaStore,
) RunService {
	return &runService{
		db:         db,
		log:        baseLog.With("service", "RunService"),
		registry:   registry,
		runRepo:    runRepo,
		answerRepo: answerRepo,
		photoRepo:  photoRepo,
		store:      store,
	}
}

func (rs *runService) Create(ctx context.Context, tx *gorm.DB, input RunCreateInput) (*types.ChecklistRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}

	if _, err := rs.registry.Get(ctx, input.TemplateID); err != nil {
		return nil, err
	}
	bands, err := input.TechBands.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err)
	}

	run := &types.ChecklistRun{
		ID:             uuid.New(),
		TemplateID:     input.TemplateID,
		Status:         types.RunStatusDraft,
		PRef:           input.PRef,
		SiteName:       input.SiteName,
		Address:        input.Address,
		EngineerName:   input.EngineerName,
		ContractorName: input.ContractorName,
		SupplierName:   input.SupplierName,
		VisitDate:      input.VisitDate,
		TechBands:      bands,
		APCount:        input.APCount,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	rs.log.Info("Creating run", "run_id", run.ID, "template_id", run.TemplateID)
	return rs.runRepo.Create(ctx, transaction, run)
}

func (rs *runService) Update(ctx context.Context, tx *gorm.DB, runID uuid.UUID, input RunUpdateInput) (*types.ChecklistRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}

	run, err := rs.runRepo.GetByID(ctx, transaction, runID)
	if err != nil {
		return nil, err
	}
	if !run.IsDraft() {
		return nil, pkgerrors.ErrRunNotDraft
	}

	if input.TemplateID != nil {
		if _, err := rs.registry.Get(ctx, *input.TemplateID); err != nil {
			return nil, err
		}
		run.TemplateID = *input.TemplateID
	}
	if input.PRef != nil {
		run.PRef = *input.PRef
	}
	if input.SiteName != nil {
		run.SiteName = *input.SiteName
	}
	if input.Address != nil {
		run.Address = *input.Address
	}
	if input.EngineerName != nil {
		run.EngineerName = *input.EngineerName
	}
	if input.ContractorName != nil {
		run.ContractorName = *input.ContractorName
	}
	if input.SupplierName != nil {
		run.SupplierName = *input.SupplierName
	}
	if input.VisitDate != nil {
		run.VisitDate = *input.VisitDate
	}
	if input.TechBands != nil {
		bands, err := input.TechBands.ToJSON()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", pkgerrors.ErrInvalidArgument, err)
		}
		run.TechBands = bands
	}
	if input.APCount != nil {
		run.APCount = *input.APCount
	}
	run.UpdatedAt = time.Now()

	if err := rs.runRepo.Update(ctx, transaction, run); err != nil {
		return nil, err
	}
	return run, nil
}

func (rs *runService) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.ChecklistRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}
	return rs.runRepo.List(ctx, transaction, offset, limit)
}

// Delete removes a draft run with its answers, photo rows and photo files.
func (rs *runService) Delete(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}

	run, err := rs.runRepo.GetByID(ctx, transaction, runID)
	if err != nil {
		return err
	}
	if !run.IsDraft() {
		return pkgerrors.ErrRunNotDraft
	}

	photos, err := rs.photoRepo.GetByRunID(ctx, transaction, runID)
	if err != nil {
		return err
	}

	if err := transaction.WithContext(ctx).Transaction(func(innerTx *gorm.DB) error {
		for _, p := range photos {
			if err := rs.photoRepo.Delete(ctx, innerTx, p.ID); err != nil {
				return err
			}
		}
		if err := innerTx.Where("run_id = ?", runID).Delete(&types.ChecklistAnswer{}).Error; err != nil {
			return err
		}
		return rs.runRepo.Delete(ctx, innerTx, runID)
	}); err != nil {
		return err
	}

	// File cleanup is best-effort, after the rows are gone.
	for _, p := range photos {
		if p.FilePath != "" {
			if err := rs.store.Delete(p.FilePath); err != nil {
				rs.log.Warn("Failed to delete photo file (ignored)", "file", p.FilePath, "error", err)
			}
		}
		if thumbPath, ok := rs.store.PathFromURL(p.ThumbnailURL); ok && thumbPath != p.FilePath {
			if err := rs.store.Delete(thumbPath); err != nil {
				rs.log.Warn("Failed to delete thumbnail file (ignored)", "file", thumbPath, "error", err)
			}
		}
	}
	return nil
}

func (rs *runService) Details(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*RunDetails, error) {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}

	run, err := rs.runRepo.GetByID(ctx, transaction, runID)
	if err != nil {
		return nil, err
	}
	tpl, err := rs.registry.Get(ctx, run.TemplateID)
	if err != nil {
		return nil, err
	}
	answers, err := rs.answerRepo.GetByRunID(ctx, transaction, runID)
	if err != nil {
		return nil, err
	}

	views := make(map[string]AnswerView, len(answers))
	for _, a := range answers {
		photos := make([]PhotoView, 0, len(a.Photos))
		for _, p := range a.Photos {
			photos = append(photos, PhotoView{
				ID:           p.ID,
				URL:          p.URL,
				ThumbnailURL: p.ThumbnailURL,
				Caption:      p.Caption,
			})
		}
		views[a.QuestionID] = AnswerView{Value: a.Value, Comment: a.Comment, Photos: photos}
	}

	return &RunDetails{
		Run: run,
		TemplateSummary: TemplateSummary{
			ID:      tpl.Meta.TemplateID,
			Name:    tpl.Meta.Name,
			Version: tpl.Meta.Version,
		},
		Buckets: template.Progress(tpl, answerInputs(answers)),
		Answers: views,
	}, nil
}

func (rs *runService) Submit(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*SubmitResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = rs.db
	}

	run, err := rs.runRepo.GetByID(ctx, transaction, runID)
	if err != nil {
		return nil, err
	}
	if !run.IsDraft() {
		return nil, pkgerrors.ErrRunNotDraft
	}
	tpl, err := rs.registry.Get(ctx, run.TemplateID)
	if err != nil {
		return nil, err
	}
	answers, err := rs.answerRepo.GetByRunID(ctx, transaction, runID)
	if err != nil {
		return nil, err
	}

	gate := template.EvaluateBeforeDeclare(tpl, answerInputs(answers))
	if !gate.Passed {
		return &SubmitResult{Gate: gate}, nil
	}

	now := time.Now()
	run.Status = types.RunStatusSubmitted
	run.SubmittedAt = &now
	run.UpdatedAt = now
	if err := rs.runRepo.Update(ctx, transaction, run); err != nil {
		return nil, err
	}
	rs.log.Info("Run submitted", "run_id", run.ID)
	return &SubmitResult{Run: run, Gate: gate}, nil
}
