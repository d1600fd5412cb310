package services

import (
	"context"
	"errors"
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

type AnswerService interface {
	// Upsert records a value and/or comment for one question of a run. Nil
	// fields leave the stored field untouched.
	Upsert(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID string, value, comment *string) (*types.ChecklistAnswer, error)
	// EnsureExists is the idempotent get-or-create keyed by run+question.
	// Photo uploads call it so an answer row exists before any value is
	// recorded.
	EnsureExists(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID string) (*types.ChecklistAnswer, error)
	GetForRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ChecklistAnswer, error)
}

type answerService struct {
	db         *gorm.DB
	log        *logger.Logger
	runRepo    repos.RunRepo
	answerRepo repos.AnswerRepo
}

func NewAnswerService(db *gorm.DB, baseLog *logger.Logger, runRepo repos.RunRepo, answerRepo repos.AnswerRepo) AnswerService {
	return &answerService{
		db:         db,
		log:        baseLog.With("service", "AnswerService"),
		runRepo:    runRepo,
		answerRepo: answerRepo,
	}
}

func (as *answerService) Upsert(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID string, value, comment *string) (*types.ChecklistAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = as.db
	}

	if value != nil && !template.AnswerValue(*value).Valid() {
		return nil, fmt.Errorf("%w: answer value %q", pkgerrors.ErrInvalidArgument, *value)
	}

	if _, err := as.runRepo.GetByID(ctx, transaction, runID); err != nil {
		return nil, err
	}

	answer, err := as.answerRepo.GetByRunAndQuestion(ctx, transaction, runID, questionID)
	switch {
	case err == nil:
		if value != nil {
			answer.Value = *value
		}
		if comment != nil {
			answer.Comment = *comment
		}
		if err := as.answerRepo.Update(ctx, transaction, answer); err != nil {
			return nil, err
		}
		return answer, nil
	case errors.Is(err, pkgerrors.ErrNotFound):
		answer = &types.ChecklistAnswer{
			ID:         uuid.New(),
			RunID:      runID,
			QuestionID: questionID,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if value != nil {
			answer.Value = *value
		}
		if comment != nil {
			answer.Comment = *comment
		}
		return as.answerRepo.Create(ctx, transaction, answer)
	default:
		return nil, err
	}
}

func (as *answerService) EnsureExists(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID string) (*types.ChecklistAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = as.db
	}

	answer, err := as.answerRepo.GetByRunAndQuestion(ctx, transaction, runID, questionID)
	if err == nil {
		return answer, nil
	}
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, err
	}

	answer = &types.ChecklistAnswer{
		ID:         uuid.New(),
		RunID:      runID,
		QuestionID: questionID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	return as.answerRepo.Create(ctx, transaction, answer)
}

func (as *answerService) GetForRun(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ChecklistAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = as.db
	}
	return as.answerRepo.GetByRunID(ctx, transaction, runID)
}

// answerInputs projects stored answer rows into the view the progress
// calculator and export gate consume.
func answerInputs(answers []*types.ChecklistAnswer) map[string]template.AnswerInput {
	out := make(map[string]template.AnswerInput, len(answers))
	for _, a := range answers {
		out[a.QuestionID] = template.AnswerInput{
			Value:      template.AnswerValue(a.Value),
			Comment:    a.Comment,
			PhotoCount: len(a.Photos),
		}
	}
	return out
}
