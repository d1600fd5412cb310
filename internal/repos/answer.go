package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/bcqa/bcqa-backend/internal/pkg/errors"
	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/types"
)

type AnswerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, answer *types.ChecklistAnswer) (*types.ChecklistAnswer, error)
	GetByRunAndQuestion(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID string) (*types.ChecklistAnswer, error)
	GetByRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ChecklistAnswer, error)
	Update(ctx context.Context, tx *gorm.DB, answer *types.ChecklistAnswer) error
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	return &answerRepo{db: db, log: baseLog.With("repo", "AnswerRepo")}
}

func (r *answerRepo) Create(ctx context.Context, tx *gorm.DB, answer *types.ChecklistAnswer) (*types.ChecklistAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(answer).Error; err != nil {
		return nil, err
	}
	return answer, nil
}

func (r *answerRepo) GetByRunAndQuestion(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID string) (*types.ChecklistAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var answer types.ChecklistAnswer
	if err := transaction.WithContext(ctx).
		Where("run_id = ? AND question_id = ?", runID, questionID).
		First(&answer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &answer, nil
}

// GetByRunID returns the run's full answer set with photos preloaded, photos
// ordered by creation time within each answer.
func (r *answerRepo) GetByRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ChecklistAnswer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var answers []*types.ChecklistAnswer
	if err := transaction.WithContext(ctx).
		Preload("Photos", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) Update(ctx context.Context, tx *gorm.DB, answer *types.ChecklistAnswer) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(answer).Error
}
