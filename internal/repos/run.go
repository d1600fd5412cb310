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

type RunRepo interface {
	Create(ctx context.Context, tx *gorm.DB, run *types.ChecklistRun) (*types.ChecklistRun, error)
	GetByID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*types.ChecklistRun, error)
	List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.ChecklistRun, error)
	Update(ctx context.Context, tx *gorm.DB, run *types.ChecklistRun) error
	Delete(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error
}

type runRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRunRepo(db *gorm.DB, baseLog *logger.Logger) RunRepo {
	return &runRepo{db: db, log: baseLog.With("repo", "RunRepo")}
}

func (r *runRepo) Create(ctx context.Context, tx *gorm.DB, run *types.ChecklistRun) (*types.ChecklistRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *runRepo) GetByID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (*types.ChecklistRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var run types.ChecklistRun
	if err := transaction.WithContext(ctx).
		Where("id = ?", runID).
		First(&run).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &run, nil
}

func (r *runRepo) List(ctx context.Context, tx *gorm.DB, offset, limit int) ([]*types.ChecklistRun, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var runs []*types.ChecklistRun
	if err := transaction.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *runRepo) Update(ctx context.Context, tx *gorm.DB, run *types.ChecklistRun) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(run).Error
}

func (r *runRepo) Delete(ctx context.Context, tx *gorm.DB, runID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", runID).
		Delete(&types.ChecklistRun{}).Error
}
