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

type PhotoRepo interface {
	Create(ctx context.Context, tx *gorm.DB, photo *types.ChecklistPhoto) (*types.ChecklistPhoto, error)
	GetByID(ctx context.Context, tx *gorm.DB, photoID uuid.UUID) (*types.ChecklistPhoto, error)
	GetByRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ChecklistPhoto, error)
	Update(ctx context.Context, tx *gorm.DB, photo *types.ChecklistPhoto) error
	Delete(ctx context.Context, tx *gorm.DB, photoID uuid.UUID) error
}

type photoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPhotoRepo(db *gorm.DB, baseLog *logger.Logger) PhotoRepo {
	return &photoRepo{db: db, log: baseLog.With("repo", "PhotoRepo")}
}

func (r *photoRepo) Create(ctx context.Context, tx *gorm.DB, photo *types.ChecklistPhoto) (*types.ChecklistPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(photo).Error; err != nil {
		return nil, err
	}
	return photo, nil
}

func (r *photoRepo) GetByID(ctx context.Context, tx *gorm.DB, photoID uuid.UUID) (*types.ChecklistPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var photo types.ChecklistPhoto
	if err := transaction.WithContext(ctx).
		Where("id = ?", photoID).
		First(&photo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, err
	}
	return &photo, nil
}

func (r *photoRepo) GetByRunID(ctx context.Context, tx *gorm.DB, runID uuid.UUID) ([]*types.ChecklistPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var photos []*types.ChecklistPhoto
	if err := transaction.WithContext(ctx).
		Joins("JOIN checklist_answers ON checklist_answers.id = checklist_photos.answer_id").
		Where("checklist_answers.run_id = ?", runID).
		Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *photoRepo) Update(ctx context.Context, tx *gorm.DB, photo *types.ChecklistPhoto) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(photo).Error
}

func (r *photoRepo) Delete(ctx context.Context, tx *gorm.DB, photoID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", photoID).
		Delete(&types.ChecklistPhoto{}).Error
}
