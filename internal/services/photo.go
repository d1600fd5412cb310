package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/repos"
	"github.com/bcqa/bcqa-backend/internal/types"
)

type PhotoService interface {
	Upload(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID, originalName, contentType string, r io.Reader) (*types.ChecklistPhoto, error)
	UpdateCaption(ctx context.Context, tx *gorm.DB, photoID uuid.UUID, caption string) (*types.ChecklistPhoto, error)
	Delete(ctx context.Context, tx *gorm.DB, photoID uuid.UUID) error
	// RegenerateThumbnails re-derives previews for every photo of a run whose
	// source file is still readable. Returns updated and total counts.
	RegenerateThumbnails(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (int, int, error)
}

type photoService struct {
	db            *gorm.DB
	log           *logger.Logger
	runRepo       repos.RunRepo
	photoRepo     repos.PhotoRepo
	answerService AnswerService
	store         MediaStore
	thumbnails    ThumbnailService
}

func NewPhotoService(
	db *gorm.DB,
	baseLog *logger.Logger,
	runRepo repos.RunRepo,
	photoRepo repos.PhotoRepo,
	answerService AnswerService,
	store MediaStore,
	thumbnails ThumbnailService,
) PhotoService {
	return &photoService{
		db:            db,
		log:           baseLog.With("service", "PhotoService"),
		runRepo:       runRepo,
		photoRepo:     photoRepo,
		answerService: answerService,
		store:         store,
		thumbnails:    thumbnails,
	}
}

func (ps *photoService) Upload(ctx context.Context, tx *gorm.DB, runID uuid.UUID, questionID, originalName, contentType string, r io.Reader) (*types.ChecklistPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}

	if _, err := ps.runRepo.GetByID(ctx, transaction, runID); err != nil {
		return nil, err
	}

	answer, err := ps.answerService.EnsureExists(ctx, transaction, runID, questionID)
	if err != nil {
		return nil, err
	}

	fileID := uuid.New()
	stored, err := ps.store.SaveUpload(fileID, originalName, contentType, r)
	if err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	photo := &types.ChecklistPhoto{
		ID:           fileID,
		AnswerID:     answer.ID,
		URL:          stored.URL,
		FilePath:     stored.FilePath,
		ThumbnailURL: ps.makeThumbnail(fileID, stored, questionID),
		CreatedAt:    time.Now(),
	}
	created, err := ps.photoRepo.Create(ctx, transaction, photo)
	if err != nil {
		_ = ps.store.Delete(stored.FilePath)
		return nil, err
	}
	ps.log.Info("Photo uploaded", "run_id", runID, "question_id", questionID, "photo_id", fileID)
	return created, nil
}

// makeThumbnail is best-effort: a real preview if the source decodes, a
// labeled placeholder if not, and the original URL when even that fails.
func (ps *photoService) makeThumbnail(fileID uuid.UUID, stored *StoredObject, label string) string {
	thumbName := fmt.Sprintf("%s_thumb.jpg", fileID)
	thumbPath := ps.store.PathFor(thumbName)

	err := ps.thumbnails.Generate(stored.FilePath, thumbPath)
	if err == nil {
		return ps.store.URLFor(thumbName)
	}
	ps.log.Warn("Thumbnail generation failed, trying placeholder", "file", stored.FilePath, "error", err)
	if err := ps.thumbnails.Placeholder(label, thumbPath); err == nil {
		return ps.store.URLFor(thumbName)
	}
	return stored.URL
}

func (ps *photoService) UpdateCaption(ctx context.Context, tx *gorm.DB, photoID uuid.UUID, caption string) (*types.ChecklistPhoto, error) {
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}

	photo, err := ps.photoRepo.GetByID(ctx, transaction, photoID)
	if err != nil {
		return nil, err
	}
	photo.Caption = caption
	if err := ps.photoRepo.Update(ctx, transaction, photo); err != nil {
		return nil, err
	}
	return photo, nil
}

func (ps *photoService) Delete(ctx context.Context, tx *gorm.DB, photoID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}

	photo, err := ps.photoRepo.GetByID(ctx, transaction, photoID)
	if err != nil {
		return err
	}

	if err := ps.photoRepo.Delete(ctx, transaction, photoID); err != nil {
		return err
	}

	if photo.FilePath != "" {
		if err := ps.store.Delete(photo.FilePath); err != nil {
			ps.log.Warn("Failed to delete photo file (ignored)", "file", photo.FilePath, "error", err)
		}
	}
	if thumbPath, ok := ps.store.PathFromURL(photo.ThumbnailURL); ok && thumbPath != photo.FilePath {
		if err := ps.store.Delete(thumbPath); err != nil {
			ps.log.Warn("Failed to delete thumbnail file (ignored)", "file", thumbPath, "error", err)
		}
	}
	return nil
}

func (ps *photoService) RegenerateThumbnails(ctx context.Context, tx *gorm.DB, runID uuid.UUID) (int, int, error) {
	transaction := tx
	if transaction == nil {
		transaction = ps.db
	}

	if _, err := ps.runRepo.GetByID(ctx, transaction, runID); err != nil {
		return 0, 0, err
	}
	photos, err := ps.photoRepo.GetByRunID(ctx, transaction, runID)
	if err != nil {
		return 0, 0, err
	}

	updated := 0
	for _, photo := range photos {
		if photo.FilePath == "" {
			continue
		}
		if _, err := os.Stat(photo.FilePath); err != nil {
			continue
		}
		thumbName := fmt.Sprintf("%s_thumb.jpg", photo.ID)
		thumbPath := ps.store.PathFor(thumbName)
		if err := ps.thumbnails.Generate(photo.FilePath, thumbPath); err != nil {
			ps.log.Warn("Thumbnail regeneration failed (skipped)", "photo_id", photo.ID, "error", err)
			continue
		}
		photo.ThumbnailURL = ps.store.URLFor(thumbName)
		if err := ps.photoRepo.Update(ctx, transaction, photo); err != nil {
			return updated, len(photos), err
		}
		updated++
	}
	return updated, len(photos), nil
}
