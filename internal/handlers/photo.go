package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/services"
)

type PhotoHandler struct {
	log          *logger.Logger
	photoService services.PhotoService
}

func NewPhotoHandler(log *logger.Logger, photoService services.PhotoService) *PhotoHandler {
	return &PhotoHandler{
		log:          log.With("handler", "PhotoHandler"),
		photoService: photoService,
	}
}

func (h *PhotoHandler) Upload(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	questionID := c.Param("questionId")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	photo, err := h.photoService.Upload(
		c.Request.Context(), nil, runID, questionID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), f,
	)
	if err != nil {
		h.log.Error("Photo upload failed", "run_id", runID, "question_id", questionID, "error", err)
		RespondError(c, statusFor(err), "upload_photo_failed", err)
		return
	}
	RespondOK(c, photo)
}

func (h *PhotoHandler) UpdateCaption(c *gin.Context) {
	if _, ok := runIDParam(c); !ok {
		return
	}
	photoID, ok := photoIDParam(c)
	if !ok {
		return
	}
	caption := c.PostForm("caption")

	photo, err := h.photoService.UpdateCaption(c.Request.Context(), nil, photoID, caption)
	if err != nil {
		h.log.Error("Update caption failed", "photo_id", photoID, "error", err)
		RespondError(c, statusFor(err), "update_caption_failed", err)
		return
	}
	RespondOK(c, photo)
}

func (h *PhotoHandler) Delete(c *gin.Context) {
	if _, ok := runIDParam(c); !ok {
		return
	}
	photoID, ok := photoIDParam(c)
	if !ok {
		return
	}
	if err := h.photoService.Delete(c.Request.Context(), nil, photoID); err != nil {
		h.log.Error("Delete photo failed", "photo_id", photoID, "error", err)
		RespondError(c, statusFor(err), "delete_photo_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PhotoHandler) RegenerateThumbnails(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	updated, total, err := h.photoService.RegenerateThumbnails(c.Request.Context(), nil, runID)
	if err != nil {
		h.log.Error("Regenerate thumbnails failed", "run_id", runID, "error", err)
		RespondError(c, statusFor(err), "regenerate_thumbnails_failed", err)
		return
	}
	RespondOK(c, gin.H{"updated": updated, "total": total})
}

func photoIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("photoId"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_photo_id", err)
		return uuid.Nil, false
	}
	return id, true
}
