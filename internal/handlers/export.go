package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/services"
)

type ExportHandler struct {
	log           *logger.Logger
	exportService services.ExportService
}

func NewExportHandler(log *logger.Logger, exportService services.ExportService) *ExportHandler {
	return &ExportHandler{
		log:           log.With("handler", "ExportHandler"),
		exportService: exportService,
	}
}

type exportRequest struct {
	DeclarationChecks []services.DeclarationItem `json:"declaration_checks"`
}

func (h *ExportHandler) Export(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	// An empty body means "no declaration checks".
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_body", err)
			return
		}
	}

	result, err := h.exportService.Export(c.Request.Context(), nil, runID, req.DeclarationChecks)
	if err != nil {
		h.log.Error("Export failed", "run_id", runID, "error", err)
		RespondError(c, statusFor(err), "export_failed", err)
		return
	}
	RespondOK(c, result)
}
