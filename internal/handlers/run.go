package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	pkgerrors "github.com/bcqa/bcqa-backend/internal/pkg/errors"
	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/services"
	"github.com/bcqa/bcqa-backend/internal/types"
	"github.com/bcqa/bcqa-backend/internal/utils"
)

const visitDateLayout = "2006-01-02"

type RunHandler struct {
	log           *logger.Logger
	runService    services.RunService
	answerService services.AnswerService
}

func NewRunHandler(log *logger.Logger, runService services.RunService, answerService services.AnswerService) *RunHandler {
	return &RunHandler{
		log:           log.With("handler", "RunHandler"),
		runService:    runService,
		answerService: answerService,
	}
}

type runCreateRequest struct {
	TemplateID     string          `json:"template_id" binding:"required"`
	PRef           string          `json:"p_ref" binding:"required"`
	SiteName       string          `json:"site_name" binding:"required"`
	EngineerName   string          `json:"engineer_name" binding:"required"`
	ContractorName string          `json:"contractor_name"`
	SupplierName   string          `json:"supplier_name"`
	VisitDate      string          `json:"visit_date" binding:"required"`
	TechBands      types.TechBands `json:"tech_bands" binding:"required"`
	APCount        int             `json:"ap_count"`
	Address        string          `json:"address"`
}

type runUpdateRequest struct {
	TemplateID     *string         `json:"template_id"`
	PRef           *string         `json:"p_ref"`
	SiteName       *string         `json:"site_name"`
	EngineerName   *string         `json:"engineer_name"`
	ContractorName *string         `json:"contractor_name"`
	SupplierName   *string         `json:"supplier_name"`
	VisitDate      *string         `json:"visit_date"`
	TechBands      types.TechBands `json:"tech_bands"`
	APCount        *int            `json:"ap_count"`
	Address        *string         `json:"address"`
}

func (h *RunHandler) Create(c *gin.Context) {
	var req runCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	visitDate, err := time.Parse(visitDateLayout, req.VisitDate)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_visit_date", err)
		return
	}

	run, err := h.runService.Create(c.Request.Context(), nil, services.RunCreateInput{
		TemplateID:     req.TemplateID,
		PRef:           req.PRef,
		SiteName:       req.SiteName,
		Address:        req.Address,
		EngineerName:   req.EngineerName,
		ContractorName: req.ContractorName,
		SupplierName:   req.SupplierName,
		VisitDate:      visitDate,
		TechBands:      req.TechBands,
		APCount:        req.APCount,
	})
	if err != nil {
		h.log.Error("Create run failed", "error", err)
		RespondError(c, statusFor(err), "create_run_failed", err)
		return
	}
	RespondOK(c, run)
}

func (h *RunHandler) Update(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	var req runUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	input := services.RunUpdateInput{
		TemplateID:     req.TemplateID,
		PRef:           req.PRef,
		SiteName:       req.SiteName,
		Address:        req.Address,
		EngineerName:   req.EngineerName,
		ContractorName: req.ContractorName,
		SupplierName:   req.SupplierName,
		TechBands:      req.TechBands,
		APCount:        req.APCount,
	}
	if req.VisitDate != nil {
		visitDate, err := time.Parse(visitDateLayout, *req.VisitDate)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_visit_date", err)
			return
		}
		input.VisitDate = &visitDate
	}

	run, err := h.runService.Update(c.Request.Context(), nil, runID, input)
	if err != nil {
		h.log.Error("Update run failed", "run_id", runID, "error", err)
		RespondError(c, statusFor(err), "update_run_failed", err)
		return
	}
	RespondOK(c, run)
}

func (h *RunHandler) List(c *gin.Context) {
	offset := utils.AtoiDefault(c.Query("skip"), 0)
	limit := utils.AtoiDefault(c.Query("limit"), 100)

	runs, err := h.runService.List(c.Request.Context(), nil, offset, limit)
	if err != nil {
		h.log.Error("List runs failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "list_runs_failed", err)
		return
	}
	RespondOK(c, runs)
}

func (h *RunHandler) Delete(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	if err := h.runService.Delete(c.Request.Context(), nil, runID); err != nil {
		h.log.Error("Delete run failed", "run_id", runID, "error", err)
		RespondError(c, statusFor(err), "delete_run_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RunHandler) GetDetails(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	details, err := h.runService.Details(c.Request.Context(), nil, runID)
	if err != nil {
		h.log.Error("Get run details failed", "run_id", runID, "error", err)
		RespondError(c, statusFor(err), "get_run_failed", err)
		return
	}
	RespondOK(c, details)
}

func (h *RunHandler) Submit(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	result, err := h.runService.Submit(c.Request.Context(), nil, runID)
	if err != nil {
		h.log.Error("Submit run failed", "run_id", runID, "error", err)
		RespondError(c, statusFor(err), "submit_run_failed", err)
		return
	}
	RespondOK(c, result)
}

type answerUpsertRequest struct {
	QuestionID string  `json:"question_id" binding:"required"`
	Value      *string `json:"value"`
	Comment    *string `json:"comment"`
}

func (h *RunHandler) UpsertAnswer(c *gin.Context) {
	runID, ok := runIDParam(c)
	if !ok {
		return
	}
	var req answerUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	answer, err := h.answerService.Upsert(c.Request.Context(), nil, runID, req.QuestionID, req.Value, req.Comment)
	if err != nil {
		h.log.Error("Upsert answer failed", "run_id", runID, "question_id", req.QuestionID, "error", err)
		RespondError(c, statusFor(err), "upsert_answer_failed", err)
		return
	}
	RespondOK(c, answer)
}

func runIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_run_id",
			fmt.Errorf("%w: run id %q", pkgerrors.ErrInvalidArgument, c.Param("id")))
		return uuid.Nil, false
	}
	return id, true
}
