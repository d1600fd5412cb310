package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	pkgerrors "github.com/bcqa/bcqa-backend/internal/pkg/errors"
	"github.com/bcqa/bcqa-backend/internal/pkg/logger"
	"github.com/bcqa/bcqa-backend/internal/template"
)

type TemplateHandler struct {
	log      *logger.Logger
	registry *template.Registry
}

func NewTemplateHandler(log *logger.Logger, registry *template.Registry) *TemplateHandler {
	return &TemplateHandler{
		log:      log.With("handler", "TemplateHandler"),
		registry: registry,
	}
}

// List reloads the directory and returns template metadata only.
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.registry.LoadAll(c.Request.Context())
	if err != nil {
		h.log.Error("List templates failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_templates_failed", err)
		return
	}
	metas := make([]template.Meta, 0, len(templates))
	for _, t := range templates {
		metas = append(metas, t.Meta)
	}
	RespondOK(c, metas)
}

func (h *TemplateHandler) Get(c *gin.Context) {
	id := c.Param("templateId")
	t, err := h.registry.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrTemplateNotFound) {
			RespondError(c, http.StatusNotFound, "template_not_found", err)
			return
		}
		h.log.Error("Get template failed", "template_id", id, "error", err)
		RespondError(c, http.StatusInternalServerError, "get_template_failed", err)
		return
	}
	RespondOK(c, t)
}
