package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/response"
)

type milestoneService interface {
	AddOptionalDocument(ctx context.Context, milestoneID, actor string, req dto.AddOptionalDocumentRequest) (*models.OptionalDocument, error)
	ListOptionalDocuments(ctx context.Context, milestoneID string) ([]models.OptionalDocument, error)
}

// MilestoneHandler exposes optional document endpoints.
type MilestoneHandler struct {
	service milestoneService
}

// NewMilestoneHandler constructs the handler.
func NewMilestoneHandler(service milestoneService) *MilestoneHandler {
	return &MilestoneHandler{service: service}
}

// AddOptionalDocument godoc
// @Summary Attach an optional document to a milestone
// @Tags Milestones
// @Accept json
// @Produce json
// @Param id path string true "Milestone ID"
// @Param X-Actor header string true "Uploader"
// @Param payload body dto.AddOptionalDocumentRequest true "Document metadata"
// @Success 201 {object} response.Envelope
// @Router /milestones/{id}/optional-documents [post]
func (h *MilestoneHandler) AddOptionalDocument(c *gin.Context) {
	id, ok := pathParam(c, "id")
	if !ok {
		return
	}
	var req dto.AddOptionalDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid optional document payload"))
		return
	}
	doc, err := h.service.AddOptionalDocument(c.Request.Context(), id, actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// ListOptionalDocuments godoc
// @Summary List optional documents of a milestone
// @Tags Milestones
// @Produce json
// @Param id path string true "Milestone ID"
// @Success 200 {object} response.Envelope
// @Router /milestones/{id}/optional-documents [get]
func (h *MilestoneHandler) ListOptionalDocuments(c *gin.Context) {
	id, ok := pathParam(c, "id")
	if !ok {
		return
	}
	docs, err := h.service.ListOptionalDocuments(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}
