package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/response"
)

type documentService interface {
	History(ctx context.Context, documentID string) (*dto.DocumentHistoryResponse, error)
	Submit(ctx context.Context, documentID, actor string, req dto.SubmitVersionRequest) (*dto.LedgerChangeResponse, error)
	Review(ctx context.Context, documentID string, versionNumber int, actor string, req dto.ReviewRequest) (*dto.LedgerChangeResponse, error)
}

// DocumentHandler exposes the required document ledger.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// History godoc
// @Summary Get a required document with its version ledger
// @Tags Documents
// @Produce json
// @Param id path string true "Required document ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) History(c *gin.Context) {
	id, ok := pathParam(c, "id")
	if !ok {
		return
	}
	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}

// Submit godoc
// @Summary Submit a new document version
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Required document ID"
// @Param X-Actor header string true "Uploader"
// @Param payload body dto.SubmitVersionRequest true "Version metadata"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /documents/{id}/versions [post]
func (h *DocumentHandler) Submit(c *gin.Context) {
	id, ok := pathParam(c, "id")
	if !ok {
		return
	}
	var req dto.SubmitVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid version payload"))
		return
	}
	result, err := h.service.Submit(c.Request.Context(), id, actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Review godoc
// @Summary Record the review outcome of the current version
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Required document ID"
// @Param version path int true "Version number"
// @Param X-Actor header string true "Reviewer"
// @Param payload body dto.ReviewRequest true "Review outcome"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /documents/{id}/versions/{version}/review [post]
func (h *DocumentHandler) Review(c *gin.Context) {
	id, ok := pathParam(c, "id")
	if !ok {
		return
	}
	version, err := strconv.Atoi(c.Param("version"))
	if err != nil || version <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "version must be a positive integer"))
		return
	}
	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	result, err := h.service.Review(c.Request.Context(), id, version, actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
