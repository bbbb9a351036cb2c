package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
	"github.com/noah-isme/epc-dashboard-api/pkg/response"
)

type activityService interface {
	List(ctx context.Context, projectID string, page, size int) ([]models.Activity, *models.Pagination, error)
}

// ActivityHandler exposes the project activity feed.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service activityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List godoc
// @Summary Project activity feed, newest first
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /projects/{id}/activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
	id, ok := pathParam(c, "id")
	if !ok {
		return
	}
	page, size := pageQuery(c)
	items, pagination, err := h.service.List(c.Request.Context(), id, page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}
