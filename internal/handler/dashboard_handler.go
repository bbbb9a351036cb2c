package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/response"
)

type dashboardService interface {
	Project(ctx context.Context, projectID string) (*dto.ProjectDashboardResponse, bool, error)
	Portfolio(ctx context.Context) (*dto.PortfolioDashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Project godoc
// @Summary Project rollup and health indicators
// @Tags Dashboard
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/dashboard [get]
func (h *DashboardHandler) Project(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	id, ok := pathParam(c, "id")
	if !ok {
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Project(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithCache(c, summary, nil, cacheHit, start)
}

// Portfolio godoc
// @Summary Portfolio statistics
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/portfolio [get]
func (h *DashboardHandler) Portfolio(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.service.Portfolio(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	respondWithCache(c, summary, nil, cacheHit, start)
}
