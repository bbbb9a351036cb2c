package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/middleware"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

type fakeDashboardSrv struct {
	projectResp   *dto.ProjectDashboardResponse
	projectErr    error
	projectHit    bool
	portfolioResp *dto.PortfolioDashboardResponse
	lastProject   string
}

func (f *fakeDashboardSrv) Project(_ context.Context, projectID string) (*dto.ProjectDashboardResponse, bool, error) {
	f.lastProject = projectID
	return f.projectResp, f.projectHit, f.projectErr
}

func (f *fakeDashboardSrv) Portfolio(context.Context) (*dto.PortfolioDashboardResponse, bool, error) {
	return f.portfolioResp, false, nil
}

func TestDashboardHandlerProjectCacheHit(t *testing.T) {
	srv := &fakeDashboardSrv{
		projectResp: &dto.ProjectDashboardResponse{ProjectID: "proj-1", Name: "Sunridge"},
		projectHit:  true,
	}
	handler := NewDashboardHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/projects/proj-1/dashboard", "", gin.Param{Key: "id", Value: "proj-1"})

	handler.Project(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "proj-1", srv.lastProject)
	assert.Equal(t, "HIT", rec.Header().Get(middleware.CacheStatusHeader))
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	assert.Contains(t, envelope.Meta, "processing_time_ms")
	var data dto.ProjectDashboardResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "Sunridge", data.Name)
}

func TestDashboardHandlerProjectNotFound(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{projectErr: appErrors.Clone(appErrors.ErrNotFound, "project not found")})
	c, rec := newTestContext(http.MethodGet, "/projects/missing/dashboard", "", gin.Param{Key: "id", Value: "missing"})

	handler.Project(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestDashboardHandlerPortfolio(t *testing.T) {
	handler := NewDashboardHandler(&fakeDashboardSrv{
		portfolioResp: &dto.PortfolioDashboardResponse{PortfolioStats: models.PortfolioStats{TotalProjects: 3}},
	})
	c, rec := newTestContext(http.MethodGet, "/dashboard/portfolio", "")

	handler.Portfolio(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get(middleware.CacheStatusHeader))
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, false, envelope.Meta["cache_hit"])
}

func TestDashboardHandlerWithoutService(t *testing.T) {
	handler := NewDashboardHandler(nil)
	c, rec := newTestContext(http.MethodGet, "/dashboard/portfolio", "")

	handler.Portfolio(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
