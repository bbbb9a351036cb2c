package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

type fakeProjectSrv struct {
	created   *dto.CreateProjectRequest
	query     dto.ProjectListQuery
	progress  *dto.UpdateProgressRequest
	actor     string
	createErr error
}

func (f *fakeProjectSrv) Create(_ context.Context, req dto.CreateProjectRequest) (*dto.ProjectView, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &req
	return &dto.ProjectView{ID: "proj-1", Name: req.Name}, nil
}

func (f *fakeProjectSrv) Get(_ context.Context, id string) (*dto.ProjectView, error) {
	return &dto.ProjectView{ID: id}, nil
}

func (f *fakeProjectSrv) List(_ context.Context, query dto.ProjectListQuery) ([]dto.ProjectSummary, *models.Pagination, error) {
	f.query = query
	return []dto.ProjectSummary{{ID: "proj-1"}}, &models.Pagination{Page: 2, PageSize: 5, TotalCount: 6}, nil
}

func (f *fakeProjectSrv) UpdateProgress(_ context.Context, id, actor string, req dto.UpdateProgressRequest) (*dto.ProjectSummary, error) {
	if actor == "" {
		return nil, appErrors.ErrUnauthorized
	}
	f.actor = actor
	f.progress = &req
	return &dto.ProjectSummary{ID: id, Progress: *req.Progress}, nil
}

func TestProjectHandlerCreate(t *testing.T) {
	srv := &fakeProjectSrv{}
	handler := NewProjectHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/projects", `{"name":"Sunridge","client":"Sunridge Energy","type":"Solar","capacity":"50MW","location":"Nevada"}`)

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, srv.created)
	assert.Equal(t, "Solar", srv.created.Type)
	assert.Equal(t, "50MW", srv.created.Capacity)
}

func TestProjectHandlerCreateRejectsMalformedJSON(t *testing.T) {
	srv := &fakeProjectSrv{}
	handler := NewProjectHandler(srv)
	c, rec := newTestContext(http.MethodPost, "/projects", `{"name":`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, rec).Error.Code)
	assert.Nil(t, srv.created)
}

func TestProjectHandlerCreateMapsServiceError(t *testing.T) {
	handler := NewProjectHandler(&fakeProjectSrv{createErr: appErrors.ErrUnknownProjectType})
	c, rec := newTestContext(http.MethodPost, "/projects", `{"name":"X","type":"Geothermal"}`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrUnknownProjectType.Code, decodeEnvelope(t, rec).Error.Code)
}

func TestProjectHandlerListBindsQuery(t *testing.T) {
	srv := &fakeProjectSrv{}
	handler := NewProjectHandler(srv)
	c, rec := newTestContext(http.MethodGet, "/projects?search=sun&type=wind&sort=capacity&order=desc&page=2&page_size=5", "")

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.ProjectListQuery{Search: "sun", Type: "wind", Sort: "capacity", Order: "desc", Page: 2, PageSize: 5}, srv.query)
	assert.Equal(t, float64(6), decodeEnvelope(t, rec).Pagination["total_count"])
}

func TestProjectHandlerUpdateProgressUsesActor(t *testing.T) {
	srv := &fakeProjectSrv{}
	handler := NewProjectHandler(srv)
	c, rec := newTestContext(http.MethodPut, "/projects/proj-1/progress", `{"progress":70}`, gin.Param{Key: "id", Value: "proj-1"})
	withActor(c, "pm")

	handler.UpdateProgress(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pm", srv.actor)
	require.NotNil(t, srv.progress)
	assert.Equal(t, 70, *srv.progress.Progress)
}

func TestProjectHandlerUpdateProgressWithoutActor(t *testing.T) {
	handler := NewProjectHandler(&fakeProjectSrv{})
	c, rec := newTestContext(http.MethodPut, "/projects/proj-1/progress", `{"progress":70}`, gin.Param{Key: "id", Value: "proj-1"})

	handler.UpdateProgress(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectHandlerGetRequiresID(t *testing.T) {
	handler := NewProjectHandler(&fakeProjectSrv{})
	c, rec := newTestContext(http.MethodGet, "/projects/", "")

	handler.Get(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
