package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/catalog"
	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/magnitude"
)

func newProjectServiceFixture(t *testing.T, repo *fakeProjectRepo) (*ProjectService, *fakeActivityRepo, *recordingInvalidator) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	activities := &fakeActivityRepo{}
	invalidator := &recordingInvalidator{}
	svc := NewProjectService(ProjectServiceParams{
		Projects:   repo,
		Activities: activities,
		Catalog:    cat,
		Dashboard:  invalidator,
		Metrics:    NewMetricsService(),
		Validator:  validator.New(),
		Logger:     zap.NewNop(),
	})
	svc.now = func() time.Time { return fixedNow }
	svc.newID = sequentialIDs("id")
	return svc, activities, invalidator
}

func solarRequest() dto.CreateProjectRequest {
	return dto.CreateProjectRequest{
		Name:     "Sunridge Solar Farm",
		Client:   "Sunridge Energy",
		Location: "Nevada",
		Capacity: "50MW",
		Type:     "Solar",
		Budget:   "$2.5M",
	}
}

func TestProjectServiceCreateSeedsTemplate(t *testing.T) {
	repo := newFakeProjectRepo()
	svc, _, invalidator := newProjectServiceFixture(t, repo)

	view, err := svc.Create(context.Background(), solarRequest())
	require.NoError(t, err)

	require.Len(t, repo.created, 1)
	assert.Len(t, repo.created[0].Milestones, 8)
	assert.Equal(t, models.ProjectStatusPlanning, repo.created[0].Status)
	assert.Len(t, view.Milestones, 8)
	for i, m := range view.Milestones {
		assert.Equal(t, i+1, m.Order)
		assert.Equal(t, models.MilestoneNotStarted, m.Status)
		require.NotNil(t, m.Progress)
		assert.Equal(t, 0, *m.Progress)
		for _, d := range m.RequiredDocuments {
			assert.Equal(t, models.DocumentNotSubmitted, d.Status)
			assert.Empty(t, d.Versions)
		}
	}
	assert.Equal(t, 8, view.Rollup.NotStartedMilestones)
	require.NotNil(t, view.Rollup.BudgetUtilization)
	assert.Equal(t, 0, *view.Rollup.BudgetUtilization)
	assert.Equal(t, models.BudgetOnTrack, view.Health.Budget)
	assert.Equal(t, models.DocumentationIncomplete, view.Health.Documentation)
	require.NotNil(t, view.CapacityMW)
	assert.Equal(t, 50.0, *view.CapacityMW)
	assert.Equal(t, []string{"clientInfo", "needsAnalysis", "schedule"}, view.IncompleteSections)
	assert.Empty(t, view.UnknownFields)
	assert.Equal(t, []string{view.ID}, invalidator.projects)
}

func TestProjectServiceCreateMilestoneLimit(t *testing.T) {
	repo := newFakeProjectRepo()
	svc, _, _ := newProjectServiceFixture(t, repo)

	req := solarRequest()
	req.Type = "battery-storage"
	req.MilestoneLimit = 3
	view, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, models.ProjectTypeBatteryStorage, view.Type)
	assert.Len(t, view.Milestones, 3)
}

func TestProjectServiceCreateValidation(t *testing.T) {
	repo := newFakeProjectRepo()
	svc, _, _ := newProjectServiceFixture(t, repo)
	ctx := context.Background()

	req := solarRequest()
	req.Type = "Geothermal"
	_, err := svc.Create(ctx, req)
	requireCode(t, err, appErrors.ErrUnknownProjectType.Code)

	req = solarRequest()
	req.Capacity = "fifty"
	_, err = svc.Create(ctx, req)
	requireCode(t, err, appErrors.ErrValidation.Code)

	req = solarRequest()
	req.Name = ""
	_, err = svc.Create(ctx, req)
	requireCode(t, err, appErrors.ErrValidation.Code)

	req = solarRequest()
	req.Status = "Dormant"
	_, err = svc.Create(ctx, req)
	requireCode(t, err, appErrors.ErrValidation.Code)

	assert.Empty(t, repo.created)
}

func reviewedDocument(docID, versionID string, status models.DocumentStatus) models.RequiredDocument {
	reviewer := "bob"
	reviewedAt := fixedNow
	pointer := versionID
	return models.RequiredDocument{
		ID:               docID,
		CurrentVersionID: &pointer,
		Versions: []models.DocumentVersion{{
			ID:         versionID,
			DocumentID: docID,
			Version:    1,
			Status:     status,
			ReviewedBy: &reviewer,
			ReviewedAt: &reviewedAt,
		}},
	}
}

func degradedProject() *models.Project {
	return &models.Project{
		ID:       "proj-1",
		Name:     "Hillside Wind",
		Type:     models.ProjectTypeWind,
		Progress: 40,
		Capacity: magnitude.PowerOf("100MW"),
		Budget:   magnitude.MoneyOf("$2.5M"),
		Spent:    magnitude.MoneyOf("$650K"),
		Milestones: []models.Milestone{
			{
				ID:                "ms-1",
				ProjectID:         "proj-1",
				Name:              "Site Assessment",
				Order:             1,
				RequiredDocuments: []models.RequiredDocument{reviewedDocument("doc-a", "v-a1", models.DocumentApproved)},
			},
			{
				ID:                "ms-2",
				ProjectID:         "proj-1",
				Name:              "Design",
				Order:             2,
				RequiredDocuments: []models.RequiredDocument{reviewedDocument("doc-b", "v-b1", models.DocumentRejected)},
			},
		},
	}
}

func TestProjectServiceGetDegradesPerField(t *testing.T) {
	repo := newFakeProjectRepo(degradedProject())
	svc, _, _ := newProjectServiceFixture(t, repo)

	view, err := svc.Get(context.Background(), "proj-1")
	require.NoError(t, err)

	require.Len(t, view.Milestones, 2)
	assert.Equal(t, models.MilestoneCompleted, view.Milestones[0].Status)
	assert.Equal(t, 100, *view.Milestones[0].Progress)

	assert.Equal(t, models.MilestoneStatusUnknown, view.Milestones[1].Status)
	assert.Nil(t, view.Milestones[1].Progress)
	assert.NotEmpty(t, view.Milestones[1].RequiredDocuments[0].Integrity)

	assert.Equal(t, 40, view.Rollup.Progress)
	assert.Equal(t, 26, *view.Rollup.BudgetUtilization)
	assert.Equal(t, models.DocumentationUnknown, view.Health.Documentation)
	assert.Contains(t, view.UnknownFields, "milestones[1].status")
	assert.Contains(t, view.UnknownFields, "milestones[1].requiredDocuments[0].status")
	assert.NotContains(t, view.UnknownFields, "milestones[0].status")
}

func TestProjectServiceGetNotFound(t *testing.T) {
	svc, _, _ := newProjectServiceFixture(t, newFakeProjectRepo())
	_, err := svc.Get(context.Background(), "missing")
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestProjectServiceUpdateProgress(t *testing.T) {
	repo := newFakeProjectRepo(degradedProject())
	svc, activities, invalidator := newProjectServiceFixture(t, repo)

	progress := 55
	summary, err := svc.UpdateProgress(context.Background(), "proj-1", "pm", dto.UpdateProgressRequest{Progress: &progress})
	require.NoError(t, err)

	assert.Equal(t, 55, summary.Progress)
	assert.Equal(t, 55, repo.progress["proj-1"])
	require.Len(t, activities.created, 1)
	assert.Equal(t, models.ActivityProjectUpdated, activities.created[0].Type)
	assert.Equal(t, "40", activities.created[0].Metadata.OldValue)
	assert.Equal(t, "55", activities.created[0].Metadata.NewValue)
	assert.Equal(t, []string{"proj-1"}, invalidator.projects)

	tooHigh := 101
	_, err = svc.UpdateProgress(context.Background(), "proj-1", "pm", dto.UpdateProgressRequest{Progress: &tooHigh})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.UpdateProgress(context.Background(), "proj-1", "pm", dto.UpdateProgressRequest{})
	requireCode(t, err, appErrors.ErrValidation.Code)
}

func TestProjectServiceListNormalisesFilter(t *testing.T) {
	repo := newFakeProjectRepo(degradedProject())
	svc, _, _ := newProjectServiceFixture(t, repo)

	items, pagination, err := svc.List(context.Background(), dto.ProjectListQuery{Type: "wind", Sort: "capacity", PageSize: 500})
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, 100.0, *items[0].CapacityMW)
	assert.Equal(t, models.ProjectTypeWind, repo.listFilter.Type)
	assert.Equal(t, "capacity", repo.listFilter.SortBy)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)

	_, _, err = svc.List(context.Background(), dto.ProjectListQuery{Status: "Dormant"})
	requireCode(t, err, appErrors.ErrValidation.Code)
}
