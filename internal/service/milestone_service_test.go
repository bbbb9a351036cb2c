package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

type fakeMilestoneRepo struct {
	milestones map[string]models.Milestone
	optional   []models.OptionalDocument
}

func (f *fakeMilestoneRepo) FindByID(_ context.Context, id string) (*models.Milestone, error) {
	m, ok := f.milestones[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &m, nil
}

func (f *fakeMilestoneRepo) AddOptionalDocument(_ context.Context, doc *models.OptionalDocument) error {
	f.optional = append(f.optional, *doc)
	return nil
}

func (f *fakeMilestoneRepo) ListOptionalDocuments(_ context.Context, milestoneID string) ([]models.OptionalDocument, error) {
	var out []models.OptionalDocument
	for _, d := range f.optional {
		if d.MilestoneID == milestoneID {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestMilestoneServiceOptionalDocuments(t *testing.T) {
	repo := &fakeMilestoneRepo{milestones: map[string]models.Milestone{"ms-1": permitMilestone()}}
	invalidator := &recordingInvalidator{}
	svc := NewMilestoneService(repo, invalidator, nil, zap.NewNop())
	svc.now = func() time.Time { return fixedNow }
	ctx := context.Background()

	empty, err := svc.ListOptionalDocuments(ctx, "ms-1")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	req := dto.AddOptionalDocumentRequest{Name: " Site photos ", FileName: "photos.zip", FileSizeBytes: 4096, FileURL: "s3://b/photos.zip"}
	doc, err := svc.AddOptionalDocument(ctx, "ms-1", "alice", req)
	require.NoError(t, err)
	assert.Equal(t, "Site photos", doc.Name)
	assert.Equal(t, models.DocumentPendingReview, doc.Status)
	assert.Equal(t, "alice", doc.UploadedBy)
	assert.Equal(t, fixedNow, doc.UploadedAt)
	assert.Equal(t, []string{"proj-1"}, invalidator.projects)

	docs, err := svc.ListOptionalDocuments(ctx, "ms-1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestMilestoneServiceOptionalDocumentErrors(t *testing.T) {
	repo := &fakeMilestoneRepo{milestones: map[string]models.Milestone{"ms-1": permitMilestone()}}
	svc := NewMilestoneService(repo, nil, nil, nil)
	ctx := context.Background()
	req := dto.AddOptionalDocumentRequest{Name: "Photos", FileName: "p.zip", FileSizeBytes: 1, FileURL: "u"}

	_, err := svc.AddOptionalDocument(ctx, "ms-1", " ", req)
	requireCode(t, err, appErrors.ErrUnauthorized.Code)

	_, err = svc.AddOptionalDocument(ctx, "ms-404", "alice", req)
	requireCode(t, err, appErrors.ErrNotFound.Code)

	_, err = svc.AddOptionalDocument(ctx, "ms-1", "alice", dto.AddOptionalDocumentRequest{Name: "Photos"})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.ListOptionalDocuments(ctx, "ms-404")
	requireCode(t, err, appErrors.ErrNotFound.Code)
	assert.Empty(t, repo.optional)
}
