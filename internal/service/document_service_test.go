package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	"github.com/noah-isme/epc-dashboard-api/internal/repository"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

func permitMilestone() models.Milestone {
	return models.Milestone{
		ID:        "ms-1",
		ProjectID: "proj-1",
		Name:      "Permitting",
		Order:     3,
		Status:    models.MilestoneNotStarted,
		RequiredDocuments: []models.RequiredDocument{
			{ID: "doc-a", MilestoneID: "ms-1", Name: "Building Permit", FileTypes: []string{".pdf"}, MaxSizeMB: 10},
			{ID: "doc-b", MilestoneID: "ms-1", Name: "Grid Approval", FileTypes: []string{".pdf", ".docx"}, MaxSizeMB: 10},
		},
	}
}

func newDocumentServiceFixture(store *fakeLedgerStore) (*DocumentService, *recordingInvalidator) {
	invalidator := &recordingInvalidator{}
	svc := NewDocumentService(DocumentServiceParams{
		Documents: store,
		Dashboard: invalidator,
		Metrics:   NewMetricsService(),
		Validator: validator.New(),
		Logger:    zap.NewNop(),
	})
	svc.now = func() time.Time { return fixedNow }
	svc.newID = sequentialIDs("id")
	return svc, invalidator
}

func pdf(name string) dto.SubmitVersionRequest {
	return dto.SubmitVersionRequest{FileName: name, FileSizeBytes: 2048, FileURL: "s3://bucket/" + name}
}

func TestDocumentServiceSubmitStartsMilestone(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone()}
	svc, invalidator := newDocumentServiceFixture(store)

	resp, err := svc.Submit(context.Background(), "doc-a", "alice", pdf("permit.pdf"))
	require.NoError(t, err)

	assert.Equal(t, 1, resp.Version.Version)
	assert.Equal(t, models.DocumentPendingReview, resp.DocumentStatus)
	assert.Equal(t, "alice", resp.Version.UploadedBy)
	assert.Equal(t, models.MilestoneInProgress, resp.Milestone.Status)
	assert.Equal(t, models.MilestoneNotStarted, resp.Milestone.PreviousStatus)
	require.NotNil(t, resp.Milestone.Progress)
	assert.Equal(t, 0, *resp.Milestone.Progress)
	require.NotNil(t, resp.Milestone.StartDate)
	assert.Equal(t, fixedNow, *resp.Milestone.StartDate)

	assert.Equal(t, []models.ActivityType{models.ActivityDocumentUploaded, models.ActivityMilestoneStarted}, store.activityTypes())
	assert.Equal(t, "proj-1", store.activities[0].ProjectID)
	assert.Equal(t, []string{"proj-1"}, invalidator.projects)
}

func TestDocumentServiceLifecycleToCompletion(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone()}
	svc, _ := newDocumentServiceFixture(store)
	ctx := context.Background()
	approve := dto.ReviewRequest{Outcome: "approved"}

	_, err := svc.Submit(ctx, "doc-a", "alice", pdf("permit.pdf"))
	require.NoError(t, err)
	resp, err := svc.Review(ctx, "doc-a", 1, "bob", approve)
	require.NoError(t, err)
	assert.Equal(t, models.DocumentApproved, resp.DocumentStatus)
	assert.Equal(t, 50, *resp.Milestone.Progress)
	assert.Equal(t, models.MilestoneInProgress, resp.Milestone.Status)

	_, err = svc.Submit(ctx, "doc-b", "alice", pdf("grid.docx"))
	require.NoError(t, err)
	resp, err = svc.Review(ctx, "doc-b", 1, "bob", approve)
	require.NoError(t, err)

	assert.Equal(t, models.MilestoneCompleted, resp.Milestone.Status)
	assert.Equal(t, 100, *resp.Milestone.Progress)
	require.NotNil(t, resp.Milestone.CompletionDate)
	assert.Equal(t, models.MilestoneCompleted, store.milestone.Status)
	assert.Contains(t, store.activityTypes(), models.ActivityMilestoneCompleted)
}

func TestDocumentServiceRejectionBlocksAndResubmissionReopens(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone()}
	svc, _ := newDocumentServiceFixture(store)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "doc-a", "alice", pdf("permit.pdf"))
	require.NoError(t, err)
	resp, err := svc.Review(ctx, "doc-a", 1, "bob", dto.ReviewRequest{Outcome: "rejected", Reason: "missing stamp"})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentRejected, resp.DocumentStatus)
	assert.Equal(t, models.MilestoneBlocked, resp.Milestone.Status)
	require.NotNil(t, resp.Version.RejectionReason)
	assert.Equal(t, "missing stamp", *resp.Version.RejectionReason)

	resp, err = svc.Submit(ctx, "doc-a", "alice", pdf("permit-v2.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Version.Version)
	assert.Equal(t, models.DocumentPendingReview, resp.DocumentStatus)
	assert.Equal(t, models.MilestoneInProgress, resp.Milestone.Status)

	history, err := svc.History(ctx, "doc-a")
	require.NoError(t, err)
	require.Len(t, history.Versions, 2)
	assert.Equal(t, models.DocumentRejected, history.Versions[0].Status)
	assert.Equal(t, models.DocumentPendingReview, history.Status)
	assert.Empty(t, history.Integrity)
}

func TestDocumentServiceSubmitRejectsFiles(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone()}
	svc, invalidator := newDocumentServiceFixture(store)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "doc-a", "alice", pdf("permit.exe"))
	requireCode(t, err, appErrors.ErrFileRejected.Code)

	tooBig := pdf("permit.pdf")
	tooBig.FileSizeBytes = 11 * 1024 * 1024
	_, err = svc.Submit(ctx, "doc-a", "alice", tooBig)
	requireCode(t, err, appErrors.ErrFileRejected.Code)

	assert.Empty(t, store.activities)
	assert.Empty(t, invalidator.projects)
}

func TestDocumentServiceReviewConflicts(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone()}
	svc, _ := newDocumentServiceFixture(store)
	ctx := context.Background()

	_, err := svc.Review(ctx, "doc-a", 1, "bob", dto.ReviewRequest{Outcome: "approved"})
	requireCode(t, err, appErrors.ErrReviewConflict.Code)

	_, err = svc.Submit(ctx, "doc-a", "alice", pdf("permit.pdf"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, "doc-a", "alice", pdf("permit-v2.pdf"))
	require.NoError(t, err)

	_, err = svc.Review(ctx, "doc-a", 1, "bob", dto.ReviewRequest{Outcome: "approved"})
	requireCode(t, err, appErrors.ErrReviewConflict.Code)

	_, err = svc.Review(ctx, "doc-a", 2, "bob", dto.ReviewRequest{Outcome: "approved"})
	require.NoError(t, err)
	_, err = svc.Review(ctx, "doc-a", 2, "carol", dto.ReviewRequest{Outcome: "rejected", Reason: "late"})
	requireCode(t, err, appErrors.ErrReviewConflict.Code)
}

func TestDocumentServiceRepositoryConflict(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone(), mutateErr: repository.ErrVersionConflict}
	svc, _ := newDocumentServiceFixture(store)

	_, err := svc.Review(context.Background(), "doc-a", 1, "bob", dto.ReviewRequest{Outcome: "approved"})
	requireCode(t, err, appErrors.ErrReviewConflict.Code)
}

func TestDocumentServiceValidation(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone()}
	svc, _ := newDocumentServiceFixture(store)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "doc-a", "", pdf("permit.pdf"))
	requireCode(t, err, appErrors.ErrUnauthorized.Code)

	_, err = svc.Submit(ctx, "doc-a", "alice", dto.SubmitVersionRequest{FileName: "permit.pdf"})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Review(ctx, "doc-a", 1, "bob", dto.ReviewRequest{Outcome: "rejected"})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Review(ctx, "doc-a", 1, "bob", dto.ReviewRequest{Outcome: "maybe"})
	requireCode(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Submit(ctx, "missing", "alice", pdf("permit.pdf"))
	requireCode(t, err, appErrors.ErrNotFound.Code)
}

func TestDocumentServiceRefusesWriteOnInconsistentLedger(t *testing.T) {
	milestone := permitMilestone()
	pointer := "v-9"
	milestone.RequiredDocuments[0].CurrentVersionID = &pointer
	store := &fakeLedgerStore{milestone: milestone}
	svc, _ := newDocumentServiceFixture(store)

	_, err := svc.Submit(context.Background(), "doc-a", "alice", pdf("permit.pdf"))
	requireCode(t, err, appErrors.ErrLedgerIntegrity.Code)

	history, err := svc.History(context.Background(), "doc-a")
	require.NoError(t, err)
	assert.Equal(t, models.DocumentStatusUnknown, history.Status)
	assert.NotEmpty(t, history.Integrity)
}

func TestDocumentServiceSiblingInconsistencyKeepsSnapshot(t *testing.T) {
	milestone := permitMilestone()
	milestone.RequiredDocuments[1].Versions = []models.DocumentVersion{
		{ID: "v-b1", DocumentID: "doc-b", Version: 1, FileName: "grid.pdf", Status: models.DocumentApproved},
	}
	pointer := "v-b1"
	milestone.RequiredDocuments[1].CurrentVersionID = &pointer
	store := &fakeLedgerStore{milestone: milestone}
	svc, _ := newDocumentServiceFixture(store)

	resp, err := svc.Submit(context.Background(), "doc-a", "alice", pdf("permit.pdf"))
	require.NoError(t, err)

	assert.Equal(t, models.DocumentPendingReview, resp.DocumentStatus)
	assert.Nil(t, resp.Milestone.Progress)
	assert.Equal(t, models.MilestoneNotStarted, store.milestone.Status)
	assert.Nil(t, store.milestone.StartDate)
	assert.Equal(t, []models.ActivityType{models.ActivityDocumentUploaded}, store.activityTypes())
}

func TestDocumentServiceInternalError(t *testing.T) {
	store := &fakeLedgerStore{milestone: permitMilestone(), mutateErr: errors.New("connection reset")}
	svc, _ := newDocumentServiceFixture(store)

	_, err := svc.Submit(context.Background(), "doc-a", "alice", pdf("permit.pdf"))
	requireCode(t, err, appErrors.ErrInternal.Code)
}
