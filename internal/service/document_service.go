package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/lifecycle"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	"github.com/noah-isme/epc-dashboard-api/internal/repository"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

type documentRepository interface {
	FindByID(ctx context.Context, id string) (*models.RequiredDocument, error)
	Mutate(ctx context.Context, documentID string, mutate repository.LedgerMutation) (*repository.LedgerChange, error)
}

// DocumentServiceParams groups constructor dependencies.
type DocumentServiceParams struct {
	Documents documentRepository
	Dashboard dashboardInvalidator
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// DocumentService records version submissions and reviews against document ledgers
// and keeps the owning milestone's derived snapshot current.
type DocumentService struct {
	documents documentRepository
	dashboard dashboardInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(params DocumentServiceParams) *DocumentService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documents: params.Documents,
		dashboard: params.Dashboard,
		metrics:   params.Metrics,
		validator: validate,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// History returns a required document with its resolved status and full ledger.
// An inconsistent ledger is reported through the integrity violations, not as an error.
func (s *DocumentService) History(ctx context.Context, documentID string) (*dto.DocumentHistoryResponse, error) {
	doc, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	status, err := lifecycle.ResolveStatus(*doc)
	if err != nil {
		s.metrics.RecordIntegrityViolation()
		s.logger.Warn("document ledger inconsistent", zap.String("document_id", doc.ID), zap.Error(err))
	}
	return &dto.DocumentHistoryResponse{
		DocumentView: documentView(*doc, status, err),
		MilestoneID:  doc.MilestoneID,
	}, nil
}

// Submit appends a new pending-review version to the document ledger.
func (s *DocumentService) Submit(ctx context.Context, documentID, actor string, req dto.SubmitVersionRequest) (*dto.LedgerChangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid version payload")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, appErrors.ErrUnauthorized
	}

	now := s.now().UTC()
	sub := lifecycle.Submission{
		VersionID:     s.newID(),
		FileName:      req.FileName,
		FileSizeBytes: req.FileSizeBytes,
		FileURL:       req.FileURL,
		UploadedBy:    actor,
		UploadedAt:    now,
	}

	var result ledgerResult
	change, err := s.documents.Mutate(ctx, documentID, func(m models.Milestone, doc models.RequiredDocument) (*repository.LedgerChange, error) {
		updated, version, err := lifecycle.Append(doc, sub)
		if err != nil {
			return nil, err
		}
		activity := models.Activity{
			ID:        s.newID(),
			Type:      models.ActivityDocumentUploaded,
			Message:   fmt.Sprintf("%s v%d uploaded for %s", updated.Name, version.Version, m.Name),
			Actor:     actor,
			Metadata:  models.ActivityMetadata{DocumentName: updated.Name, MilestoneName: m.Name},
			CreatedAt: now,
		}
		return s.advance(m, updated, version, true, activity, now, &result)
	})
	s.metrics.RecordSubmission(err == nil)
	if err != nil {
		return nil, s.mapLedgerError(documentID, err)
	}

	s.logger.Info("document version submitted",
		zap.String("document_id", documentID),
		zap.Int("version", change.Version.Version),
		zap.String("milestone_status", string(change.Milestone.Status)),
	)
	s.afterChange(ctx, change)
	return ledgerResponse(documentID, change, result), nil
}

// Review records the review outcome on the current version of the document.
func (s *DocumentService) Review(ctx context.Context, documentID string, versionNumber int, actor string, req dto.ReviewRequest) (*dto.LedgerChangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, appErrors.ErrUnauthorized
	}
	if versionNumber <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "version must be positive")
	}

	now := s.now().UTC()
	review := lifecycle.Review{
		Version:    versionNumber,
		Outcome:    models.DocumentStatus(req.Outcome),
		Reviewer:   actor,
		ReviewedAt: now,
		Reason:     req.Reason,
	}

	var result ledgerResult
	change, err := s.documents.Mutate(ctx, documentID, func(m models.Milestone, doc models.RequiredDocument) (*repository.LedgerChange, error) {
		updated, version, err := lifecycle.RecordReview(doc, review)
		if err != nil {
			return nil, err
		}
		activity := models.Activity{
			ID:        s.newID(),
			Type:      models.ActivityDocumentApproved,
			Message:   fmt.Sprintf("%s v%d approved", updated.Name, version.Version),
			Actor:     actor,
			Metadata:  models.ActivityMetadata{DocumentName: updated.Name, MilestoneName: m.Name},
			CreatedAt: now,
		}
		if version.Status == models.DocumentRejected {
			activity.Type = models.ActivityDocumentRejected
			activity.Message = fmt.Sprintf("%s v%d rejected: %s", updated.Name, version.Version, *version.RejectionReason)
		}
		return s.advance(m, updated, version, false, activity, now, &result)
	})
	if err != nil {
		return nil, s.mapLedgerError(documentID, err)
	}

	s.metrics.RecordReview(string(change.Version.Status))
	s.logger.Info("document version reviewed",
		zap.String("document_id", documentID),
		zap.Int("version", change.Version.Version),
		zap.String("outcome", string(change.Version.Status)),
		zap.String("milestone_status", string(change.Milestone.Status)),
	)
	s.afterChange(ctx, change)
	return ledgerResponse(documentID, change, result), nil
}

// ledgerResult carries derivation details out of a ledger mutation.
type ledgerResult struct {
	documentStatus models.DocumentStatus
	state          lifecycle.MilestoneState
	transition     lifecycle.Transition
}

// advance re-derives the milestone with the updated document and builds the change to persist.
// A sibling document with an inconsistent ledger leaves the milestone snapshot untouched.
func (s *DocumentService) advance(m models.Milestone, updated models.RequiredDocument, version models.DocumentVersion, insert bool, activity models.Activity, now time.Time, result *ledgerResult) (*repository.LedgerChange, error) {
	docs := make([]models.RequiredDocument, len(m.RequiredDocuments))
	for i, d := range m.RequiredDocuments {
		if d.ID == updated.ID {
			d = updated
		}
		docs[i] = d
	}

	state, err := lifecycle.DeriveMilestone(docs)
	if err != nil && !errors.Is(err, lifecycle.ErrLedgerInconsistent) {
		return nil, err
	}
	if err != nil {
		s.metrics.RecordIntegrityViolation()
		s.logger.Warn("milestone snapshot kept, sibling ledger inconsistent",
			zap.String("milestone_id", m.ID),
			zap.Error(err),
		)
	}
	next, transition := lifecycle.Advance(m, state, now)
	s.metrics.RecordDerivation(string(state.Status))

	activities := []models.Activity{activity}
	if transition.Started {
		activities = append(activities, models.Activity{
			ID:        s.newID(),
			Type:      models.ActivityMilestoneStarted,
			Message:   fmt.Sprintf("Milestone %s started", m.Name),
			Actor:     activity.Actor,
			Metadata:  models.ActivityMetadata{MilestoneName: m.Name},
			CreatedAt: now,
		})
	}
	if transition.Completed {
		activities = append(activities, models.Activity{
			ID:        s.newID(),
			Type:      models.ActivityMilestoneCompleted,
			Message:   fmt.Sprintf("Milestone %s completed", m.Name),
			Actor:     activity.Actor,
			Metadata:  models.ActivityMetadata{MilestoneName: m.Name},
			CreatedAt: now,
		})
	}

	status, _ := lifecycle.ResolveStatus(updated)
	*result = ledgerResult{documentStatus: status, state: state, transition: transition}
	return &repository.LedgerChange{
		Version:    version,
		Insert:     insert,
		Milestone:  next,
		Activities: activities,
	}, nil
}

func (s *DocumentService) afterChange(ctx context.Context, change *repository.LedgerChange) {
	if s.dashboard != nil {
		s.dashboard.InvalidateProject(ctx, change.Milestone.ProjectID)
	}
}

func (s *DocumentService) mapLedgerError(documentID string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	case errors.Is(err, lifecycle.ErrLedgerInconsistent):
		s.metrics.RecordIntegrityViolation()
		s.logger.Warn("ledger write refused", zap.String("document_id", documentID), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrLedgerIntegrity.Code, appErrors.ErrLedgerIntegrity.Status, appErrors.ErrLedgerIntegrity.Message)
	case errors.Is(err, lifecycle.ErrFileTypeNotAccepted), errors.Is(err, lifecycle.ErrFileTooLarge):
		return appErrors.Wrap(err, appErrors.ErrFileRejected.Code, appErrors.ErrFileRejected.Status, err.Error())
	case errors.Is(err, lifecycle.ErrNothingToReview),
		errors.Is(err, lifecycle.ErrNotCurrentVersion),
		errors.Is(err, lifecycle.ErrAlreadyReviewed),
		errors.Is(err, repository.ErrVersionConflict):
		return appErrors.Wrap(err, appErrors.ErrReviewConflict.Code, appErrors.ErrReviewConflict.Status, err.Error())
	case errors.Is(err, lifecycle.ErrInvalidSubmission),
		errors.Is(err, lifecycle.ErrInvalidOutcome),
		errors.Is(err, lifecycle.ErrRejectionReasonRequired),
		errors.Is(err, lifecycle.ErrReviewerRequired):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	case errors.Is(err, lifecycle.ErrNoRequiredDocuments):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "milestone has no required documents")
	default:
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update document ledger")
	}
}

func ledgerResponse(documentID string, change *repository.LedgerChange, result ledgerResult) *dto.LedgerChangeResponse {
	m := change.Milestone
	return &dto.LedgerChangeResponse{
		DocumentID:     documentID,
		DocumentStatus: result.documentStatus,
		Version:        change.Version,
		Milestone: dto.MilestoneStateView{
			ID:             m.ID,
			ProjectID:      m.ProjectID,
			Status:         result.transition.To,
			Progress:       progressOf(result.state),
			StartDate:      m.StartDate,
			CompletionDate: m.CompletionDate,
			PreviousStatus: result.transition.From,
		},
	}
}
