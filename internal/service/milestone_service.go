package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

type milestoneRepository interface {
	FindByID(ctx context.Context, id string) (*models.Milestone, error)
	AddOptionalDocument(ctx context.Context, doc *models.OptionalDocument) error
	ListOptionalDocuments(ctx context.Context, milestoneID string) ([]models.OptionalDocument, error)
}

// MilestoneService manages supporting documents attached to milestones.
// Optional documents never take part in status or progress derivation.
type MilestoneService struct {
	milestones milestoneRepository
	dashboard  dashboardInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewMilestoneService constructs a MilestoneService.
func NewMilestoneService(milestones milestoneRepository, dashboard dashboardInvalidator, validate *validator.Validate, logger *zap.Logger) *MilestoneService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MilestoneService{milestones: milestones, dashboard: dashboard, validator: validate, logger: logger, now: time.Now}
}

// AddOptionalDocument attaches a supporting document awaiting review.
func (s *MilestoneService) AddOptionalDocument(ctx context.Context, milestoneID, actor string, req dto.AddOptionalDocumentRequest) (*models.OptionalDocument, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid optional document payload")
	}
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, appErrors.ErrUnauthorized
	}
	milestone, err := s.milestones.FindByID(ctx, milestoneID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "milestone not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load milestone")
	}

	doc := &models.OptionalDocument{
		ID:            uuid.NewString(),
		MilestoneID:   milestone.ID,
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		FileName:      strings.TrimSpace(req.FileName),
		FileSizeBytes: req.FileSizeBytes,
		FileURL:       req.FileURL,
		UploadedBy:    actor,
		UploadedAt:    s.now().UTC(),
		Status:        models.DocumentPendingReview,
	}
	if err := s.milestones.AddOptionalDocument(ctx, doc); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach optional document")
	}
	s.logger.Info("optional document attached", zap.String("milestone_id", milestone.ID), zap.String("document_id", doc.ID))
	if s.dashboard != nil {
		s.dashboard.InvalidateProject(ctx, milestone.ProjectID)
	}
	return doc, nil
}

// ListOptionalDocuments returns the supporting documents of a milestone.
func (s *MilestoneService) ListOptionalDocuments(ctx context.Context, milestoneID string) ([]models.OptionalDocument, error) {
	if _, err := s.milestones.FindByID(ctx, milestoneID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "milestone not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load milestone")
	}
	docs, err := s.milestones.ListOptionalDocuments(ctx, milestoneID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list optional documents")
	}
	if docs == nil {
		docs = []models.OptionalDocument{}
	}
	return docs, nil
}
