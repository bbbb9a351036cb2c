package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

// MilestoneRepository reads milestones and manages their optional documents.
type MilestoneRepository struct {
	db *sqlx.DB
}

// NewMilestoneRepository constructs a MilestoneRepository.
func NewMilestoneRepository(db *sqlx.DB) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// FindByID fetches a milestone row.
func (r *MilestoneRepository) FindByID(ctx context.Context, id string) (*models.Milestone, error) {
	const query = `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`
	var milestone models.Milestone
	if err := r.db.GetContext(ctx, &milestone, query, id); err != nil {
		return nil, err
	}
	return &milestone, nil
}

// AddOptionalDocument attaches a supporting document to a milestone.
func (r *MilestoneRepository) AddOptionalDocument(ctx context.Context, doc *models.OptionalDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO optional_documents (id, milestone_id, name, description, file_name, file_size_bytes, file_url, uploaded_by, uploaded_at, status, reviewed_by, reviewed_at, rejection_reason)
VALUES (:id, :milestone_id, :name, :description, :file_name, :file_size_bytes, :file_url, :uploaded_by, :uploaded_at, :status, :reviewed_by, :reviewed_at, :rejection_reason)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("insert optional document: %w", err)
	}
	return nil
}

// ListOptionalDocuments returns the optional documents of a milestone in upload order.
func (r *MilestoneRepository) ListOptionalDocuments(ctx context.Context, milestoneID string) ([]models.OptionalDocument, error) {
	const query = `SELECT ` + optionalDocumentColumns + ` FROM optional_documents od WHERE od.milestone_id = $1 ORDER BY od.uploaded_at ASC`
	var docs []models.OptionalDocument
	if err := r.db.SelectContext(ctx, &docs, query, milestoneID); err != nil {
		return nil, fmt.Errorf("list optional documents: %w", err)
	}
	return docs, nil
}
