package dto

import (
	"time"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

// SubmitVersionRequest describes a file already stored elsewhere; only its metadata is recorded.
type SubmitVersionRequest struct {
	FileName      string `json:"fileName" validate:"required,max=255"`
	FileSizeBytes int64  `json:"fileSizeBytes" validate:"gt=0"`
	FileURL       string `json:"fileUrl" validate:"required"`
}

// ReviewRequest carries a review outcome from the review workflow.
type ReviewRequest struct {
	Outcome string `json:"outcome" validate:"required,oneof=approved rejected"`
	Reason  string `json:"reason" validate:"required_if=Outcome rejected"`
}

// AddOptionalDocumentRequest attaches a supporting document to a milestone.
type AddOptionalDocumentRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Description   string `json:"description"`
	FileName      string `json:"fileName" validate:"required,max=255"`
	FileSizeBytes int64  `json:"fileSizeBytes" validate:"gt=0"`
	FileURL       string `json:"fileUrl" validate:"required"`
}

// MilestoneStateView is the milestone snapshot after a ledger change.
type MilestoneStateView struct {
	ID             string                 `json:"id"`
	ProjectID      string                 `json:"projectId"`
	Status         models.MilestoneStatus `json:"status"`
	Progress       *int                   `json:"progress"`
	StartDate      *time.Time             `json:"startDate,omitempty"`
	CompletionDate *time.Time             `json:"completionDate,omitempty"`
	PreviousStatus models.MilestoneStatus `json:"previousStatus"`
}

// LedgerChangeResponse is returned after a version submission or review.
type LedgerChangeResponse struct {
	DocumentID     string                 `json:"documentId"`
	DocumentStatus models.DocumentStatus  `json:"documentStatus"`
	Version        models.DocumentVersion `json:"version"`
	Milestone      MilestoneStateView     `json:"milestone"`
}

// DocumentHistoryResponse is a required document with its full ledger.
type DocumentHistoryResponse struct {
	DocumentView
	MilestoneID string `json:"milestoneId"`
}
