package models

import (
	"time"

	"github.com/lib/pq"
)

// DocumentStatus is the review state of a document version, and by extension of a document.
type DocumentStatus string

const (
	DocumentNotSubmitted  DocumentStatus = "not-submitted"
	DocumentPendingReview DocumentStatus = "pending-review"
	DocumentApproved      DocumentStatus = "approved"
	DocumentRejected      DocumentStatus = "rejected"

	// DocumentStatusUnknown is only ever produced for views when a ledger is inconsistent.
	DocumentStatusUnknown DocumentStatus = "unknown"
)

// Reviewed reports whether the status is a recorded review outcome.
func (s DocumentStatus) Reviewed() bool {
	return s == DocumentApproved || s == DocumentRejected
}

// DocumentDefinition is the static description of a document a milestone requires.
type DocumentDefinition struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	FileTypes   []string `yaml:"fileTypes" json:"fileTypes"`
	MaxSizeMB   int      `yaml:"maxSizeMb" json:"maxSizeMb"`
}

// DocumentVersion is one submitted artifact in a document ledger.
type DocumentVersion struct {
	ID              string         `db:"id" json:"id"`
	DocumentID      string         `db:"document_id" json:"documentId"`
	Version         int            `db:"version" json:"version"`
	FileName        string         `db:"file_name" json:"fileName"`
	FileSizeBytes   int64          `db:"file_size_bytes" json:"fileSizeBytes"`
	FileURL         string         `db:"file_url" json:"fileUrl"`
	UploadedBy      string         `db:"uploaded_by" json:"uploadedBy"`
	UploadedAt      time.Time      `db:"uploaded_at" json:"uploadedAt"`
	Status          DocumentStatus `db:"status" json:"status"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewedAt,omitempty"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
}

// RequiredDocument binds a document definition to a milestone's ledger.
// Versions is ordered by append order. CurrentVersionID mirrors the persisted pointer to the
// last entry; nil means no pointer is tracked. Repositories load a NULL pointer over a
// non-empty ledger as an empty string so that it fails validation.
type RequiredDocument struct {
	ID               string            `db:"id" json:"id"`
	MilestoneID      string            `db:"milestone_id" json:"milestoneId"`
	DefinitionID     string            `db:"definition_id" json:"definitionId"`
	Name             string            `db:"name" json:"name"`
	Description      string            `db:"description" json:"description"`
	FileTypes        pq.StringArray    `db:"file_types" json:"fileTypes"`
	MaxSizeMB        int               `db:"max_size_mb" json:"maxSizeMb"`
	Position         int               `db:"position" json:"-"`
	CurrentVersionID *string           `db:"current_version_id" json:"-"`
	Versions         []DocumentVersion `db:"-" json:"versions"`
}

// CurrentVersion returns the last ledger entry or nil when nothing was submitted.
func (d RequiredDocument) CurrentVersion() *DocumentVersion {
	if len(d.Versions) == 0 {
		return nil
	}
	v := d.Versions[len(d.Versions)-1]
	return &v
}

// OptionalDocument is a supporting file attached to a milestone. It never gates completion.
type OptionalDocument struct {
	ID              string         `db:"id" json:"id"`
	MilestoneID     string         `db:"milestone_id" json:"milestoneId"`
	Name            string         `db:"name" json:"name"`
	Description     string         `db:"description" json:"description"`
	FileName        string         `db:"file_name" json:"fileName"`
	FileSizeBytes   int64          `db:"file_size_bytes" json:"fileSizeBytes"`
	FileURL         string         `db:"file_url" json:"fileUrl"`
	UploadedBy      string         `db:"uploaded_by" json:"uploadedBy"`
	UploadedAt      time.Time      `db:"uploaded_at" json:"uploadedAt"`
	Status          DocumentStatus `db:"status" json:"status"`
	ReviewedBy      *string        `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time     `db:"reviewed_at" json:"reviewedAt,omitempty"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
}
