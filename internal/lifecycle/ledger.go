package lifecycle

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

const bytesPerMB = 1024 * 1024

// Submission is a new file offered against a required document.
type Submission struct {
	VersionID     string
	FileName      string
	FileSizeBytes int64
	FileURL       string
	UploadedBy    string
	UploadedAt    time.Time
}

// Review is an outcome recorded by the external review workflow.
type Review struct {
	Version    int
	Outcome    models.DocumentStatus
	Reviewer   string
	ReviewedAt time.Time
	Reason     string
}

// ValidateLedger checks the stored ledger of doc against the ledger invariants.
// It returns nil or an *IntegrityError.
func ValidateLedger(doc models.RequiredDocument) error {
	var violations []string
	for i, v := range doc.Versions {
		if v.Version != i+1 {
			violations = append(violations, fmt.Sprintf("entry %d has version %d, want %d", i+1, v.Version, i+1))
		}
		if v.DocumentID != "" && v.DocumentID != doc.ID {
			violations = append(violations, fmt.Sprintf("version %d belongs to document %s", v.Version, v.DocumentID))
		}
		switch v.Status {
		case models.DocumentPendingReview:
			if v.ReviewedBy != nil || v.ReviewedAt != nil || v.RejectionReason != nil {
				violations = append(violations, fmt.Sprintf("version %d is pending but carries review fields", v.Version))
			}
		case models.DocumentApproved, models.DocumentRejected:
			if v.ReviewedBy == nil || v.ReviewedAt == nil {
				violations = append(violations, fmt.Sprintf("version %d is %s without reviewer or review time", v.Version, v.Status))
			}
			if v.Status == models.DocumentRejected && (v.RejectionReason == nil || strings.TrimSpace(*v.RejectionReason) == "") {
				violations = append(violations, fmt.Sprintf("version %d is rejected without a reason", v.Version))
			}
		default:
			violations = append(violations, fmt.Sprintf("version %d has invalid status %q", v.Version, v.Status))
		}
	}

	switch {
	case len(doc.Versions) == 0 && doc.CurrentVersionID != nil:
		violations = append(violations, "current version is set on an empty ledger")
	case len(doc.Versions) > 0 && doc.CurrentVersionID != nil && *doc.CurrentVersionID != doc.Versions[len(doc.Versions)-1].ID:
		violations = append(violations, "current version does not match the last ledger entry")
	}

	if len(violations) == 0 {
		return nil
	}
	return &IntegrityError{DocumentID: doc.ID, Violations: violations}
}

// Append returns a copy of doc with sub appended as the next pending-review version.
// doc itself is not modified.
func Append(doc models.RequiredDocument, sub Submission) (models.RequiredDocument, models.DocumentVersion, error) {
	if err := ValidateLedger(doc); err != nil {
		return doc, models.DocumentVersion{}, err
	}
	if err := checkSubmission(doc, sub); err != nil {
		return doc, models.DocumentVersion{}, err
	}

	version := models.DocumentVersion{
		ID:            sub.VersionID,
		DocumentID:    doc.ID,
		Version:       len(doc.Versions) + 1,
		FileName:      strings.TrimSpace(sub.FileName),
		FileSizeBytes: sub.FileSizeBytes,
		FileURL:       sub.FileURL,
		UploadedBy:    strings.TrimSpace(sub.UploadedBy),
		UploadedAt:    sub.UploadedAt.UTC(),
		Status:        models.DocumentPendingReview,
	}

	next := doc
	next.Versions = make([]models.DocumentVersion, 0, len(doc.Versions)+1)
	next.Versions = append(next.Versions, doc.Versions...)
	next.Versions = append(next.Versions, version)
	id := version.ID
	next.CurrentVersionID = &id
	return next, version, nil
}

// RecordReview returns a copy of doc with the review outcome written onto its current version.
// Only a pending current version can be reviewed, and only once.
func RecordReview(doc models.RequiredDocument, review Review) (models.RequiredDocument, models.DocumentVersion, error) {
	if err := ValidateLedger(doc); err != nil {
		return doc, models.DocumentVersion{}, err
	}
	current := doc.CurrentVersion()
	if current == nil {
		return doc, models.DocumentVersion{}, ErrNothingToReview
	}
	if review.Version != current.Version {
		return doc, models.DocumentVersion{}, fmt.Errorf("%w: version %d, current is %d", ErrNotCurrentVersion, review.Version, current.Version)
	}
	if current.Status != models.DocumentPendingReview {
		return doc, models.DocumentVersion{}, fmt.Errorf("%w: version %d is %s", ErrAlreadyReviewed, current.Version, current.Status)
	}
	if !review.Outcome.Reviewed() {
		return doc, models.DocumentVersion{}, ErrInvalidOutcome
	}
	reviewer := strings.TrimSpace(review.Reviewer)
	if reviewer == "" {
		return doc, models.DocumentVersion{}, ErrReviewerRequired
	}
	reason := strings.TrimSpace(review.Reason)
	if review.Outcome == models.DocumentRejected && reason == "" {
		return doc, models.DocumentVersion{}, ErrRejectionReasonRequired
	}

	reviewed := *current
	reviewedAt := review.ReviewedAt.UTC()
	reviewed.Status = review.Outcome
	reviewed.ReviewedBy = &reviewer
	reviewed.ReviewedAt = &reviewedAt
	if review.Outcome == models.DocumentRejected {
		reviewed.RejectionReason = &reason
	}

	next := doc
	next.Versions = append([]models.DocumentVersion(nil), doc.Versions...)
	next.Versions[len(next.Versions)-1] = reviewed
	return next, reviewed, nil
}

func checkSubmission(doc models.RequiredDocument, sub Submission) error {
	if strings.TrimSpace(sub.VersionID) == "" {
		return fmt.Errorf("%w: version id is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(sub.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidSubmission)
	}
	if strings.TrimSpace(sub.UploadedBy) == "" {
		return fmt.Errorf("%w: uploader is required", ErrInvalidSubmission)
	}
	if sub.FileSizeBytes <= 0 {
		return fmt.Errorf("%w: file size must be positive", ErrInvalidSubmission)
	}
	if !AcceptsFileType(doc.FileTypes, sub.FileName) {
		return fmt.Errorf("%w: %s accepts %s", ErrFileTypeNotAccepted, doc.Name, strings.Join(doc.FileTypes, ", "))
	}
	if doc.MaxSizeMB > 0 && sub.FileSizeBytes > int64(doc.MaxSizeMB)*bytesPerMB {
		return fmt.Errorf("%w: limit is %d MB", ErrFileTooLarge, doc.MaxSizeMB)
	}
	return nil
}

// AcceptsFileType reports whether fileName has one of the accepted extensions.
// An empty accepted set accepts any file.
func AcceptsFileType(accepted []string, fileName string) bool {
	if len(accepted) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))
	if ext == "" {
		return false
	}
	for _, a := range accepted {
		a = strings.ToLower(strings.TrimSpace(a))
		if !strings.HasPrefix(a, ".") {
			a = "." + a
		}
		if a == ext {
			return true
		}
	}
	return false
}
