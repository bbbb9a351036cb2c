package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrLedgerInconsistent is matched by every *IntegrityError.
	ErrLedgerInconsistent = errors.New("document ledger is inconsistent")
	// ErrNoRequiredDocuments signals a milestone that declares no required documents.
	ErrNoRequiredDocuments = errors.New("milestone has no required documents")

	ErrInvalidSubmission       = errors.New("invalid document submission")
	ErrFileTypeNotAccepted     = errors.New("file type not accepted for document")
	ErrFileTooLarge            = errors.New("file exceeds document size limit")
	ErrNothingToReview         = errors.New("document has no submitted version")
	ErrNotCurrentVersion       = errors.New("only the current version can be reviewed")
	ErrAlreadyReviewed         = errors.New("version already reviewed")
	ErrInvalidOutcome          = errors.New("review outcome must be approved or rejected")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrReviewerRequired        = errors.New("reviewer is required")
)

// IntegrityError lists every invariant a stored document ledger violates.
type IntegrityError struct {
	DocumentID string
	Violations []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("document %s: %s: %s", e.DocumentID, ErrLedgerInconsistent, strings.Join(e.Violations, "; "))
}

// Is lets errors.Is match ErrLedgerInconsistent.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrLedgerInconsistent
}
