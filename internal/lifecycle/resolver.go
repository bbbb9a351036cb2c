package lifecycle

import "github.com/noah-isme/epc-dashboard-api/internal/models"

// ResolveStatus returns the current status of a required document.
//
// An empty ledger is not-submitted; otherwise the status recorded on the last version
// wins regardless of earlier outcomes. An inconsistent ledger is never coerced into a
// status: the result is DocumentStatusUnknown with an *IntegrityError.
func ResolveStatus(doc models.RequiredDocument) (models.DocumentStatus, error) {
	if err := ValidateLedger(doc); err != nil {
		return models.DocumentStatusUnknown, err
	}
	current := doc.CurrentVersion()
	if current == nil {
		return models.DocumentNotSubmitted, nil
	}
	return current.Status, nil
}
