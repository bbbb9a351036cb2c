package lifecycle

import (
	"fmt"
	"time"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// ledgerDoc builds a consistent document whose versions carry the given outcomes in order.
func ledgerDoc(id string, outcomes ...models.DocumentStatus) models.RequiredDocument {
	doc := models.RequiredDocument{
		ID:        id,
		Name:      "Doc " + id,
		FileTypes: []string{".pdf", ".docx"},
		MaxSizeMB: 10,
	}
	for i, outcome := range outcomes {
		v := models.DocumentVersion{
			ID:         fmt.Sprintf("%s-v%d", id, i+1),
			DocumentID: id,
			Version:    i + 1,
			FileName:   fmt.Sprintf("%s-v%d.pdf", id, i+1),
			UploadedBy: "engineer@epc.test",
			UploadedAt: baseTime.Add(time.Duration(i) * time.Hour),
			Status:     outcome,
		}
		if outcome.Reviewed() {
			reviewer := "qa@epc.test"
			at := v.UploadedAt.Add(30 * time.Minute)
			v.ReviewedBy = &reviewer
			v.ReviewedAt = &at
		}
		if outcome == models.DocumentRejected {
			reason := "missing stamp"
			v.RejectionReason = &reason
		}
		doc.Versions = append(doc.Versions, v)
	}
	if len(doc.Versions) > 0 {
		last := doc.Versions[len(doc.Versions)-1].ID
		doc.CurrentVersionID = &last
	}
	return doc
}

func submission(id string) Submission {
	return Submission{
		VersionID:     id,
		FileName:      "report.pdf",
		FileSizeBytes: 2048,
		FileURL:       "s3://bucket/report.pdf",
		UploadedBy:    "engineer@epc.test",
		UploadedAt:    baseTime,
	}
}
