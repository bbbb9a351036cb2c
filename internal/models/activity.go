package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"
)

// ActivityType enumerates entries of a project's activity feed.
type ActivityType string

const (
	ActivityDocumentUploaded   ActivityType = "document-uploaded"
	ActivityDocumentApproved   ActivityType = "document-approved"
	ActivityDocumentRejected   ActivityType = "document-rejected"
	ActivityMilestoneCompleted ActivityType = "milestone-completed"
	ActivityMilestoneStarted   ActivityType = "milestone-started"
	ActivityProjectUpdated     ActivityType = "project-updated"
)

// ActivityMetadata carries optional context for an activity entry.
type ActivityMetadata struct {
	DocumentName  string `json:"documentName,omitempty"`
	MilestoneName string `json:"milestoneName,omitempty"`
	OldValue      string `json:"oldValue,omitempty"`
	NewValue      string `json:"newValue,omitempty"`
}

// Scan implements sql.Scanner for jsonb columns.
func (m *ActivityMetadata) Scan(src interface{}) error { return scanJSON(src, m) }

// Value implements driver.Valuer.
func (m ActivityMetadata) Value() (driver.Value, error) { return json.Marshal(m) }

// Activity is one entry of the project activity feed.
type Activity struct {
	ID        string           `db:"id" json:"id"`
	ProjectID string           `db:"project_id" json:"projectId"`
	Type      ActivityType     `db:"type" json:"type"`
	Message   string           `db:"message" json:"message"`
	Actor     string           `db:"actor" json:"user"`
	Metadata  ActivityMetadata `db:"metadata" json:"metadata"`
	CreatedAt time.Time        `db:"created_at" json:"date"`
}
