package models

import "time"

// MilestoneStatus is the derived lifecycle state of a milestone.
type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not-started"
	MilestoneInProgress MilestoneStatus = "in-progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneBlocked    MilestoneStatus = "blocked"

	// MilestoneStatusUnknown marks a milestone whose documents could not be derived.
	MilestoneStatusUnknown MilestoneStatus = "unknown"
)

// MilestoneDefinition is one entry of a milestone template.
type MilestoneDefinition struct {
	Name               string               `yaml:"name" json:"name"`
	Description        string               `yaml:"description" json:"description"`
	Order              int                  `yaml:"order" json:"order"`
	CompletionCriteria string               `yaml:"completionCriteria" json:"completionCriteria"`
	RequiredDocuments  []DocumentDefinition `yaml:"requiredDocuments" json:"requiredDocuments"`
}

// MilestoneTemplate is the ordered milestone schema for one project type.
type MilestoneTemplate struct {
	ProjectType ProjectType           `yaml:"projectType" json:"projectType"`
	Milestones  []MilestoneDefinition `yaml:"milestones" json:"milestones"`
}

// Milestone is a project's instance of a milestone definition.
// Status and Progress hold the last persisted derivation; reads always recompute them.
type Milestone struct {
	ID                 string             `db:"id" json:"id"`
	ProjectID          string             `db:"project_id" json:"projectId"`
	Name               string             `db:"name" json:"name"`
	Description        string             `db:"description" json:"description"`
	Order              int                `db:"sort_order" json:"order"`
	CompletionCriteria string             `db:"completion_criteria" json:"completionCriteria"`
	Status             MilestoneStatus    `db:"status" json:"status"`
	Progress           int                `db:"progress" json:"progress"`
	StartDate          *time.Time         `db:"start_date" json:"startDate,omitempty"`
	EndDate            *time.Time         `db:"end_date" json:"endDate,omitempty"`
	CompletionDate     *time.Time         `db:"completion_date" json:"completionDate,omitempty"`
	RequiredDocuments  []RequiredDocument `db:"-" json:"requiredDocuments"`
	OptionalDocuments  []OptionalDocument `db:"-" json:"optionalDocuments"`
}
