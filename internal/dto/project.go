package dto

import (
	"time"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

// CreateProjectRequest captures the payload for creating a project from its template.
type CreateProjectRequest struct {
	Name           string                `json:"name" validate:"required,max=200"`
	Client         string                `json:"client" validate:"required,max=200"`
	ClientInfo     *models.ClientInfo    `json:"clientInfo"`
	NeedsAnalysis  *models.NeedsAnalysis `json:"needsAnalysis"`
	Location       string                `json:"location" validate:"required"`
	Capacity       string                `json:"capacity" validate:"required"`
	Type           string                `json:"type" validate:"required"`
	Status         string                `json:"status"`
	Priority       string                `json:"priority"`
	Phase          string                `json:"phase"`
	StartDate      *time.Time            `json:"startDate"`
	EndDate        *time.Time            `json:"endDate"`
	TeamSize       int                   `json:"teamSize" validate:"min=0"`
	Budget         string                `json:"budget"`
	Spent          string                `json:"spent"`
	Description    string                `json:"description"`
	ProjectManager string                `json:"projectManager"`
	DealType       string                `json:"dealType"`
	FinancingType  string                `json:"financingType"`
	ContractTerm   *string               `json:"contractTerm"`
	MilestoneLimit int                   `json:"milestoneLimit" validate:"min=0"`
}

// ProjectListQuery holds portfolio list filters parsed from the query string.
type ProjectListQuery struct {
	Search   string `form:"search"`
	Status   string `form:"status"`
	Type     string `form:"type"`
	Sort     string `form:"sort"`
	Order    string `form:"order"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// UpdateProgressRequest is sent by the workflow that owns the stored project progress.
type UpdateProgressRequest struct {
	Progress *int `json:"progress" validate:"required,min=0,max=100"`
}

// ProjectSummary is one row of the portfolio list.
type ProjectSummary struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Client         string                 `json:"client"`
	Location       string                 `json:"location"`
	Capacity       string                 `json:"capacity"`
	CapacityMW     *float64               `json:"capacityMw"`
	Type           models.ProjectType     `json:"type"`
	Status         models.ProjectStatus   `json:"status"`
	Priority       models.ProjectPriority `json:"priority"`
	Phase          models.ProjectPhase    `json:"phase"`
	Progress       int                    `json:"progress"`
	StartDate      *time.Time             `json:"startDate,omitempty"`
	EndDate        *time.Time             `json:"endDate,omitempty"`
	ProjectManager string                 `json:"projectManager"`
	UpdatedAt      time.Time              `json:"updatedAt"`
}

// ProjectView is the fully derived project read model.
//
// Fields that could not be derived are null (or "unknown" for statuses) and listed in
// UnknownFields so the rest of the project still renders.
type ProjectView struct {
	ID                 string                 `json:"id"`
	Name               string                 `json:"name"`
	Client             string                 `json:"client"`
	ClientInfo         *models.ClientInfo     `json:"clientInfo,omitempty"`
	NeedsAnalysis      *models.NeedsAnalysis  `json:"needsAnalysis,omitempty"`
	Location           string                 `json:"location"`
	Capacity           string                 `json:"capacity"`
	CapacityMW         *float64               `json:"capacityMw"`
	Type               models.ProjectType     `json:"type"`
	Status             models.ProjectStatus   `json:"status"`
	Priority           models.ProjectPriority `json:"priority"`
	Phase              models.ProjectPhase    `json:"phase"`
	Progress           int                    `json:"progress"`
	StartDate          *time.Time             `json:"startDate,omitempty"`
	EndDate            *time.Time             `json:"endDate,omitempty"`
	TeamSize           int                    `json:"teamSize"`
	Budget             string                 `json:"budget"`
	Spent              string                 `json:"spent"`
	Description        string                 `json:"description"`
	ProjectManager     string                 `json:"projectManager"`
	DealType           string                 `json:"dealType"`
	FinancingType      string                 `json:"financingType"`
	ContractTerm       *string                `json:"contractTerm,omitempty"`
	Milestones         []MilestoneView        `json:"milestones"`
	Rollup             RollupView             `json:"rollup"`
	Health             HealthView             `json:"health"`
	IncompleteSections []string               `json:"incompleteSections"`
	UnknownFields      []string               `json:"unknownFields"`
	CreatedAt          time.Time              `json:"createdAt"`
	UpdatedAt          time.Time              `json:"updatedAt"`
}

// MilestoneView is a milestone with its derived status and progress.
type MilestoneView struct {
	ID                 string                    `json:"id"`
	Name               string                    `json:"name"`
	Description        string                    `json:"description"`
	Order              int                       `json:"order"`
	CompletionCriteria string                    `json:"completionCriteria"`
	Status             models.MilestoneStatus    `json:"status"`
	Progress           *int                      `json:"progress"`
	StartDate          *time.Time                `json:"startDate,omitempty"`
	EndDate            *time.Time                `json:"endDate,omitempty"`
	CompletionDate     *time.Time                `json:"completionDate,omitempty"`
	RequiredDocuments  []DocumentView            `json:"requiredDocuments"`
	OptionalDocuments  []models.OptionalDocument `json:"optionalDocuments"`
}

// DocumentView is a required document with its resolved status and ledger.
type DocumentView struct {
	ID             string                   `json:"id"`
	DefinitionID   string                   `json:"definitionId"`
	Name           string                   `json:"name"`
	Description    string                   `json:"description"`
	FileTypes      []string                 `json:"fileTypes"`
	MaxSizeMB      int                      `json:"maxSizeMb"`
	Status         models.DocumentStatus    `json:"status"`
	CurrentVersion *models.DocumentVersion  `json:"currentVersion,omitempty"`
	Versions       []models.DocumentVersion `json:"versions"`
	Integrity      []string                 `json:"integrityViolations,omitempty"`
}

// RollupView exposes the project counters.
type RollupView struct {
	TotalMilestones       int  `json:"totalMilestones"`
	CompletedMilestones   int  `json:"completedMilestones"`
	InProgressMilestones  int  `json:"inProgressMilestones"`
	BlockedMilestones     int  `json:"blockedMilestones"`
	NotStartedMilestones  int  `json:"notStartedMilestones"`
	UnknownMilestones     int  `json:"unknownMilestones"`
	DocumentsApproved     int  `json:"documentsApproved"`
	DocumentsPending      int  `json:"documentsPending"`
	DocumentsRejected     int  `json:"documentsRejected"`
	DocumentsNotSubmitted int  `json:"documentsNotSubmitted"`
	DocumentsUnknown      int  `json:"documentsUnknown"`
	Progress              int  `json:"progress"`
	BudgetUtilization     *int `json:"budgetUtilization"`
}

// HealthView exposes the four project health indicators.
type HealthView struct {
	Schedule      models.ScheduleHealth      `json:"schedule"`
	Budget        models.BudgetHealth        `json:"budget"`
	Quality       models.QualityHealth       `json:"quality"`
	Documentation models.DocumentationHealth `json:"documentation"`
}
