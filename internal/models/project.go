package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/epc-dashboard-api/pkg/magnitude"
)

// ProjectType selects the milestone template a project is created from.
type ProjectType string

const (
	ProjectTypeSolar          ProjectType = "Solar"
	ProjectTypeWind           ProjectType = "Wind"
	ProjectTypeHybrid         ProjectType = "Hybrid"
	ProjectTypeBatteryStorage ProjectType = "Battery Storage"
)

// ProjectTypes lists every supported project type in display order.
func ProjectTypes() []ProjectType {
	return []ProjectType{ProjectTypeSolar, ProjectTypeWind, ProjectTypeHybrid, ProjectTypeBatteryStorage}
}

// ParseProjectType accepts the wire value as well as compact spellings such as "battery-storage".
func ParseProjectType(raw string) (ProjectType, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	for _, pt := range ProjectTypes() {
		if strings.ToLower(strings.ReplaceAll(string(pt), " ", "")) == key {
			return pt, true
		}
	}
	return "", false
}

// ProjectStatus is the commercial status of a project, maintained outside the lifecycle engine.
type ProjectStatus string

const (
	ProjectStatusPlanning    ProjectStatus = "Planning"
	ProjectStatusInProgress  ProjectStatus = "In Progress"
	ProjectStatusReview      ProjectStatus = "Review"
	ProjectStatusCompleted   ProjectStatus = "Completed"
	ProjectStatusOnHold      ProjectStatus = "On Hold"
	ProjectStatusOperational ProjectStatus = "Operational"
)

// ProjectPriority ranks projects for portfolio views.
type ProjectPriority string

const (
	PriorityLow      ProjectPriority = "Low"
	PriorityMedium   ProjectPriority = "Medium"
	PriorityHigh     ProjectPriority = "High"
	PriorityCritical ProjectPriority = "Critical"
)

// ProjectPhase is the delivery phase reported by the project manager.
type ProjectPhase string

const (
	PhaseSiteAssessment ProjectPhase = "Site Assessment"
	PhaseDesign         ProjectPhase = "Design"
	PhasePermitting     ProjectPhase = "Permitting"
	PhaseProcurement    ProjectPhase = "Procurement"
	PhaseConstruction   ProjectPhase = "Construction"
	PhaseCommissioning  ProjectPhase = "Commissioning"
	PhaseOperational    ProjectPhase = "Operational"
)

// ScheduleHealth is reported by the scheduling workflow.
type ScheduleHealth string

const (
	ScheduleOnTrack ScheduleHealth = "on-track"
	ScheduleAtRisk  ScheduleHealth = "at-risk"
	ScheduleDelayed ScheduleHealth = "delayed"
)

// QualityHealth is reported by the QA workflow.
type QualityHealth string

const (
	QualityExcellent        QualityHealth = "excellent"
	QualityGood             QualityHealth = "good"
	QualityNeedsImprovement QualityHealth = "needs-improvement"
)

// BudgetHealth is derived from budget utilization.
type BudgetHealth string

const (
	BudgetOnTrack    BudgetHealth = "on-track"
	BudgetAtRisk     BudgetHealth = "at-risk"
	BudgetOverBudget BudgetHealth = "over-budget"
	BudgetUnknown    BudgetHealth = "unknown"
)

// DocumentationHealth is derived from required document statuses.
type DocumentationHealth string

const (
	DocumentationComplete   DocumentationHealth = "complete"
	DocumentationInProgress DocumentationHealth = "in-progress"
	DocumentationIncomplete DocumentationHealth = "incomplete"
	DocumentationUnknown    DocumentationHealth = "unknown"
)

// ClientInfo describes the client organisation behind a project.
type ClientInfo struct {
	Name          string `json:"name"`
	CompanyName   string `json:"companyName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Industry      string `json:"industry,omitempty"`
	BusinessType  string `json:"businessType,omitempty"`
	Website       string `json:"website,omitempty"`
	ContactPerson string `json:"contactPerson,omitempty"`
}

// Scan implements sql.Scanner for jsonb columns.
func (c *ClientInfo) Scan(src interface{}) error { return scanJSON(src, c) }

// Value implements driver.Valuer.
func (c ClientInfo) Value() (driver.Value, error) { return json.Marshal(c) }

// NeedsAnalysis captures the commercial motivation for a project.
type NeedsAnalysis struct {
	PrimaryGoal            string   `json:"primaryGoal"`
	PainPoints             []string `json:"painPoints"`
	EnergyUsagePattern     string   `json:"energyUsagePattern"`
	CurrentElectricityCost string   `json:"currentElectricityCost,omitempty"`
	Motivations            []string `json:"motivations"`
	Constraints            []string `json:"constraints,omitempty"`
	Timeline               string   `json:"timeline,omitempty"`
	Budget                 string   `json:"budget,omitempty"`
}

// Scan implements sql.Scanner for jsonb columns.
func (n *NeedsAnalysis) Scan(src interface{}) error { return scanJSON(src, n) }

// Value implements driver.Valuer.
func (n NeedsAnalysis) Value() (driver.Value, error) { return json.Marshal(n) }

// Project is a single EPC engagement and the owner of its milestones.
type Project struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Client         string          `db:"client" json:"client"`
	ClientInfo     *ClientInfo     `db:"client_info" json:"clientInfo,omitempty"`
	NeedsAnalysis  *NeedsAnalysis  `db:"needs_analysis" json:"needsAnalysis,omitempty"`
	Location       string          `db:"location" json:"location"`
	Capacity       magnitude.Power `db:"capacity" json:"capacity"`
	Type           ProjectType     `db:"type" json:"type"`
	Status         ProjectStatus   `db:"status" json:"status"`
	Priority       ProjectPriority `db:"priority" json:"priority"`
	Phase          ProjectPhase    `db:"phase" json:"phase"`
	Progress       int             `db:"progress" json:"progress"`
	StartDate      *time.Time      `db:"start_date" json:"startDate,omitempty"`
	EndDate        *time.Time      `db:"end_date" json:"endDate,omitempty"`
	TeamSize       int             `db:"team_size" json:"teamSize"`
	Budget         magnitude.Money `db:"budget" json:"budget"`
	Spent          magnitude.Money `db:"spent" json:"spent"`
	Description    string          `db:"description" json:"description"`
	ProjectManager string          `db:"project_manager" json:"projectManager"`
	DealType       string          `db:"deal_type" json:"dealType"`
	FinancingType  string          `db:"financing_type" json:"financingType"`
	ContractTerm   *string         `db:"contract_term" json:"contractTerm,omitempty"`
	ScheduleHealth ScheduleHealth  `db:"schedule_health" json:"scheduleHealth"`
	QualityHealth  QualityHealth   `db:"quality_health" json:"qualityHealth"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
	Milestones     []Milestone     `db:"-" json:"milestones,omitempty"`
}

// ProjectFilter narrows portfolio listings.
type ProjectFilter struct {
	Search    string
	Status    ProjectStatus
	Type      ProjectType
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// PortfolioStats summarises every project for the portfolio dashboard.
type PortfolioStats struct {
	TotalProjects   int     `db:"total_projects" json:"totalProjects"`
	Completed       int     `db:"completed" json:"completed"`
	InProgress      int     `db:"in_progress" json:"inProgress"`
	Planning        int     `db:"planning" json:"planning"`
	TotalCapacityMW float64 `db:"total_capacity_mw" json:"totalCapacityMw"`
	TotalBudget     float64 `db:"total_budget" json:"totalBudget"`
}

func scanJSON(src interface{}, dest interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dest)
	case string:
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
}
