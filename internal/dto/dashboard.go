package dto

import (
	"time"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

// ProjectDashboardResponse is the rollup payload for a single project.
type ProjectDashboardResponse struct {
	ProjectID       string              `json:"projectId"`
	Name            string              `json:"name"`
	Type            models.ProjectType  `json:"type"`
	Rollup          RollupView          `json:"rollup"`
	Health          HealthView          `json:"health"`
	Milestones      []MilestoneProgress `json:"milestones"`
	UnknownFields   []string            `json:"unknownFields"`
	SourceUpdatedAt time.Time           `json:"sourceUpdatedAt"`
	GeneratedAt     time.Time           `json:"generatedAt"`
}

// MilestoneProgress is the compact milestone row shown on dashboards.
type MilestoneProgress struct {
	ID       string                 `json:"id"`
	Name     string                 `json:"name"`
	Order    int                    `json:"order"`
	Status   models.MilestoneStatus `json:"status"`
	Progress *int                   `json:"progress"`
}

// PortfolioDashboardResponse summarises every project.
type PortfolioDashboardResponse struct {
	models.PortfolioStats
	GeneratedAt time.Time `json:"generatedAt"`
}
