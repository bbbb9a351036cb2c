package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

func TestBudgetHealth(t *testing.T) {
	policy := DefaultHealthPolicy()
	cases := []struct {
		name     string
		rollup   ProjectRollup
		expected models.BudgetHealth
	}{
		{"unknown", ProjectRollup{}, models.BudgetUnknown},
		{"over budget", ProjectRollup{Progress: 100, Budget: Utilization{Percent: 104, Known: true}}, models.BudgetOverBudget},
		{"ahead of progress", ProjectRollup{Progress: 30, Budget: Utilization{Percent: 45, Known: true}}, models.BudgetAtRisk},
		{"within margin", ProjectRollup{Progress: 30, Budget: Utilization{Percent: 40, Known: true}}, models.BudgetOnTrack},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, DeriveHealth(models.Project{}, tc.rollup, policy).Budget)
		})
	}
}

func TestDocumentationHealth(t *testing.T) {
	assert.Equal(t, models.DocumentationComplete, documentationHealth(ProjectRollup{TotalMilestones: 2, CompletedMilestones: 2}))
	assert.Equal(t, models.DocumentationInProgress, documentationHealth(ProjectRollup{TotalMilestones: 2, DocumentsPending: 1}))
	assert.Equal(t, models.DocumentationIncomplete, documentationHealth(ProjectRollup{TotalMilestones: 2}))
	assert.Equal(t, models.DocumentationIncomplete, documentationHealth(ProjectRollup{TotalMilestones: 2, BlockedMilestones: 1, DocumentsApproved: 3}))
	assert.Equal(t, models.DocumentationUnknown, documentationHealth(ProjectRollup{TotalMilestones: 2, UnknownMilestones: 1}))
}
