package lifecycle

import "github.com/noah-isme/epc-dashboard-api/internal/models"

// DefaultBudgetAtRiskMargin is how many percentage points utilization may run ahead of
// progress before the budget is flagged at risk.
const DefaultBudgetAtRiskMargin = 10

// HealthPolicy tunes the derived health indicators.
type HealthPolicy struct {
	BudgetAtRiskMargin int
}

// DefaultHealthPolicy returns the policy used when nothing is configured.
func DefaultHealthPolicy() HealthPolicy {
	return HealthPolicy{BudgetAtRiskMargin: DefaultBudgetAtRiskMargin}
}

// Health groups the project health indicators. Schedule and quality are stored by
// their own workflows; budget and documentation are derived.
type Health struct {
	Schedule      models.ScheduleHealth
	Budget        models.BudgetHealth
	Quality       models.QualityHealth
	Documentation models.DocumentationHealth
}

// DeriveHealth computes the derived indicators and passes the stored ones through.
func DeriveHealth(p models.Project, r ProjectRollup, policy HealthPolicy) Health {
	return Health{
		Schedule:      p.ScheduleHealth,
		Quality:       p.QualityHealth,
		Budget:        budgetHealth(r, policy),
		Documentation: documentationHealth(r),
	}
}

func budgetHealth(r ProjectRollup, policy HealthPolicy) models.BudgetHealth {
	switch {
	case !r.Budget.Known:
		return models.BudgetUnknown
	case r.Budget.Percent > 100:
		return models.BudgetOverBudget
	case r.Budget.Percent > r.Progress+policy.BudgetAtRiskMargin:
		return models.BudgetAtRisk
	default:
		return models.BudgetOnTrack
	}
}

func documentationHealth(r ProjectRollup) models.DocumentationHealth {
	switch {
	case r.UnknownMilestones > 0:
		return models.DocumentationUnknown
	case r.TotalMilestones > 0 && r.CompletedMilestones == r.TotalMilestones:
		return models.DocumentationComplete
	case r.BlockedMilestones > 0:
		return models.DocumentationIncomplete
	case r.DocumentsApproved+r.DocumentsPending == 0:
		return models.DocumentationIncomplete
	default:
		return models.DocumentationInProgress
	}
}
