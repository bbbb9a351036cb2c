package lifecycle

import (
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	"github.com/noah-isme/epc-dashboard-api/pkg/magnitude"
)

// Utilization is spent as a percentage of budget. Known is false when either amount
// could not be interpreted, the budget is not positive, or the currencies differ.
type Utilization struct {
	Percent int
	Known   bool
}

// BudgetUtilization computes spent / budget * 100 after normalising K/M/B scales.
func BudgetUtilization(budget, spent magnitude.Money) Utilization {
	if !budget.Valid() || !spent.Valid() {
		return Utilization{}
	}
	if !sameCurrency(budget.Currency, spent.Currency) {
		return Utilization{}
	}
	total := budget.Amount()
	if total <= 0 {
		return Utilization{}
	}
	return Utilization{Percent: magnitude.Round(spent.Amount() / total * 100), Known: true}
}

func sameCurrency(a, b string) bool {
	if a == "" || b == "" {
		return true
	}
	return normalizeCurrency(a) == normalizeCurrency(b)
}

func normalizeCurrency(c string) string {
	switch c {
	case "$", "US$":
		return "USD"
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	case "¥":
		return "JPY"
	case "Rp":
		return "IDR"
	}
	return c
}

// ProjectRollup aggregates milestone and document counters for one project.
// Progress is the stored project progress and is reported, never derived.
type ProjectRollup struct {
	TotalMilestones      int
	CompletedMilestones  int
	InProgressMilestones int
	BlockedMilestones    int
	NotStartedMilestones int
	UnknownMilestones    int

	DocumentsApproved     int
	DocumentsPending      int
	DocumentsRejected     int
	DocumentsNotSubmitted int
	DocumentsUnknown      int

	Progress int
	Budget   Utilization
}

// ProjectEvaluation is the complete derived view of a project.
type ProjectEvaluation struct {
	Project    models.Project
	Milestones []MilestoneEvaluation
	Rollup     ProjectRollup
	Health     Health
}

// Failed returns the milestone evaluations that could not be derived.
func (e ProjectEvaluation) Failed() []MilestoneEvaluation {
	var failed []MilestoneEvaluation
	for _, m := range e.Milestones {
		if m.Err != nil {
			failed = append(failed, m)
		}
	}
	return failed
}

// EvaluateProject runs the full derivation pipeline over a loaded project.
func EvaluateProject(p models.Project, policy HealthPolicy) ProjectEvaluation {
	evals := make([]MilestoneEvaluation, 0, len(p.Milestones))
	for _, m := range p.Milestones {
		evals = append(evals, EvaluateMilestone(m))
	}
	rollup := Rollup(p, evals)
	return ProjectEvaluation{
		Project:    p,
		Milestones: evals,
		Rollup:     rollup,
		Health:     DeriveHealth(p, rollup, policy),
	}
}

// Rollup folds milestone evaluations into project counters. Document counters only
// include documents whose status resolved.
func Rollup(p models.Project, evals []MilestoneEvaluation) ProjectRollup {
	r := ProjectRollup{
		TotalMilestones: len(evals),
		Progress:        p.Progress,
		Budget:          BudgetUtilization(p.Budget, p.Spent),
	}
	for _, e := range evals {
		switch e.State.Status {
		case models.MilestoneCompleted:
			r.CompletedMilestones++
		case models.MilestoneInProgress:
			r.InProgressMilestones++
		case models.MilestoneBlocked:
			r.BlockedMilestones++
		case models.MilestoneNotStarted:
			r.NotStartedMilestones++
		default:
			r.UnknownMilestones++
		}
		for _, d := range e.Documents {
			switch d.Status {
			case models.DocumentApproved:
				r.DocumentsApproved++
			case models.DocumentPendingReview:
				r.DocumentsPending++
			case models.DocumentRejected:
				r.DocumentsRejected++
			case models.DocumentNotSubmitted:
				r.DocumentsNotSubmitted++
			default:
				r.DocumentsUnknown++
			}
		}
	}
	return r
}
