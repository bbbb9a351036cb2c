package lifecycle

import (
	"errors"
	"time"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
	"github.com/noah-isme/epc-dashboard-api/pkg/magnitude"
)

// MilestoneState is the derived lifecycle of one milestone.
type MilestoneState struct {
	Status       models.MilestoneStatus
	Progress     int
	Total        int
	Approved     int
	Pending      int
	Rejected     int
	NotSubmitted int
	Unknown      int
}

// Known reports whether the state was derived from consistent ledgers.
func (s MilestoneState) Known() bool {
	return s.Status != models.MilestoneStatusUnknown
}

// DocumentResult is the resolved status of one required document.
type DocumentResult struct {
	Document models.RequiredDocument
	Status   models.DocumentStatus
	Err      error
}

// MilestoneEvaluation carries a milestone with its per-document and derived results.
type MilestoneEvaluation struct {
	Milestone models.Milestone
	Documents []DocumentResult
	State     MilestoneState
	Err       error
}

// DeriveMilestone computes status and progress from the required documents of a milestone.
//
// Progress is round(approved/total*100) but never reaches 100 before every document is
// approved. Status precedence is completed, blocked, in-progress, not-started. A
// milestone without required documents yields ErrNoRequiredDocuments; inconsistent
// ledgers yield MilestoneStatusUnknown together with their integrity errors.
func DeriveMilestone(docs []models.RequiredDocument) (MilestoneState, error) {
	_, state, err := deriveMilestone(docs)
	return state, err
}

// EvaluateMilestone resolves every required document of m and derives its state.
func EvaluateMilestone(m models.Milestone) MilestoneEvaluation {
	results, state, err := deriveMilestone(m.RequiredDocuments)
	return MilestoneEvaluation{Milestone: m, Documents: results, State: state, Err: err}
}

func deriveMilestone(docs []models.RequiredDocument) ([]DocumentResult, MilestoneState, error) {
	state := MilestoneState{Total: len(docs)}
	if len(docs) == 0 {
		state.Status = models.MilestoneStatusUnknown
		return nil, state, ErrNoRequiredDocuments
	}

	results := make([]DocumentResult, 0, len(docs))
	var errs []error
	for _, doc := range docs {
		status, err := ResolveStatus(doc)
		results = append(results, DocumentResult{Document: doc, Status: status, Err: err})
		if err != nil {
			errs = append(errs, err)
		}
		switch status {
		case models.DocumentApproved:
			state.Approved++
		case models.DocumentPendingReview:
			state.Pending++
		case models.DocumentRejected:
			state.Rejected++
		case models.DocumentNotSubmitted:
			state.NotSubmitted++
		default:
			state.Unknown++
		}
	}

	if len(errs) > 0 {
		state.Status = models.MilestoneStatusUnknown
		state.Progress = 0
		return results, state, errors.Join(errs...)
	}

	state.Progress = progressPercent(state.Approved, state.Total)
	switch {
	case state.Approved == state.Total:
		state.Status = models.MilestoneCompleted
	case state.Rejected > 0:
		state.Status = models.MilestoneBlocked
	case state.Approved+state.Pending > 0:
		state.Status = models.MilestoneInProgress
	default:
		state.Status = models.MilestoneNotStarted
	}
	return results, state, nil
}

func progressPercent(approved, total int) int {
	if approved >= total {
		return 100
	}
	p := magnitude.Round(float64(approved) / float64(total) * 100)
	if p > 99 {
		return 99
	}
	return p
}

// Transition records how a milestone moved between two derivations.
type Transition struct {
	From      models.MilestoneStatus
	To        models.MilestoneStatus
	Started   bool
	Completed bool
	Reopened  bool
}

// Changed reports whether the derived status differs from the stored one.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// Advance applies a fresh derivation to the stored milestone snapshot.
//
// The start date is set the first time the milestone leaves not-started and is never
// moved afterwards. The completion date is set when it becomes completed and cleared
// when a later version pulls it back out. Unknown states leave the snapshot untouched.
func Advance(m models.Milestone, state MilestoneState, now time.Time) (models.Milestone, Transition) {
	t := Transition{From: m.Status, To: state.Status}
	if !state.Known() {
		t.To = m.Status
		return m, t
	}

	next := m
	next.Status = state.Status
	next.Progress = state.Progress
	now = now.UTC()

	if state.Status != models.MilestoneNotStarted && m.StartDate == nil {
		started := now
		next.StartDate = &started
		t.Started = true
	}
	if state.Status == models.MilestoneCompleted && m.Status != models.MilestoneCompleted {
		completed := now
		next.CompletionDate = &completed
		t.Completed = true
	}
	if state.Status != models.MilestoneCompleted && m.Status == models.MilestoneCompleted {
		next.CompletionDate = nil
		t.Reopened = true
	}
	return next, t
}
