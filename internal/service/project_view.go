package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/lifecycle"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

func buildProjectView(eval lifecycle.ProjectEvaluation) dto.ProjectView {
	p := eval.Project
	view := dto.ProjectView{
		ID:                 p.ID,
		Name:               p.Name,
		Client:             p.Client,
		ClientInfo:         p.ClientInfo,
		NeedsAnalysis:      p.NeedsAnalysis,
		Location:           p.Location,
		Capacity:           p.Capacity.String(),
		CapacityMW:         capacityMW(p),
		Type:               p.Type,
		Status:             p.Status,
		Priority:           p.Priority,
		Phase:              p.Phase,
		Progress:           p.Progress,
		StartDate:          p.StartDate,
		EndDate:            p.EndDate,
		TeamSize:           p.TeamSize,
		Budget:             p.Budget.String(),
		Spent:              p.Spent.String(),
		Description:        p.Description,
		ProjectManager:     p.ProjectManager,
		DealType:           p.DealType,
		FinancingType:      p.FinancingType,
		ContractTerm:       p.ContractTerm,
		Rollup:             rollupView(eval.Rollup),
		Health:             healthView(eval.Health),
		IncompleteSections: incompleteSections(p),
		UnknownFields:      unknownFields(eval),
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
	view.Milestones = make([]dto.MilestoneView, 0, len(eval.Milestones))
	for _, m := range eval.Milestones {
		view.Milestones = append(view.Milestones, milestoneView(m))
	}
	return view
}

func milestoneView(e lifecycle.MilestoneEvaluation) dto.MilestoneView {
	m := e.Milestone
	view := dto.MilestoneView{
		ID:                 m.ID,
		Name:               m.Name,
		Description:        m.Description,
		Order:              m.Order,
		CompletionCriteria: m.CompletionCriteria,
		Status:             e.State.Status,
		Progress:           progressOf(e.State),
		StartDate:          m.StartDate,
		EndDate:            m.EndDate,
		CompletionDate:     m.CompletionDate,
		OptionalDocuments:  m.OptionalDocuments,
	}
	if view.OptionalDocuments == nil {
		view.OptionalDocuments = []models.OptionalDocument{}
	}
	view.RequiredDocuments = make([]dto.DocumentView, 0, len(e.Documents))
	for _, d := range e.Documents {
		view.RequiredDocuments = append(view.RequiredDocuments, documentView(d.Document, d.Status, d.Err))
	}
	return view
}

func documentView(doc models.RequiredDocument, status models.DocumentStatus, err error) dto.DocumentView {
	view := dto.DocumentView{
		ID:             doc.ID,
		DefinitionID:   doc.DefinitionID,
		Name:           doc.Name,
		Description:    doc.Description,
		FileTypes:      []string(doc.FileTypes),
		MaxSizeMB:      doc.MaxSizeMB,
		Status:         status,
		CurrentVersion: doc.CurrentVersion(),
		Versions:       doc.Versions,
	}
	if view.FileTypes == nil {
		view.FileTypes = []string{}
	}
	if view.Versions == nil {
		view.Versions = []models.DocumentVersion{}
	}
	var integrity *lifecycle.IntegrityError
	if errors.As(err, &integrity) {
		view.Integrity = integrity.Violations
	}
	return view
}

func progressOf(state lifecycle.MilestoneState) *int {
	if !state.Known() {
		return nil
	}
	p := state.Progress
	return &p
}

func rollupView(r lifecycle.ProjectRollup) dto.RollupView {
	view := dto.RollupView{
		TotalMilestones:       r.TotalMilestones,
		CompletedMilestones:   r.CompletedMilestones,
		InProgressMilestones:  r.InProgressMilestones,
		BlockedMilestones:     r.BlockedMilestones,
		NotStartedMilestones:  r.NotStartedMilestones,
		UnknownMilestones:     r.UnknownMilestones,
		DocumentsApproved:     r.DocumentsApproved,
		DocumentsPending:      r.DocumentsPending,
		DocumentsRejected:     r.DocumentsRejected,
		DocumentsNotSubmitted: r.DocumentsNotSubmitted,
		DocumentsUnknown:      r.DocumentsUnknown,
		Progress:              r.Progress,
	}
	if r.Budget.Known {
		u := r.Budget.Percent
		view.BudgetUtilization = &u
	}
	return view
}

func healthView(h lifecycle.Health) dto.HealthView {
	return dto.HealthView{
		Schedule:      h.Schedule,
		Budget:        h.Budget,
		Quality:       h.Quality,
		Documentation: h.Documentation,
	}
}

func capacityMW(p models.Project) *float64 {
	if !p.Capacity.Valid() {
		return nil
	}
	mw := p.Capacity.Megawatts()
	return &mw
}

// incompleteSections names the descriptive parts of a project that were never filled in.
func incompleteSections(p models.Project) []string {
	sections := []string{}
	if p.ClientInfo == nil || strings.TrimSpace(p.ClientInfo.Name) == "" || strings.TrimSpace(p.ClientInfo.Email) == "" {
		sections = append(sections, "clientInfo")
	}
	if p.NeedsAnalysis == nil || strings.TrimSpace(p.NeedsAnalysis.PrimaryGoal) == "" {
		sections = append(sections, "needsAnalysis")
	}
	if p.StartDate == nil || p.EndDate == nil {
		sections = append(sections, "schedule")
	}
	if strings.TrimSpace(p.Budget.String()) == "" {
		sections = append(sections, "budget")
	}
	return sections
}

func unknownFields(eval lifecycle.ProjectEvaluation) []string {
	fields := []string{}
	for i, m := range eval.Milestones {
		if !m.State.Known() {
			fields = append(fields, fmt.Sprintf("milestones[%d].status", i), fmt.Sprintf("milestones[%d].progress", i))
		}
		for j, d := range m.Documents {
			if d.Err != nil {
				fields = append(fields, fmt.Sprintf("milestones[%d].requiredDocuments[%d].status", i, j))
			}
		}
	}
	if eval.Project.Capacity.String() != "" && !eval.Project.Capacity.Valid() {
		fields = append(fields, "capacityMw")
	}
	if !eval.Rollup.Budget.Known {
		fields = append(fields, "rollup.budgetUtilization")
	}
	if eval.Health.Budget == models.BudgetUnknown {
		fields = append(fields, "health.budget")
	}
	if eval.Health.Documentation == models.DocumentationUnknown {
		fields = append(fields, "health.documentation")
	}
	return fields
}
