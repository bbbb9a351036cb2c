package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/catalog"
	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/lifecycle"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/magnitude"
)

type projectRepository interface {
	CreateWithMilestones(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	LoadAggregate(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	UpdateProgress(ctx context.Context, id string, progress int) error
}

type activityRecorder interface {
	Create(ctx context.Context, activity *models.Activity) error
}

type milestoneSeeder interface {
	Instantiate(projectID string, pt models.ProjectType, limit int, newID func() string) ([]models.Milestone, error)
}

type dashboardInvalidator interface {
	InvalidateProject(ctx context.Context, projectID string)
}

var projectStatuses = map[string]models.ProjectStatus{
	string(models.ProjectStatusPlanning):    models.ProjectStatusPlanning,
	string(models.ProjectStatusInProgress):  models.ProjectStatusInProgress,
	string(models.ProjectStatusReview):      models.ProjectStatusReview,
	string(models.ProjectStatusCompleted):   models.ProjectStatusCompleted,
	string(models.ProjectStatusOnHold):      models.ProjectStatusOnHold,
	string(models.ProjectStatusOperational): models.ProjectStatusOperational,
}

// ProjectServiceParams groups constructor dependencies.
type ProjectServiceParams struct {
	Projects   projectRepository
	Activities activityRecorder
	Catalog    milestoneSeeder
	Dashboard  dashboardInvalidator
	Metrics    *MetricsService
	Validator  *validator.Validate
	Logger     *zap.Logger
	Policy     lifecycle.HealthPolicy
}

// ProjectService creates projects from templates and serves their derived views.
type ProjectService struct {
	projects   projectRepository
	activities activityRecorder
	catalog    milestoneSeeder
	dashboard  dashboardInvalidator
	validator  *validator.Validate
	logger     *zap.Logger
	policy     lifecycle.HealthPolicy
	evaluator  projectEvaluator
	now        func() time.Time
	newID      func() string
}

// NewProjectService constructs a ProjectService.
func NewProjectService(params ProjectServiceParams) *ProjectService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	policy := params.Policy
	if policy.BudgetAtRiskMargin <= 0 {
		policy = lifecycle.DefaultHealthPolicy()
	}
	return &ProjectService{
		projects:   params.Projects,
		activities: params.Activities,
		catalog:    params.Catalog,
		dashboard:  params.Dashboard,
		validator:  validate,
		logger:     logger,
		policy:     policy,
		evaluator:  newProjectEvaluator(params.Projects, policy, params.Metrics, logger),
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Create validates the payload and stores a project seeded from its type's template.
func (s *ProjectService) Create(ctx context.Context, req dto.CreateProjectRequest) (*dto.ProjectView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	projectType, ok := models.ParseProjectType(req.Type)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnknownProjectType, fmt.Sprintf("unknown project type %q", req.Type))
	}
	status := models.ProjectStatusPlanning
	if req.Status != "" {
		status, ok = projectStatuses[req.Status]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown project status %q", req.Status))
		}
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not be before startDate")
	}

	capacity, err := magnitude.ParsePower(req.Capacity)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("capacity %q is not a power value", req.Capacity))
	}

	now := s.now().UTC()
	project := &models.Project{
		ID:             s.newID(),
		Name:           strings.TrimSpace(req.Name),
		Client:         strings.TrimSpace(req.Client),
		ClientInfo:     req.ClientInfo,
		NeedsAnalysis:  req.NeedsAnalysis,
		Location:       strings.TrimSpace(req.Location),
		Capacity:       capacity,
		Type:           projectType,
		Status:         status,
		Priority:       models.ProjectPriority(defaultString(req.Priority, string(models.PriorityMedium))),
		Phase:          models.ProjectPhase(defaultString(req.Phase, string(models.PhaseSiteAssessment))),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		TeamSize:       req.TeamSize,
		Budget:         magnitude.MoneyOf(req.Budget),
		Spent:          magnitude.MoneyOf(defaultString(req.Spent, "0")),
		Description:    req.Description,
		ProjectManager: req.ProjectManager,
		DealType:       req.DealType,
		FinancingType:  req.FinancingType,
		ContractTerm:   req.ContractTerm,
		ScheduleHealth: models.ScheduleOnTrack,
		QualityHealth:  models.QualityGood,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	milestones, err := s.catalog.Instantiate(project.ID, projectType, req.MilestoneLimit, s.newID)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownProjectType) {
			return nil, appErrors.Wrap(err, appErrors.ErrUnknownProjectType.Code, appErrors.ErrUnknownProjectType.Status, "no template for project type")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed milestones")
	}
	project.Milestones = milestones

	if err := s.projects.CreateWithMilestones(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("type", string(projectType)),
		zap.Int("milestones", len(milestones)),
	)
	s.invalidate(ctx, project.ID)

	view := buildProjectView(lifecycle.EvaluateProject(*project, s.policy))
	return &view, nil
}

// Get loads a project aggregate and derives every status, progress and rollup value.
func (s *ProjectService) Get(ctx context.Context, id string) (*dto.ProjectView, error) {
	eval, err := s.Evaluate(ctx, id)
	if err != nil {
		return nil, err
	}
	view := buildProjectView(*eval)
	return &view, nil
}

// Evaluate runs the derivation pipeline over a freshly loaded project.
func (s *ProjectService) Evaluate(ctx context.Context, id string) (*lifecycle.ProjectEvaluation, error) {
	return s.evaluator.evaluate(ctx, id)
}

// List returns the portfolio page matching query.
func (s *ProjectService) List(ctx context.Context, query dto.ProjectListQuery) ([]dto.ProjectSummary, *models.Pagination, error) {
	filter := models.ProjectFilter{
		Search:    strings.TrimSpace(query.Search),
		SortBy:    query.Sort,
		SortOrder: query.Order,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Status != "" {
		status, ok := projectStatuses[query.Status]
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown project status %q", query.Status))
		}
		filter.Status = status
	}
	if query.Type != "" {
		pt, ok := models.ParseProjectType(query.Type)
		if !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrUnknownProjectType, fmt.Sprintf("unknown project type %q", query.Type))
		}
		filter.Type = pt
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	projects, total, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	items := make([]dto.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		items = append(items, projectSummary(p))
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// UpdateProgress stores the externally maintained project progress and records the change.
func (s *ProjectService) UpdateProgress(ctx context.Context, id, actor string, req dto.UpdateProgressRequest) (*dto.ProjectSummary, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	if strings.TrimSpace(actor) == "" {
		return nil, appErrors.ErrUnauthorized
	}
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	if err := s.projects.UpdateProgress(ctx, id, *req.Progress); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress")
	}

	previous := project.Progress
	project.Progress = *req.Progress
	project.UpdatedAt = s.now().UTC()
	if previous != project.Progress && s.activities != nil {
		activity := &models.Activity{
			ProjectID: id,
			Type:      models.ActivityProjectUpdated,
			Message:   fmt.Sprintf("Project progress updated to %d%%", project.Progress),
			Actor:     actor,
			Metadata: models.ActivityMetadata{
				OldValue: strconv.Itoa(previous),
				NewValue: strconv.Itoa(project.Progress),
			},
			CreatedAt: project.UpdatedAt,
		}
		if err := s.activities.Create(ctx, activity); err != nil {
			s.logger.Warn("record progress activity failed", zap.String("project_id", id), zap.Error(err))
		}
	}
	s.invalidate(ctx, id)

	summary := projectSummary(*project)
	return &summary, nil
}

func (s *ProjectService) invalidate(ctx context.Context, projectID string) {
	if s.dashboard != nil {
		s.dashboard.InvalidateProject(ctx, projectID)
	}
}

func projectSummary(p models.Project) dto.ProjectSummary {
	return dto.ProjectSummary{
		ID:             p.ID,
		Name:           p.Name,
		Client:         p.Client,
		Location:       p.Location,
		Capacity:       p.Capacity.String(),
		CapacityMW:     capacityMW(p),
		Type:           p.Type,
		Status:         p.Status,
		Priority:       p.Priority,
		Phase:          p.Phase,
		Progress:       p.Progress,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		ProjectManager: p.ProjectManager,
		UpdatedAt:      p.UpdatedAt,
	}
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return strings.TrimSpace(v)
}
