package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/dto"
	"github.com/noah-isme/epc-dashboard-api/internal/lifecycle"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/jobs"
)

// RefreshJobType identifies background dashboard refresh jobs.
const RefreshJobType = "dashboard.refresh"

const (
	portfolioCacheKey   = "dash:portfolio"
	dashboardKeyPattern = "dash:*"
)

func projectCacheKey(projectID string) string {
	return fmt.Sprintf("dash:project:%s", projectID)
}

type dashboardRepository interface {
	aggregateLoader
	PortfolioStats(ctx context.Context) (*models.PortfolioStats, error)
}

type refreshQueue interface {
	TryEnqueue(job jobs.Job) error
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
	Policy   lifecycle.HealthPolicy
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Projects dashboardRepository
	Cache    *CacheService
	Metrics  *MetricsService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// DashboardService composes cached project and portfolio rollups.
type DashboardService struct {
	projects  dashboardRepository
	evaluator projectEvaluator
	cache     *CacheService
	metrics   *MetricsService
	queue     refreshQueue
	logger    *zap.Logger
	now       func() time.Time
	cfg       DashboardServiceConfig

	// writeLocks holds one *sync.Mutex per project id.
	writeLocks sync.Map
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.Policy.BudgetAtRiskMargin <= 0 {
		cfg.Policy = lifecycle.DefaultHealthPolicy()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		projects:  params.Projects,
		evaluator: newProjectEvaluator(params.Projects, cfg.Policy, params.Metrics, logger),
		cache:     params.Cache,
		metrics:   params.Metrics,
		logger:    logger,
		now:       time.Now,
		cfg:       cfg,
	}
}

// UseRefreshQueue makes invalidations schedule a background rebuild of the project rollup.
func (s *DashboardService) UseRefreshQueue(queue refreshQueue) {
	s.queue = queue
}

// Project returns the rollup for one project and indicates cache utilisation.
func (s *DashboardService) Project(ctx context.Context, projectID string) (*dto.ProjectDashboardResponse, bool, error) {
	if projectID == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "project id is required")
	}
	key := projectCacheKey(projectID)
	var cached dto.ProjectDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	summary, err := s.composeProject(ctx, projectID)
	if err != nil {
		return nil, false, err
	}
	if err := s.storeProject(ctx, summary); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, false, nil
}

// Portfolio returns the portfolio statistics and indicates cache utilisation.
func (s *DashboardService) Portfolio(ctx context.Context) (*dto.PortfolioDashboardResponse, bool, error) {
	var cached dto.PortfolioDashboardResponse
	if s.tryCache(ctx, portfolioCacheKey, &cached) {
		return &cached, true, nil
	}

	stats, err := s.projects.PortfolioStats(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load portfolio statistics")
	}
	summary := &dto.PortfolioDashboardResponse{PortfolioStats: *stats, GeneratedAt: s.now().UTC()}
	s.persistCache(ctx, portfolioCacheKey, summary)
	return summary, false, nil
}

// InvalidateProject drops cached rollups touched by a change to projectID and
// schedules a rebuild when a refresh queue is attached.
func (s *DashboardService) InvalidateProject(ctx context.Context, projectID string) {
	if s.cache != nil {
		_ = s.cache.Evict(ctx, projectCacheKey(projectID), portfolioCacheKey)
	}
	if s.queue == nil || !s.cache.Enabled() {
		return
	}
	job := jobs.Job{ID: projectID, Type: RefreshJobType, Payload: projectID}
	if err := s.queue.TryEnqueue(job); err != nil {
		s.logger.Debug("dashboard refresh not scheduled", zap.String("project_id", projectID), zap.Error(err))
	}
}

// Flush drops every cached rollup, including those written by a previous release.
func (s *DashboardService) Flush(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, dashboardKeyPattern)
}

// HandleRefresh rebuilds and caches the rollup named by a refresh job.
func (s *DashboardService) HandleRefresh(ctx context.Context, job jobs.Job) (err error) {
	defer func() { s.metrics.RecordRollupRefresh(err) }()

	projectID, ok := job.Payload.(string)
	if !ok || projectID == "" {
		return fmt.Errorf("refresh job %s: unexpected payload %T", job.ID, job.Payload)
	}
	summary, err := s.composeProject(ctx, projectID)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return nil
		}
		return err
	}
	return s.storeProject(ctx, summary)
}

// storeProject caches summary unless the cached rollup was composed from a newer
// project snapshot. Refresh workers and readers may finish out of order.
func (s *DashboardService) storeProject(ctx context.Context, summary *dto.ProjectDashboardResponse) error {
	if !s.cache.Enabled() {
		return nil
	}
	lock, _ := s.writeLocks.LoadOrStore(summary.ProjectID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	key := projectCacheKey(summary.ProjectID)
	var cached dto.ProjectDashboardResponse
	if s.tryCache(ctx, key, &cached) && cached.SourceUpdatedAt.After(summary.SourceUpdatedAt) {
		s.logger.Debug("stale dashboard rollup discarded",
			zap.String("project_id", summary.ProjectID),
			zap.Time("cached_source", cached.SourceUpdatedAt),
			zap.Time("source", summary.SourceUpdatedAt),
		)
		return nil
	}
	return s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
}

func (s *DashboardService) composeProject(ctx context.Context, projectID string) (*dto.ProjectDashboardResponse, error) {
	eval, err := s.evaluator.evaluate(ctx, projectID)
	if err != nil {
		return nil, err
	}
	summary := &dto.ProjectDashboardResponse{
		ProjectID:       eval.Project.ID,
		Name:            eval.Project.Name,
		Type:            eval.Project.Type,
		Rollup:          rollupView(eval.Rollup),
		Health:          healthView(eval.Health),
		UnknownFields:   unknownFields(*eval),
		SourceUpdatedAt: eval.Project.UpdatedAt.UTC(),
		GeneratedAt:     s.now().UTC(),
	}
	summary.Milestones = make([]dto.MilestoneProgress, 0, len(eval.Milestones))
	for _, m := range eval.Milestones {
		summary.Milestones = append(summary.Milestones, dto.MilestoneProgress{
			ID:       m.Milestone.ID,
			Name:     m.Milestone.Name,
			Order:    m.Milestone.Order,
			Status:   m.State.Status,
			Progress: progressOf(m.State),
		})
	}
	return summary, nil
}

// tryCache treats cache errors as misses; CacheService already logs them.
func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	return err == nil && hit
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}
