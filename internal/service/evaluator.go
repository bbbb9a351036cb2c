package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/epc-dashboard-api/internal/lifecycle"
	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

type aggregateLoader interface {
	LoadAggregate(ctx context.Context, id string) (*models.Project, error)
}

// projectEvaluator loads a project aggregate and runs the derivation pipeline over it.
// Inconsistent ledgers are logged and counted but never fail the evaluation.
type projectEvaluator struct {
	loader  aggregateLoader
	policy  lifecycle.HealthPolicy
	metrics *MetricsService
	logger  *zap.Logger
}

func newProjectEvaluator(loader aggregateLoader, policy lifecycle.HealthPolicy, metrics *MetricsService, logger *zap.Logger) projectEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return projectEvaluator{loader: loader, policy: policy, metrics: metrics, logger: logger}
}

func (e projectEvaluator) evaluate(ctx context.Context, id string) (*lifecycle.ProjectEvaluation, error) {
	project, err := e.loader.LoadAggregate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}

	eval := lifecycle.EvaluateProject(*project, e.policy)
	for _, m := range eval.Milestones {
		e.metrics.RecordDerivation(string(m.State.Status))
	}
	for _, failed := range eval.Failed() {
		for _, d := range failed.Documents {
			if d.Err != nil {
				e.metrics.RecordIntegrityViolation()
			}
		}
		e.logger.Warn("milestone derivation degraded",
			zap.String("project_id", project.ID),
			zap.String("milestone_id", failed.Milestone.ID),
			zap.Error(failed.Err),
		)
	}
	return &eval, nil
}
