package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
)

type activityRepository interface {
	ListByProject(ctx context.Context, projectID string, page, size int) ([]models.Activity, int, error)
}

type projectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

// ActivityService serves the project activity feed.
type ActivityService struct {
	activities activityRepository
	projects   projectFinder
}

// NewActivityService constructs an ActivityService.
func NewActivityService(activities activityRepository, projects projectFinder) *ActivityService {
	return &ActivityService{activities: activities, projects: projects}
}

// List returns the newest activity entries of a project first.
func (s *ActivityService) List(ctx context.Context, projectID string, page, size int) ([]models.Activity, *models.Pagination, error) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load project")
	}
	items, total, err := s.activities.ListByProject(ctx, projectID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	if items == nil {
		items = []models.Activity{}
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
