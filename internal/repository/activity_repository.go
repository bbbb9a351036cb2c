package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

// ActivityRepository stores the project activity feed.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends one activity outside of a ledger transaction.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	return insertActivity(ctx, r.db, activity)
}

// ListByProject returns the newest activities first along with the total count.
func (r *ActivityRepository) ListByProject(ctx context.Context, projectID string, page, size int) ([]models.Activity, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, project_id, type, message, actor, metadata, created_at FROM activities WHERE project_id = $1 ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`, size, offset)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, projectID); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM activities WHERE project_id = $1`, projectID); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}
	return activities, total, nil
}

func insertActivity(ctx context.Context, exec sqlx.ExtContext, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO activities (id, project_id, type, message, actor, metadata, created_at)
VALUES (:id, :project_id, :type, :message, :actor, :metadata, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}
