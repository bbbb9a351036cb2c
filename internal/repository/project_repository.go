package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

// touchProject advances updated_at strictly, even when two writers share a clock tick.
// Cached dashboard rollups use it as their snapshot version.
const touchProject = `updated_at = GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')`

const projectColumns = `id, name, client, client_info, needs_analysis, location, capacity, type, status, priority, phase, progress, start_date, end_date, team_size, budget, spent, description, project_manager, deal_type, financing_type, contract_term, schedule_health, quality_health, created_at, updated_at`

// ProjectRepository persists projects and loads them with their milestone tree.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs a ProjectRepository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// CreateWithMilestones inserts the project, its milestones and their required documents
// in one transaction. Ledgers start empty.
func (r *ProjectRepository) CreateWithMilestones(ctx context.Context, project *models.Project) (err error) {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	project.CreatedAt = now
	project.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin project transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertProject = `INSERT INTO projects (` + projectColumns + `, capacity_mw, budget_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`
	if _, err = tx.ExecContext(ctx, insertProject,
		project.ID, project.Name, project.Client, project.ClientInfo, project.NeedsAnalysis, project.Location,
		project.Capacity, project.Type, project.Status, project.Priority, project.Phase, project.Progress,
		project.StartDate, project.EndDate, project.TeamSize, project.Budget, project.Spent, project.Description,
		project.ProjectManager, project.DealType, project.FinancingType, project.ContractTerm,
		project.ScheduleHealth, project.QualityHealth, project.CreatedAt, project.UpdatedAt,
		capacityMW(project), budgetAmount(project),
	); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}

	const insertMilestone = `INSERT INTO milestones (id, project_id, name, description, sort_order, completion_criteria, status, progress, start_date, end_date, completion_date)
VALUES (:id, :project_id, :name, :description, :sort_order, :completion_criteria, :status, :progress, :start_date, :end_date, :completion_date)`
	const insertDocument = `INSERT INTO required_documents (id, milestone_id, definition_id, name, description, file_types, max_size_mb, position, current_version_id)
VALUES (:id, :milestone_id, :definition_id, :name, :description, :file_types, :max_size_mb, :position, :current_version_id)`

	for i := range project.Milestones {
		m := &project.Milestones[i]
		m.ProjectID = project.ID
		if _, err = tx.NamedExecContext(ctx, insertMilestone, m); err != nil {
			return fmt.Errorf("insert milestone %q: %w", m.Name, err)
		}
		for j := range m.RequiredDocuments {
			doc := &m.RequiredDocuments[j]
			doc.MilestoneID = m.ID
			doc.Position = j + 1
			if _, err = tx.NamedExecContext(ctx, insertDocument, doc); err != nil {
				return fmt.Errorf("insert required document %q: %w", doc.DefinitionID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit project: %w", err)
	}
	return nil
}

// FindByID fetches the project row without its milestones.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// LoadAggregate fetches a project with milestones, required documents, their ledgers
// and optional documents, all in template and append order.
func (r *ProjectRepository) LoadAggregate(ctx context.Context, id string) (*models.Project, error) {
	project, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	const milestoneQuery = `SELECT ` + milestoneColumns + ` FROM milestones WHERE project_id = $1 ORDER BY sort_order ASC`
	var milestones []models.Milestone
	if err := r.db.SelectContext(ctx, &milestones, milestoneQuery, id); err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	const documentQuery = `SELECT ` + requiredDocumentColumns + ` FROM required_documents rd JOIN milestones m ON m.id = rd.milestone_id WHERE m.project_id = $1 ORDER BY m.sort_order ASC, rd.position ASC`
	var docs []models.RequiredDocument
	if err := r.db.SelectContext(ctx, &docs, documentQuery, id); err != nil {
		return nil, fmt.Errorf("list required documents: %w", err)
	}

	const versionQuery = `SELECT ` + versionColumns + ` FROM document_versions v JOIN required_documents rd ON rd.id = v.document_id JOIN milestones m ON m.id = rd.milestone_id WHERE m.project_id = $1 ORDER BY v.document_id ASC, v.seq ASC`
	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, versionQuery, id); err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}

	const optionalQuery = `SELECT ` + optionalDocumentColumns + ` FROM optional_documents od JOIN milestones m ON m.id = od.milestone_id WHERE m.project_id = $1 ORDER BY od.uploaded_at ASC`
	var optional []models.OptionalDocument
	if err := r.db.SelectContext(ctx, &optional, optionalQuery, id); err != nil {
		return nil, fmt.Errorf("list optional documents: %w", err)
	}

	project.Milestones = assembleMilestones(milestones, attachVersions(docs, versions), optional)
	return project, nil
}

// List returns projects matching filter along with the total count.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	base := "FROM projects WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(client) LIKE $%d OR LOWER(location) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":      "name",
		"status":    "status",
		"progress":  "progress",
		"startDate": "start_date",
		"capacity":  "capacity_mw",
		"createdAt": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
		if column == "name" {
			order = "ASC"
		}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s NULLS LAST, id ASC LIMIT %d OFFSET %d", projectColumns, base, column, order, size, offset)
	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	return projects, total, nil
}

// UpdateProgress stores the externally reported project progress.
func (r *ProjectRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	const query = `UPDATE projects SET progress = $1, ` + touchProject + ` WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, progress, id)
	if err != nil {
		return fmt.Errorf("update project progress: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update project progress: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PortfolioStats aggregates headline numbers across every project.
func (r *ProjectRepository) PortfolioStats(ctx context.Context) (*models.PortfolioStats, error) {
	const query = `SELECT
	COUNT(*) AS total_projects,
	COUNT(*) FILTER (WHERE status IN ('Completed', 'Operational')) AS completed,
	COUNT(*) FILTER (WHERE status = 'In Progress') AS in_progress,
	COUNT(*) FILTER (WHERE status = 'Planning') AS planning,
	COALESCE(SUM(capacity_mw), 0) AS total_capacity_mw,
	COALESCE(SUM(budget_amount), 0) AS total_budget
FROM projects`
	var stats models.PortfolioStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("portfolio stats: %w", err)
	}
	return &stats, nil
}

func capacityMW(p *models.Project) sql.NullFloat64 {
	if !p.Capacity.Valid() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Capacity.Megawatts(), Valid: true}
}

func budgetAmount(p *models.Project) sql.NullFloat64 {
	if !p.Budget.Valid() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: p.Budget.Amount(), Valid: true}
}
