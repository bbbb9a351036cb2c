package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
)

const (
	milestoneColumns        = `id, project_id, name, description, sort_order, completion_criteria, status, progress, start_date, end_date, completion_date`
	requiredDocumentColumns = `rd.id, rd.milestone_id, rd.definition_id, rd.name, rd.description, rd.file_types, rd.max_size_mb, rd.position, rd.current_version_id`
	versionColumns          = `v.id, v.document_id, v.version, v.file_name, v.file_size_bytes, v.file_url, v.uploaded_by, v.uploaded_at, v.status, v.reviewed_by, v.reviewed_at, v.rejection_reason`
	optionalDocumentColumns = `od.id, od.milestone_id, od.name, od.description, od.file_name, od.file_size_bytes, od.file_url, od.uploaded_by, od.uploaded_at, od.status, od.reviewed_by, od.reviewed_at, od.rejection_reason`
)

// ErrVersionConflict means a review targeted a version that stopped being pending.
var ErrVersionConflict = errors.New("document version changed concurrently")

// LedgerChange is what a ledger mutation asks the repository to persist.
// Exactly one version is either inserted (append) or updated (review).
type LedgerChange struct {
	Version    models.DocumentVersion
	Insert     bool
	Milestone  models.Milestone
	Activities []models.Activity
}

// LedgerMutation computes a change from the locked milestone and the target document.
type LedgerMutation func(milestone models.Milestone, doc models.RequiredDocument) (*LedgerChange, error)

// DocumentRepository persists required documents and their append-only ledgers.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// FindByID returns a required document with its full ledger.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.RequiredDocument, error) {
	doc, err := getRequiredDocument(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	versions, err := listVersions(ctx, r.db, []string{doc.ID})
	if err != nil {
		return nil, err
	}
	loaded := attachVersions([]models.RequiredDocument{*doc}, versions)[0]
	return &loaded, nil
}

// FindMilestone returns the milestone owning documentID without its document tree.
func (r *DocumentRepository) FindMilestone(ctx context.Context, documentID string) (*models.Milestone, error) {
	const query = `SELECT m.id, m.project_id, m.name, m.description, m.sort_order, m.completion_criteria, m.status, m.progress, m.start_date, m.end_date, m.completion_date
FROM milestones m JOIN required_documents rd ON rd.milestone_id = m.id WHERE rd.id = $1`
	var milestone models.Milestone
	if err := r.db.GetContext(ctx, &milestone, query, documentID); err != nil {
		return nil, err
	}
	return &milestone, nil
}

// Mutate serialises ledger writes for one document. Inside a transaction it locks the
// document and its milestone, loads every ledger of the milestone, hands them to
// mutate and persists the returned version, milestone snapshot and activities.
func (r *DocumentRepository) Mutate(ctx context.Context, documentID string, mutate LedgerMutation) (change *LedgerChange, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	target, err := getRequiredDocument(ctx, tx, documentID, true)
	if err != nil {
		return nil, err
	}

	milestone, err := lockMilestone(ctx, tx, target.MilestoneID)
	if err != nil {
		return nil, err
	}

	docs, err := listRequiredDocuments(ctx, tx, milestone.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	versions, err := listVersions(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	milestone.RequiredDocuments = attachVersions(docs, versions)

	var current models.RequiredDocument
	for _, d := range milestone.RequiredDocuments {
		if d.ID == documentID {
			current = d
		}
	}

	change, err = mutate(*milestone, current)
	if err != nil {
		return nil, err
	}

	if change.Insert {
		err = insertVersion(ctx, tx, &change.Version)
	} else {
		err = reviewVersion(ctx, tx, change.Version)
	}
	if err != nil {
		return nil, err
	}

	if err = updateMilestoneSnapshot(ctx, tx, change.Milestone); err != nil {
		return nil, err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE projects SET `+touchProject+` WHERE id = $1`, milestone.ProjectID); err != nil {
		return nil, fmt.Errorf("touch project: %w", err)
	}
	for i := range change.Activities {
		change.Activities[i].ProjectID = milestone.ProjectID
		if err = insertActivity(ctx, tx, &change.Activities[i]); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ledger change: %w", err)
	}
	return change, nil
}

func getRequiredDocument(ctx context.Context, q sqlx.QueryerContext, id string, lock bool) (*models.RequiredDocument, error) {
	query := `SELECT ` + requiredDocumentColumns + ` FROM required_documents rd WHERE rd.id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	var doc models.RequiredDocument
	if err := sqlx.GetContext(ctx, q, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

func lockMilestone(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Milestone, error) {
	const query = `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1 FOR UPDATE`
	var milestone models.Milestone
	if err := sqlx.GetContext(ctx, q, &milestone, query, id); err != nil {
		return nil, fmt.Errorf("lock milestone: %w", err)
	}
	return &milestone, nil
}

func listRequiredDocuments(ctx context.Context, q sqlx.QueryerContext, milestoneID string) ([]models.RequiredDocument, error) {
	const query = `SELECT ` + requiredDocumentColumns + ` FROM required_documents rd WHERE rd.milestone_id = $1 ORDER BY rd.position ASC`
	var docs []models.RequiredDocument
	if err := sqlx.SelectContext(ctx, q, &docs, query, milestoneID); err != nil {
		return nil, fmt.Errorf("list required documents: %w", err)
	}
	return docs, nil
}

func listVersions(ctx context.Context, q sqlx.QueryerContext, documentIDs []string) ([]models.DocumentVersion, error) {
	if len(documentIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT `+versionColumns+` FROM document_versions v WHERE v.document_id IN (?) ORDER BY v.document_id ASC, v.seq ASC`, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("build version query: %w", err)
	}
	var versions []models.DocumentVersion
	if err := sqlx.SelectContext(ctx, q, &versions, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	return versions, nil
}

func insertVersion(ctx context.Context, tx *sqlx.Tx, v *models.DocumentVersion) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	const insert = `INSERT INTO document_versions (id, document_id, version, file_name, file_size_bytes, file_url, uploaded_by, uploaded_at, status, reviewed_by, reviewed_at, rejection_reason)
VALUES (:id, :document_id, :version, :file_name, :file_size_bytes, :file_url, :uploaded_by, :uploaded_at, :status, :reviewed_by, :reviewed_at, :rejection_reason)`
	if _, err := tx.NamedExecContext(ctx, insert, v); err != nil {
		return fmt.Errorf("insert document version: %w", err)
	}
	const pointer = `UPDATE required_documents SET current_version_id = $1 WHERE id = $2`
	if _, err := tx.ExecContext(ctx, pointer, v.ID, v.DocumentID); err != nil {
		return fmt.Errorf("move current version: %w", err)
	}
	return nil
}

func reviewVersion(ctx context.Context, tx *sqlx.Tx, v models.DocumentVersion) error {
	const update = `UPDATE document_versions SET status = $1, reviewed_by = $2, reviewed_at = $3, rejection_reason = $4 WHERE id = $5 AND status = 'pending-review'`
	res, err := tx.ExecContext(ctx, update, v.Status, v.ReviewedBy, v.ReviewedAt, v.RejectionReason, v.ID)
	if err != nil {
		return fmt.Errorf("record review: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record review: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	return nil
}

func updateMilestoneSnapshot(ctx context.Context, tx *sqlx.Tx, m models.Milestone) error {
	const update = `UPDATE milestones SET status = $1, progress = $2, start_date = $3, completion_date = $4 WHERE id = $5`
	if _, err := tx.ExecContext(ctx, update, m.Status, m.Progress, m.StartDate, m.CompletionDate, m.ID); err != nil {
		return fmt.Errorf("update milestone snapshot: %w", err)
	}
	return nil
}

// attachVersions groups versions, in append order, onto their documents. A NULL
// stored pointer over a non-empty ledger becomes an empty pointer, which matches no
// version and so fails ledger validation.
func attachVersions(docs []models.RequiredDocument, versions []models.DocumentVersion) []models.RequiredDocument {
	byDoc := make(map[string][]models.DocumentVersion, len(docs))
	for _, v := range versions {
		byDoc[v.DocumentID] = append(byDoc[v.DocumentID], v)
	}
	for i := range docs {
		docs[i].Versions = byDoc[docs[i].ID]
		if docs[i].CurrentVersionID == nil && len(docs[i].Versions) > 0 {
			missing := ""
			docs[i].CurrentVersionID = &missing
		}
	}
	return docs
}

func assembleMilestones(milestones []models.Milestone, docs []models.RequiredDocument, optional []models.OptionalDocument) []models.Milestone {
	index := make(map[string]int, len(milestones))
	for i := range milestones {
		index[milestones[i].ID] = i
	}
	for _, d := range docs {
		if i, ok := index[d.MilestoneID]; ok {
			milestones[i].RequiredDocuments = append(milestones[i].RequiredDocuments, d)
		}
	}
	for _, o := range optional {
		if i, ok := index[o.MilestoneID]; ok {
			milestones[i].OptionalDocuments = append(milestones[i].OptionalDocuments, o)
		}
	}
	return milestones
}
