package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/epc-dashboard-api/internal/models"
	"github.com/noah-isme/epc-dashboard-api/internal/repository"
	appErrors "github.com/noah-isme/epc-dashboard-api/pkg/errors"
	"github.com/noah-isme/epc-dashboard-api/pkg/jobs"
)

var fixedNow = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}

type stubCacheRepo struct {
	store   map[string][]byte
	deleted []string
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	payload, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.store == nil {
		s.store = make(map[string][]byte)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = payload
	return nil
}

func (s *stubCacheRepo) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.store, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.store {
		if strings.HasPrefix(key, prefix) {
			delete(s.store, key)
		}
	}
	return nil
}

type recordingInvalidator struct {
	projects []string
}

func (r *recordingInvalidator) InvalidateProject(_ context.Context, projectID string) {
	r.projects = append(r.projects, projectID)
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *fakeQueue) TryEnqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// fakeLedgerStore keeps one milestone in memory and applies ledger changes the way
// the database transaction does.
type fakeLedgerStore struct {
	milestone  models.Milestone
	activities []models.Activity
	mutateErr  error
}

func (f *fakeLedgerStore) FindByID(_ context.Context, id string) (*models.RequiredDocument, error) {
	for _, d := range f.milestone.RequiredDocuments {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLedgerStore) Mutate(_ context.Context, documentID string, mutate repository.LedgerMutation) (*repository.LedgerChange, error) {
	if f.mutateErr != nil {
		return nil, f.mutateErr
	}
	idx := -1
	for i, d := range f.milestone.RequiredDocuments {
		if d.ID == documentID {
			idx = i
		}
	}
	if idx < 0 {
		return nil, sql.ErrNoRows
	}

	change, err := mutate(f.milestone, f.milestone.RequiredDocuments[idx])
	if err != nil {
		return nil, err
	}

	docs := make([]models.RequiredDocument, len(f.milestone.RequiredDocuments))
	copy(docs, f.milestone.RequiredDocuments)
	doc := docs[idx]
	versions := append([]models.DocumentVersion(nil), doc.Versions...)
	if change.Insert {
		versions = append(versions, change.Version)
		id := change.Version.ID
		doc.CurrentVersionID = &id
	} else {
		if len(versions) == 0 || versions[len(versions)-1].Status != models.DocumentPendingReview {
			return nil, repository.ErrVersionConflict
		}
		versions[len(versions)-1] = change.Version
	}
	doc.Versions = versions
	docs[idx] = doc

	f.milestone = change.Milestone
	f.milestone.RequiredDocuments = docs
	for i := range change.Activities {
		change.Activities[i].ProjectID = f.milestone.ProjectID
	}
	f.activities = append(f.activities, change.Activities...)
	return change, nil
}

func (f *fakeLedgerStore) activityTypes() []models.ActivityType {
	out := make([]models.ActivityType, 0, len(f.activities))
	for _, a := range f.activities {
		out = append(out, a.Type)
	}
	return out
}

type fakeProjectRepo struct {
	projects   map[string]*models.Project
	created    []*models.Project
	progress   map[string]int
	stats      *models.PortfolioStats
	listFilter models.ProjectFilter
	loads      int
	err        error

	// afterLoad runs once, after LoadAggregate has taken its snapshot.
	afterLoad func()
}

func newFakeProjectRepo(projects ...*models.Project) *fakeProjectRepo {
	repo := &fakeProjectRepo{projects: map[string]*models.Project{}, progress: map[string]int{}}
	for _, p := range projects {
		repo.projects[p.ID] = p
	}
	return repo
}

func (f *fakeProjectRepo) CreateWithMilestones(_ context.Context, project *models.Project) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, project)
	f.projects[project.ID] = project
	return nil
}

func (f *fakeProjectRepo) FindByID(_ context.Context, id string) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	cp.Milestones = nil
	return &cp, nil
}

func (f *fakeProjectRepo) LoadAggregate(_ context.Context, id string) (*models.Project, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.projects[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	if hook := f.afterLoad; hook != nil {
		f.afterLoad = nil
		hook()
	}
	return &cp, nil
}

func (f *fakeProjectRepo) List(_ context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	f.listFilter = filter
	out := make([]models.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (f *fakeProjectRepo) UpdateProgress(_ context.Context, id string, progress int) error {
	p, ok := f.projects[id]
	if !ok {
		return sql.ErrNoRows
	}
	p.Progress = progress
	f.progress[id] = progress
	return nil
}

func (f *fakeProjectRepo) PortfolioStats(_ context.Context) (*models.PortfolioStats, error) {
	if f.stats == nil {
		return nil, errors.New("stats unavailable")
	}
	cp := *f.stats
	return &cp, nil
}

type fakeActivityRepo struct {
	created []models.Activity
	items   []models.Activity
}

func (f *fakeActivityRepo) Create(_ context.Context, activity *models.Activity) error {
	f.created = append(f.created, *activity)
	return nil
}

func (f *fakeActivityRepo) ListByProject(_ context.Context, projectID string, page, size int) ([]models.Activity, int, error) {
	var out []models.Activity
	for _, a := range f.items {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}
