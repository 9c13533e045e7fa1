package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/acrasync/internal/cache"
	"github.com/kiranshivaraju/acrasync/internal/redmine"
	"github.com/kiranshivaraju/acrasync/internal/store"
	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

const fingerprintField = 7

// --- spreadsheet ---

type fakeSheets struct {
	mu       sync.Mutex
	reports  []models.RawReport
	written  map[int]string
	fetchErr error
	writeErr error
}

func newFakeSheets(reports ...models.RawReport) *fakeSheets {
	return &fakeSheets{reports: reports, written: map[int]string{}}
}

func (f *fakeSheets) FetchUnsynced(_ context.Context) ([]models.RawReport, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.reports, nil
}

func (f *fakeSheets) FindByReportID(_ context.Context, id string) (*models.RawReport, error) {
	for i := range f.reports {
		if v, _ := f.reports[i].Get(models.FieldReportID); v == id {
			return &f.reports[i], nil
		}
	}
	return nil, fmt.Errorf("report %s: not found", id)
}

func (f *fakeSheets) WriteFingerprint(_ context.Context, row int, fp string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written[row] = fp
	return nil
}

// --- bugtracker ---

type fakeTracker struct {
	mu        sync.Mutex
	issues    []models.Issue
	nextID    int
	updates   map[int][]redmine.IssueUpdate
	relations []models.IssueRelation
	findErr   error
	createErr error
	updateErr error
}

func newFakeTracker(issues ...models.Issue) *fakeTracker {
	return &fakeTracker{issues: issues, nextID: 100, updates: map[int][]redmine.IssueUpdate{}}
}

func (f *fakeTracker) FindByFingerprint(_ context.Context, fp string) ([]models.Issue, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.Issue{}
	for _, is := range f.issues {
		if v, ok := is.CustomFieldValue(fingerprintField); ok && v == fp {
			out = append(out, is)
		}
	}
	return out, nil
}

func (f *fakeTracker) ListIssues(_ context.Context, _ redmine.IssueFilter) ([]models.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Issue(nil), f.issues...), nil
}

func (f *fakeTracker) CreateIssue(_ context.Context, issue models.Issue) (*models.Issue, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	issue.ID = f.nextID
	issue.CreatedOn = time.Now().UTC()
	f.issues = append(f.issues, issue)
	return &issue, nil
}

func (f *fakeTracker) UpdateIssue(_ context.Context, id int, update redmine.IssueUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates[id] = append(f.updates[id], update)
	for i := range f.issues {
		if f.issues[i].ID != id {
			continue
		}
		if update.Description != "" {
			f.issues[i].Description = update.Description
		}
		if update.StatusID != 0 {
			f.issues[i].StatusID = update.StatusID
		}
		return nil
	}
	return redmine.ErrNotFound
}

func (f *fakeTracker) AddRelation(_ context.Context, rel models.IssueRelation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.relations = append(f.relations, rel)
	return nil
}

func (f *fakeTracker) Ping(_ context.Context) error { return nil }

func (f *fakeTracker) issue(id int) models.Issue {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, is := range f.issues {
		if is.ID == id {
			return is
		}
	}
	return models.Issue{}
}

// --- handler ---

type recordingHandler struct {
	calls     []string
	finishErr error
	hookErr   error
}

func (h *recordingHandler) OnNewReport(_ context.Context, r *models.Report) error {
	h.calls = append(h.calls, "new:"+r.ID())
	return h.hookErr
}

func (h *recordingHandler) OnKnownIssueAlreadySynchronized(_ context.Context, r *models.Report, _ *models.Issue) error {
	h.calls = append(h.calls, "synced:"+r.ID())
	return h.hookErr
}

func (h *recordingHandler) OnKnownIssueNotSynchronized(_ context.Context, r *models.Report, _ *models.Issue, _ *description.Description) error {
	h.calls = append(h.calls, "known:"+r.ID())
	return h.hookErr
}

func (h *recordingHandler) OnFinish(_ context.Context) error {
	h.calls = append(h.calls, "finish")
	return h.finishErr
}

// --- store ---

type statusUpdate struct {
	ID     uuid.UUID
	Status string
}

type mockStore struct {
	mu            sync.Mutex
	runs          map[uuid.UUID]*models.SyncRun
	results       []*models.ReportResult
	statusUpdates []statusUpdate
	createRunErr  error
	statusErr     map[string]error
}

func newMockStore() *mockStore {
	return &mockStore{runs: make(map[uuid.UUID]*models.SyncRun)}
}

func (s *mockStore) Ping(_ context.Context) error { return nil }
func (s *mockStore) GetAPIKeyByPrefix(_ context.Context, _ string) ([]*models.APIKey, error) {
	return nil, nil
}
func (s *mockStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }
func (s *mockStore) CreateAPIKey(_ context.Context, _ *models.APIKey) error { return nil }
func (s *mockStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error) { return nil, nil }
func (s *mockStore) RevokeAPIKey(_ context.Context, _ uuid.UUID) error { return nil }
func (s *mockStore) ListSyncRuns(_ context.Context, _ store.RunFilter) ([]*models.SyncRun, int, error) {
	return nil, 0, nil
}

func (s *mockStore) CreateSyncRun(_ context.Context, run *models.SyncRun) error {
	if s.createRunErr != nil {
		return s.createRunErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *run
	s.runs[run.ID] = &cp
	return nil
}

func (s *mockStore) GetSyncRun(_ context.Context, id uuid.UUID) (*models.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *run
	return &cp, nil
}

func (s *mockStore) UpdateSyncRunStatus(_ context.Context, id uuid.UUID, status string, _ ...store.RunUpdateOption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.statusErr[status]; err != nil {
		return err
	}
	run, ok := s.runs[id]
	if !ok {
		return store.ErrNotFound
	}
	run.Status = status
	s.statusUpdates = append(s.statusUpdates, statusUpdate{ID: id, Status: status})
	return nil
}

func (s *mockStore) CreateReportResult(_ context.Context, r *models.ReportResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return nil
}

func (s *mockStore) ListReportResults(_ context.Context, runID uuid.UUID) ([]*models.ReportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.ReportResult{}
	for _, r := range s.results {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *mockStore) status(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if run, ok := s.runs[id]; ok {
		return run.Status
	}
	return ""
}

// --- cache ---

type mockCache struct {
	mu       sync.Mutex
	locks    map[string]string
	statuses map[uuid.UUID]string
}

func newMockCache() *mockCache {
	return &mockCache{locks: map[string]string{}, statuses: map[uuid.UUID]string{}}
}

func (c *mockCache) Ping(_ context.Context) error { return nil }

func (c *mockCache) SetRunStatus(_ context.Context, id uuid.UUID, status string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[id] = status
	return nil
}

func (c *mockCache) GetRunStatus(_ context.Context, id uuid.UUID) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.statuses[id]
	return s, ok, nil
}

func (c *mockCache) AcquireLock(_ context.Context, key, owner string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, held := c.locks[key]; held {
		return cache.ErrLockHeld
	}
	c.locks[key] = owner
	return nil
}

func (c *mockCache) ReleaseLock(_ context.Context, key, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] == owner {
		delete(c.locks, key)
	}
	return nil
}

func (c *mockCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}

func (c *mockCache) held(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.locks[key]
	return ok
}
