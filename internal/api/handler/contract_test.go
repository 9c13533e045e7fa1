package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/acrasync/internal/api"
	"github.com/kiranshivaraju/acrasync/internal/api/handler"
	mw "github.com/kiranshivaraju/acrasync/internal/api/middleware"
	"github.com/kiranshivaraju/acrasync/internal/api/response"
	"github.com/kiranshivaraju/acrasync/internal/cache"
	"github.com/kiranshivaraju/acrasync/internal/store"
	"github.com/kiranshivaraju/acrasync/internal/syncer"
	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/fingerprint"
	"github.com/kiranshivaraju/acrasync/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// ─── test fixtures ───────────────────────────────────────────────────────────

var (
	testRawKey     = "as_contract_key_1234567890"
	testKeyID      = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	readOnlyRawKey = "as_readonly_key_1234567890"
	testRunID      = uuid.MustParse("cccccccc-cccc-cccc-cccc-cccccccccccc")
	testStack      = "java.lang.NullPointerException\n\tat com.example.Main.onCreate(Main.java:42)"
)

func hash(raw string) string {
	h, _ := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	return string(h)
}

// ─── mock store ──────────────────────────────────────────────────────────────

type mockStore struct {
	mu      sync.Mutex
	keys    []*models.APIKey
	runs    map[uuid.UUID]*models.SyncRun
	results map[uuid.UUID][]*models.ReportResult
	filter  store.RunFilter
}

func newMockStore() *mockStore {
	return &mockStore{
		keys: []*models.APIKey{
			{ID: testKeyID, Name: "contract", KeyHash: hash(testRawKey), KeyPrefix: testRawKey[:mw.KeyPrefixLen],
				Scopes: []string{"read", "sync", "admin"}},
			{ID: uuid.New(), Name: "reader", KeyHash: hash(readOnlyRawKey), KeyPrefix: readOnlyRawKey[:mw.KeyPrefixLen],
				Scopes: []string{"read"}},
		},
		runs:    map[uuid.UUID]*models.SyncRun{},
		results: map[uuid.UUID][]*models.ReportResult{},
	}
}

func (s *mockStore) Ping(_ context.Context) error { return nil }

func (s *mockStore) GetAPIKeyByPrefix(_ context.Context, prefix string) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.KeyPrefix == prefix {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *mockStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

func (s *mockStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return nil
}

func (s *mockStore) ListAPIKeys(_ context.Context) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.APIKey(nil), s.keys...), nil
}

func (s *mockStore) RevokeAPIKey(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, k := range s.keys {
		if k.ID == id {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *mockStore) CreateSyncRun(_ context.Context, run *models.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *mockStore) GetSyncRun(_ context.Context, id uuid.UUID) (*models.SyncRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return run, nil
}

func (s *mockStore) ListSyncRuns(_ context.Context, f store.RunFilter) ([]*models.SyncRun, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	var out []*models.SyncRun
	for _, r := range s.runs {
		if f.Status == "" || r.Status == f.Status {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (s *mockStore) UpdateSyncRunStatus(_ context.Context, _ uuid.UUID, _ string, _ ...store.RunUpdateOption) error {
	return nil
}

func (s *mockStore) CreateReportResult(_ context.Context, r *models.ReportResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.RunID] = append(s.results[r.RunID], r)
	return nil
}

func (s *mockStore) ListReportResults(_ context.Context, runID uuid.UUID) ([]*models.ReportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results[runID], nil
}

// ─── mock cache ──────────────────────────────────────────────────────────────

type mockCache struct {
	mu       sync.Mutex
	statuses map[uuid.UUID]string
	counters map[string]int64
}

func newMockCache() *mockCache {
	return &mockCache{statuses: map[uuid.UUID]string{}, counters: map[string]int64{}}
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

func (c *mockCache) AcquireLock(_ context.Context, _, _ string, _ time.Duration) error { return nil }
func (c *mockCache) ReleaseLock(_ context.Context, _, _ string) error { return nil }

func (c *mockCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

var (
	_ store.Store = (*mockStore)(nil)
	_ cache.Cache = (*mockCache)(nil)
)

// ─── fake trigger ────────────────────────────────────────────────────────────

type fakeTrigger struct {
	mu       sync.Mutex
	busy     bool
	triggers []string
}

func (f *fakeTrigger) Trigger(_ context.Context, trigger string) (*models.SyncRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return nil, syncer.ErrRunInProgress
	}
	f.triggers = append(f.triggers, trigger)
	return &models.SyncRun{ID: uuid.New(), Trigger: trigger, Status: models.RunStatusPending}, nil
}

// ─── test harness ────────────────────────────────────────────────────────────

type testServer struct {
	server  *httptest.Server
	store   *mockStore
	cache   *mockCache
	trigger *fakeTrigger
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ms := newMockStore()
	mc := newMockCache()
	ft := &fakeTrigger{}

	issue := 17
	errMsg := "creating issue: redmine: server error"
	ms.runs[testRunID] = &models.SyncRun{
		ID: testRunID, Trigger: "schedule", Status: models.RunStatusCompleted,
		Total: 2, Created: 1, Failed: 1, CreatedAt: time.Now().Add(-time.Hour),
	}
	ms.results[testRunID] = []*models.ReportResult{
		{ID: uuid.New(), RunID: testRunID, ReportID: "r-1", Fingerprint: "fp-1", IssueID: &issue, Outcome: models.OutcomeCreated},
		{ID: uuid.New(), RunID: testRunID, ReportID: "r-2", Fingerprint: "fp-2", Outcome: models.OutcomeFailed, ErrorMessage: &errMsg},
	}

	deps := api.Dependencies{
		Auth:      mw.NewAuth(ms),
		RateLimit: mw.NewRateLimit(mc, 20),

		HealthHandler: func(w http.ResponseWriter, _ *http.Request) {
			response.JSON(w, map[string]string{"status": "ok"})
		},
		TriggerSync:        handler.NewTriggerSyncHandler(ft),
		ListRuns:           handler.NewListRunsHandler(ms),
		GetRun:             handler.NewGetRunHandler(ms),
		GetRunStatus:       handler.NewGetRunStatusHandler(mc, ms),
		PreviewDescription: handler.NewPreviewHandler(description.Default, fingerprint.Default),
		CreateKey:          handler.NewCreateKeyHandler(ms),
		ListKeys:           handler.NewListKeysHandler(ms),
		RevokeKey:          handler.NewRevokeKeyHandler(ms),
	}

	srv := httptest.NewServer(api.NewRouter(deps))
	t.Cleanup(srv.Close)

	return &testServer{server: srv, store: ms, cache: mc, trigger: ft}
}

func (ts *testServer) request(rawKey, method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, ts.server.URL+path, &buf)
	req.Header.Set("Authorization", "Bearer "+rawKey)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (ts *testServer) authRequest(method, path string, body any) *http.Request {
	return ts.request(testRawKey, method, path, body)
}

func (ts *testServer) unauthRequest(method, path string) *http.Request {
	req, _ := http.NewRequest(method, ts.server.URL+path, nil)
	return req
}

func do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp, body
}

func errorCode(body map[string]any) string {
	return body["error"].(map[string]any)["code"].(string)
}

// ─── GET /api/v1/health ──────────────────────────────────────────────────────

func TestHealth_Unauthenticated(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.unauthRequest("GET", "/api/v1/health"))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["data"].(map[string]any)["status"])
}

// ─── POST /api/v1/sync ───────────────────────────────────────────────────────

func TestTriggerSync_202(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("POST", "/api/v1/sync", nil))

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	data := body["data"].(map[string]any)
	_, err := uuid.Parse(data["run_id"].(string))
	assert.NoError(t, err)
	assert.Equal(t, models.RunStatusPending, data["status"])
	ts.trigger.mu.Lock()
	defer ts.trigger.mu.Unlock()
	assert.Equal(t, []string{"api"}, ts.trigger.triggers)
}

func TestTriggerSync_409_InProgress(t *testing.T) {
	ts := newTestServer(t)
	ts.trigger.mu.Lock()
	ts.trigger.busy = true
	ts.trigger.mu.Unlock()

	resp, body := do(t, ts.authRequest("POST", "/api/v1/sync", nil))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "SYNC_IN_PROGRESS", errorCode(body))
}

func TestTriggerSync_401_MissingToken(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.unauthRequest("POST", "/api/v1/sync"))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_TOKEN", errorCode(body))
}

func TestTriggerSync_403_ReadOnlyKey(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.request(readOnlyRawKey, "POST", "/api/v1/sync", nil))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))
	ts.trigger.mu.Lock()
	defer ts.trigger.mu.Unlock()
	assert.Empty(t, ts.trigger.triggers)
}

// ─── GET /api/v1/sync/runs ───────────────────────────────────────────────────

func TestListRuns_200_WithPagination(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.request(readOnlyRawKey, "GET", "/api/v1/sync/runs?status=completed&page=1&limit=10", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, testRunID.String(), data[0].(map[string]any)["id"])

	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["page"])
	assert.Equal(t, float64(10), meta["limit"])
	assert.Equal(t, float64(1), meta["total"])
	assert.Equal(t, false, meta["has_next"])
	ts.store.mu.Lock()
	defer ts.store.mu.Unlock()
	assert.Equal(t, store.RunFilter{Status: "completed", Page: 1, Limit: 10}, ts.store.filter)
}

func TestListRuns_Defaults(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	meta := body["meta"].(map[string]any)
	assert.Equal(t, float64(1), meta["page"])
	assert.Equal(t, float64(20), meta["limit"])
}

func TestListRuns_400_InvalidQuery(t *testing.T) {
	ts := newTestServer(t)

	for _, q := range []string{"status=done", "page=0", "page=x", "limit=101", "limit=0"} {
		t.Run(q, func(t *testing.T) {
			resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs?"+q, nil))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "INVALID_REQUEST", errorCode(body))
		})
	}
}

// ─── GET /api/v1/sync/runs/{runID} ───────────────────────────────────────────

func TestGetRun_200_WithReports(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs/"+testRunID.String(), nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, testRunID.String(), data["id"])
	assert.Equal(t, models.RunStatusCompleted, data["status"])
	assert.Equal(t, float64(1), data["created"])

	reports := data["reports"].([]any)
	require.Len(t, reports, 2)
	first := reports[0].(map[string]any)
	assert.Equal(t, "r-1", first["report_id"])
	assert.Equal(t, float64(17), first["issue_id"])
	second := reports[1].(map[string]any)
	assert.Equal(t, models.OutcomeFailed, second["outcome"])
	assert.Contains(t, second["error_message"], "server error")
}

func TestGetRun_400_InvalidID(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_RUN_ID", errorCode(body))
}

func TestGetRun_404(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs/"+uuid.NewString(), nil))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "RUN_NOT_FOUND", errorCode(body))
}

// ─── GET /api/v1/sync/runs/{runID}/status ────────────────────────────────────

func TestGetRunStatus_FromCache(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.cache.SetRunStatus(context.Background(), testRunID, models.RunStatusRunning, time.Minute))

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs/"+testRunID.String()+"/status", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RunStatusRunning, body["data"].(map[string]any)["status"])
}

func TestGetRunStatus_FallsBackToStore(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs/"+testRunID.String()+"/status", nil))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.RunStatusCompleted, body["data"].(map[string]any)["status"])
}

func TestGetRunStatus_404(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs/"+uuid.NewString()+"/status", nil))

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "RUN_NOT_FOUND", errorCode(body))
}

// ─── POST /api/v1/descriptions/preview ───────────────────────────────────────

func TestPreview_200_CurrentVersion(t *testing.T) {
	ts := newTestServer(t)

	crash := time.Date(2011, 5, 11, 18, 42, 40, 0, time.UTC)
	raw, err := description.Default.Encode(testStack, models.NewOccurrenceSet(models.Occurrence{
		ReportID: "r-1", CrashDate: crash, RunFor: 90 * time.Minute,
		AndroidVersion: "2.2", AppVersionCode: "12", AppVersionName: "1.2.0", Device: "Nexus One / google / passion",
	}))
	require.NoError(t, err)

	resp, body := do(t, ts.request(readOnlyRawKey, "POST", "/api/v1/descriptions/preview", map[string]string{
		"description": raw,
	}))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["version"])
	assert.Equal(t, float64(description.CurrentVersion), data["current_version"])
	assert.Equal(t, testStack, data["stacktrace"])
	assert.Equal(t, fingerprint.Default.Stacktrace(testStack), data["fingerprint"])

	occ := data["occurrences"].([]any)
	require.Len(t, occ, 1)
	row := occ[0].(map[string]any)
	assert.Equal(t, "r-1", row["report_id"])
	assert.Equal(t, "1h 30m 0s", row["run_for"])
	assert.Equal(t, "Nexus One / google / passion", row["device"])
}

func TestPreview_KeepsGivenFingerprint(t *testing.T) {
	ts := newTestServer(t)

	raw, err := description.Default.Encode(testStack, models.NewOccurrenceSet(models.Occurrence{
		ReportID: "r-1", CrashDate: time.Date(2011, 5, 11, 18, 42, 40, 0, time.UTC),
	}))
	require.NoError(t, err)

	resp, body := do(t, ts.authRequest("POST", "/api/v1/descriptions/preview", map[string]string{
		"description": raw,
		"fingerprint": "abc123",
	}))

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc123", body["data"].(map[string]any)["fingerprint"])
}

func TestPreview_422_ReportsLine(t *testing.T) {
	ts := newTestServer(t)

	raw := description.TableHeader + "\n" +
		"|r-1|11/05/2011 18:42:40|0s|2.2|12|1.2.0|dev|\n" +
		"|r-2|31/02/2011 18:42:40|0s|2.2|12|1.2.0|dev|\n" +
		"<pre class=\"javastacktrace\">boom</pre>\n" + description.VersionTag(2)

	resp, body := do(t, ts.authRequest("POST", "/api/v1/descriptions/preview", map[string]string{
		"description": raw,
	}))

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "INVALID_DESCRIPTION", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, float64(3), details["line"])
	assert.Equal(t, float64(2), details["version"])
}

func TestPreview_400_EmptyDescription(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("POST", "/api/v1/descriptions/preview", map[string]string{}))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", errorCode(body))
}

// ─── /api/v1/admin/keys ──────────────────────────────────────────────────────

func TestCreateKey_201_ReturnsRawKeyOnce(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("POST", "/api/v1/admin/keys", map[string]any{
		"name":   "ci",
		"scopes": []string{"sync"},
	}))

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	raw := data["key"].(string)
	assert.True(t, strings.HasPrefix(raw, "as_"))
	assert.Equal(t, raw[:mw.KeyPrefixLen], data["key_prefix"])

	// The new key authenticates.
	resp, _ = do(t, ts.request(raw, "POST", "/api/v1/sync", nil))
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	// Listing never exposes secrets.
	_, listed := do(t, ts.authRequest("GET", "/api/v1/admin/keys", nil))
	keys := listed["data"].([]any)
	assert.Len(t, keys, 3)
	for _, k := range keys {
		assert.NotContains(t, k.(map[string]any), "key")
		assert.NotContains(t, k.(map[string]any), "key_hash")
	}
}

func TestCreateKey_400(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"missing name", map[string]any{"scopes": []string{"read"}}, "INVALID_REQUEST"},
		{"no scopes", map[string]any{"name": "x"}, "INVALID_SCOPE"},
		{"unknown scope", map[string]any{"name": "x", "scopes": []string{"write"}}, "INVALID_SCOPE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ts.authRequest("POST", "/api/v1/admin/keys", tt.body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.code, errorCode(body))
		})
	}
}

func TestAdminKeys_403_WithoutAdminScope(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.request(readOnlyRawKey, "GET", "/api/v1/admin/keys", nil))

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))
}

func TestRevokeKey(t *testing.T) {
	ts := newTestServer(t)
	keys, err := ts.store.ListAPIKeys(context.Background())
	require.NoError(t, err)
	reader := keys[1]

	resp, _ := do(t, ts.authRequest("DELETE", "/api/v1/admin/keys/"+reader.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = do(t, ts.request(readOnlyRawKey, "GET", "/api/v1/sync/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := do(t, ts.authRequest("DELETE", "/api/v1/admin/keys/"+reader.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "KEY_NOT_FOUND", errorCode(body))
}

func TestRevokeKey_RejectsSelf(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("DELETE", "/api/v1/admin/keys/"+testKeyID.String(), nil))

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CANNOT_REVOKE_SELF", errorCode(body))
}

func TestRevokeKey_400_InvalidID(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, ts.authRequest("DELETE", "/api/v1/admin/keys/nope", nil))

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_KEY_ID", errorCode(body))
}

// ─── rate limiting ───────────────────────────────────────────────────────────

func TestRateLimit_429AfterLimit(t *testing.T) {
	ts := newTestServer(t)

	for i := 0; i < 20; i++ {
		resp, _ := do(t, ts.authRequest("GET", "/api/v1/sync/runs", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := do(t, ts.authRequest("GET", "/api/v1/sync/runs", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(body))
}
