package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// Sentinel errors for Redmine client failures.
var (
	ErrUnreachable = errors.New("redmine unreachable")
	ErrTimeout     = errors.New("redmine request timeout")
	ErrRequest     = errors.New("redmine request error")
	ErrNotFound    = errors.New("redmine resource not found")
)

// RelationDuplicates marks an issue as a duplicate of another.
const RelationDuplicates = "duplicates"

// maxPageSize is the largest page Redmine serves.
const maxPageSize = 100

// Client is the interface for the Redmine calls the synchronization makes.
type Client interface {
	FindByFingerprint(ctx context.Context, fingerprint string) ([]models.Issue, error)
	ListIssues(ctx context.Context, filter IssueFilter) ([]models.Issue, error)
	CreateIssue(ctx context.Context, issue models.Issue) (*models.Issue, error)
	UpdateIssue(ctx context.Context, id int, update IssueUpdate) error
	AddRelation(ctx context.Context, relation models.IssueRelation) error
	Ping(ctx context.Context) error
}

// IssueFilter selects issues of the configured project.
type IssueFilter struct {
	TrackerID int
	// AllStatuses includes closed issues.
	AllStatuses bool
}

// IssueUpdate holds the fields to change. Zero values are left untouched.
type IssueUpdate struct {
	Description string `json:"description,omitempty"`
	StatusID    int    `json:"status_id,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL            string
	APIKey             string
	ProjectID          int
	FingerprintFieldID int
	Timeout            time.Duration
	PageSize           int
}

// HTTPClient implements Client using the Redmine REST API.
type HTTPClient struct {
	baseURL            string
	apiKey             string
	projectID          int
	fingerprintFieldID int
	pageSize           int
	client             *http.Client
}

// NewHTTPClient creates a new Redmine HTTP client.
func NewHTTPClient(opts Options) *HTTPClient {
	pageSize := opts.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return &HTTPClient{
		baseURL:            opts.BaseURL,
		apiKey:             opts.APIKey,
		projectID:          opts.ProjectID,
		fingerprintFieldID: opts.FingerprintFieldID,
		pageSize:           pageSize,
		client:             &http.Client{Timeout: opts.Timeout},
	}
}

// FindByFingerprint returns every issue of the project, open or closed, whose
// fingerprint custom field equals fingerprint.
func (c *HTTPClient) FindByFingerprint(ctx context.Context, fingerprint string) ([]models.Issue, error) {
	params := url.Values{}
	params.Set("project_id", strconv.Itoa(c.projectID))
	params.Set("status_id", "*")
	params.Set(fmt.Sprintf("cf_%d", c.fingerprintFieldID), fingerprint)
	return c.listAll(ctx, params)
}

func (c *HTTPClient) ListIssues(ctx context.Context, filter IssueFilter) ([]models.Issue, error) {
	params := url.Values{"project_id": {strconv.Itoa(c.projectID)}}
	if filter.TrackerID > 0 {
		params.Set("tracker_id", strconv.Itoa(filter.TrackerID))
	}
	if filter.AllStatuses {
		params.Set("status_id", "*")
	}
	return c.listAll(ctx, params)
}

func (c *HTTPClient) listAll(ctx context.Context, params url.Values) ([]models.Issue, error) {
	issues := []models.Issue{}
	params.Set("limit", strconv.Itoa(c.pageSize))

	for offset := 0; ; {
		params.Set("offset", strconv.Itoa(offset))

		var page issueList
		if err := c.do(ctx, http.MethodGet, "/issues.json?"+params.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, is := range page.Issues {
			issues = append(issues, is.toModel())
		}

		offset += len(page.Issues)
		if len(page.Issues) == 0 || offset >= page.TotalCount {
			return issues, nil
		}
	}
}

func (c *HTTPClient) CreateIssue(ctx context.Context, issue models.Issue) (*models.Issue, error) {
	payload := createIssueRequest{Issue: newIssue{
		ProjectID:    issue.ProjectID,
		TrackerID:    issue.TrackerID,
		StatusID:     issue.StatusID,
		Subject:      issue.Subject,
		Description:  issue.Description,
		CustomFields: issue.CustomFields,
	}}

	var created issueEnvelope
	if err := c.do(ctx, http.MethodPost, "/issues.json", payload, &created); err != nil {
		return nil, err
	}
	out := created.Issue.toModel()
	return &out, nil
}

func (c *HTTPClient) UpdateIssue(ctx context.Context, id int, update IssueUpdate) error {
	payload := struct {
		Issue IssueUpdate `json:"issue"`
	}{Issue: update}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/issues/%d.json", id), payload, nil)
}

// AddRelation relates relation.IssueID to relation.IssueToID.
func (c *HTTPClient) AddRelation(ctx context.Context, relation models.IssueRelation) error {
	payload := relationRequest{Relation: relationBody{
		IssueToID: relation.IssueToID,
		Type:      relation.Type,
	}}
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/issues/%d/relations.json", relation.IssueID), payload, nil)
}

// Ping checks the server is reachable and the configured project visible.
func (c *HTTPClient) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d.json", c.projectID), nil, nil)
	if err == nil || errors.Is(err, ErrTimeout) || errors.Is(err, ErrUnreachable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq, body != nil)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s: status %d%s", ErrRequest, method, path, resp.StatusCode, errorDetail(resp.Body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding redmine response: %w", err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request, hasBody bool) {
	if c.apiKey != "" {
		req.Header.Set("X-Redmine-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// errorDetail extracts Redmine's {"errors": [...]} body, if any.
func errorDetail(body io.Reader) string {
	var e struct {
		Errors []string `json:"errors"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&e); err != nil || len(e.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf(" %v", e.Errors)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// --- Redmine wire types ---

type idName struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

type issueJSON struct {
	ID           int                  `json:"id"`
	Project      idName               `json:"project"`
	Tracker      idName               `json:"tracker"`
	Status       idName               `json:"status"`
	Subject      string               `json:"subject"`
	Description  string               `json:"description"`
	CustomFields []models.CustomField `json:"custom_fields"`
	CreatedOn    time.Time            `json:"created_on"`
}

func (i issueJSON) toModel() models.Issue {
	return models.Issue{
		ID:           i.ID,
		ProjectID:    i.Project.ID,
		TrackerID:    i.Tracker.ID,
		StatusID:     i.Status.ID,
		Subject:      i.Subject,
		Description:  i.Description,
		CustomFields: i.CustomFields,
		CreatedOn:    i.CreatedOn,
	}
}

type issueList struct {
	Issues     []issueJSON `json:"issues"`
	TotalCount int         `json:"total_count"`
	Offset     int         `json:"offset"`
	Limit      int         `json:"limit"`
}

type issueEnvelope struct {
	Issue issueJSON `json:"issue"`
}

type newIssue struct {
	ProjectID    int                  `json:"project_id"`
	TrackerID    int                  `json:"tracker_id,omitempty"`
	StatusID     int                  `json:"status_id,omitempty"`
	Subject      string               `json:"subject"`
	Description  string               `json:"description"`
	CustomFields []models.CustomField `json:"custom_fields,omitempty"`
}

type createIssueRequest struct {
	Issue newIssue `json:"issue"`
}

type relationBody struct {
	IssueToID int    `json:"issue_to_id"`
	Type      string `json:"relation_type"`
}

type relationRequest struct {
	Relation relationBody `json:"relation"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
