// Package sheets reads ACRA crash reports from a Google Sheets worksheet and writes the
// computed fingerprints back, using the Sheets API v4 values endpoints.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// Sentinel errors for spreadsheet failures.
var (
	ErrUnreachable   = errors.New("spreadsheet unreachable")
	ErrRequest       = errors.New("spreadsheet request error")
	ErrNotFound      = errors.New("report not found in spreadsheet")
	ErrMissingColumn = errors.New("spreadsheet column missing")
)

// Client is the report source.
type Client interface {
	// FetchUnsynced returns the reports whose fingerprint cell is still empty.
	FetchUnsynced(ctx context.Context) ([]models.RawReport, error)
	FindByReportID(ctx context.Context, reportID string) (*models.RawReport, error)
	WriteFingerprint(ctx context.Context, row int, fingerprint string) error
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL       string
	SpreadsheetID string
	Sheet         string
	Token         string
	Timeout       time.Duration
}

// HTTPClient implements Client over the Sheets REST API.
type HTTPClient struct {
	baseURL       string
	spreadsheetID string
	sheet         string
	token         string
	client        *http.Client

	mu                sync.Mutex
	fingerprintColumn int
}

// NewHTTPClient creates a new spreadsheet client.
func NewHTTPClient(opts Options) *HTTPClient {
	return &HTTPClient{
		baseURL:           strings.TrimRight(opts.BaseURL, "/"),
		spreadsheetID:     opts.SpreadsheetID,
		sheet:             opts.Sheet,
		token:             opts.Token,
		client:            &http.Client{Timeout: opts.Timeout},
		fingerprintColumn: -1,
	}
}

var (
	reportIDTag    = models.FieldReportID.Tag()
	fingerprintTag = models.FieldStackTraceMD5.Tag()
)

func (c *HTTPClient) FetchUnsynced(ctx context.Context) ([]models.RawReport, error) {
	reports, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}

	unsynced := make([]models.RawReport, 0, len(reports))
	for _, r := range reports {
		if strings.TrimSpace(r.Cells[fingerprintTag]) == "" {
			unsynced = append(unsynced, r)
		}
	}
	return unsynced, nil
}

func (c *HTTPClient) FindByReportID(ctx context.Context, reportID string) (*models.RawReport, error) {
	reports, err := c.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range reports {
		if reports[i].Cells[reportIDTag] == reportID {
			return &reports[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, reportID)
}

// WriteFingerprint stores fingerprint in the fingerprint column of row (1-based,
// row 1 holds the headers).
func (c *HTTPClient) WriteFingerprint(ctx context.Context, row int, fingerprint string) error {
	if row < 2 {
		return fmt.Errorf("%w: invalid data row %d", ErrRequest, row)
	}

	col, err := c.fingerprintCol(ctx)
	if err != nil {
		return err
	}

	rng := fmt.Sprintf("%s!%s%d", c.sheet, ColumnName(col), row)
	body, err := json.Marshal(valueRange{
		Range:          rng,
		MajorDimension: "ROWS",
		Values:         [][]string{{fingerprint}},
	})
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	return c.do(ctx, http.MethodPut, c.valuesURL(rng)+"?valueInputOption=RAW", body, nil)
}

// readAll fetches the worksheet and maps each data row by header tag. Blank rows are skipped.
func (c *HTTPClient) readAll(ctx context.Context) ([]models.RawReport, error) {
	var vr valueRange
	if err := c.do(ctx, http.MethodGet, c.valuesURL(c.sheet), nil, &vr); err != nil {
		return nil, err
	}
	if len(vr.Values) == 0 {
		return nil, fmt.Errorf("%w: %s (empty worksheet)", ErrMissingColumn, reportIDTag)
	}

	header := make([]string, len(vr.Values[0]))
	for i, h := range vr.Values[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	fpCol := indexOf(header, fingerprintTag)
	if indexOf(header, reportIDTag) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, reportIDTag)
	}
	if fpCol < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, fingerprintTag)
	}
	c.mu.Lock()
	c.fingerprintColumn = fpCol
	c.mu.Unlock()

	reports := make([]models.RawReport, 0, len(vr.Values)-1)
	for i, values := range vr.Values[1:] {
		if isBlank(values) {
			continue
		}
		cells := make(map[string]string, len(header))
		for col, tag := range header {
			if tag == "" {
				continue
			}
			if col < len(values) {
				cells[tag] = values[col]
			} else {
				cells[tag] = ""
			}
		}
		reports = append(reports, models.RawReport{Row: i + 2, Cells: cells})
	}
	return reports, nil
}

func (c *HTTPClient) fingerprintCol(ctx context.Context) (int, error) {
	c.mu.Lock()
	col := c.fingerprintColumn
	c.mu.Unlock()
	if col >= 0 {
		return col, nil
	}

	var vr valueRange
	if err := c.do(ctx, http.MethodGet, c.valuesURL(c.sheet+"!1:1"), nil, &vr); err != nil {
		return 0, err
	}
	if len(vr.Values) > 0 {
		for i, h := range vr.Values[0] {
			if strings.EqualFold(strings.TrimSpace(h), fingerprintTag) {
				c.mu.Lock()
				c.fingerprintColumn = i
				c.mu.Unlock()
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrMissingColumn, fingerprintTag)
}

func (c *HTTPClient) valuesURL(rng string) string {
	return fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(rng))
}

func (c *HTTPClient) do(ctx context.Context, method, u string, body []byte, out any) error {
	var httpReq *http.Request
	var err error
	if body != nil {
		httpReq, err = http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	} else {
		httpReq, err = http.NewRequestWithContext(ctx, method, u, nil)
	}
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: status %d", ErrRequest, method, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding spreadsheet response: %w", err)
	}
	return nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: timeout: %v", ErrUnreachable, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// ColumnName returns the A1-notation letters of the 0-based column index.
func ColumnName(index int) string {
	name := ""
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		name = string(rune('A'+(n-1)%26)) + name
	}
	return name
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}

func isBlank(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// --- Sheets wire types ---

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
