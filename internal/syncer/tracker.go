package syncer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/acrasync/internal/redmine"
	"github.com/kiranshivaraju/acrasync/internal/report"
	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// TrackerOptions configures the issues a TrackerHandler creates.
type TrackerOptions struct {
	ProjectID          int
	TrackerID          int
	FingerprintFieldID int
	Codec              description.Codec
}

// TrackerHandler writes reports to Redmine: one issue per fingerprint, one
// description row per report.
type TrackerHandler struct {
	client redmine.Client
	opts   TrackerOptions
}

// NewTrackerHandler creates a new TrackerHandler.
func NewTrackerHandler(client redmine.Client, opts TrackerOptions) *TrackerHandler {
	return &TrackerHandler{client: client, opts: opts}
}

func (h *TrackerHandler) OnNewReport(ctx context.Context, r *models.Report) error {
	text, err := h.opts.Codec.Encode(r.Stacktrace(), models.NewOccurrenceSet(report.ToOccurrence(r)))
	if err != nil {
		return fmt.Errorf("encoding description: %w", err)
	}

	issue, err := h.client.CreateIssue(ctx, models.Issue{
		ProjectID:   h.opts.ProjectID,
		TrackerID:   h.opts.TrackerID,
		Subject:     report.Subject(r.Stacktrace()),
		Description: text,
		CustomFields: []models.CustomField{
			{ID: h.opts.FingerprintFieldID, Value: r.Fingerprint},
		},
	})
	if err != nil {
		return fmt.Errorf("creating issue: %w", err)
	}

	r.IssueID = issue.ID
	slog.Info("issue created", "report_id", r.ID(), "issue_id", issue.ID, "fingerprint", r.Fingerprint)
	return nil
}

func (h *TrackerHandler) OnKnownIssueAlreadySynchronized(_ context.Context, r *models.Report, issue *models.Issue) error {
	slog.Debug("report already synchronized", "report_id", r.ID(), "issue_id", issue.ID)
	return nil
}

func (h *TrackerHandler) OnKnownIssueNotSynchronized(ctx context.Context, r *models.Report, issue *models.Issue, desc *description.Description) error {
	desc.Add(report.ToOccurrence(r))
	if desc.Stacktrace == "" {
		desc.Stacktrace = r.Stacktrace()
	}

	text, err := h.opts.Codec.EncodeDescription(desc)
	if err != nil {
		return fmt.Errorf("encoding description of issue #%d: %w", issue.ID, err)
	}
	if err := h.client.UpdateIssue(ctx, issue.ID, redmine.IssueUpdate{Description: text}); err != nil {
		return fmt.Errorf("updating issue #%d: %w", issue.ID, err)
	}

	slog.Info("occurrence added", "report_id", r.ID(), "issue_id", issue.ID,
		"occurrences", desc.Occurrences.Len())
	return nil
}

func (h *TrackerHandler) OnFinish(_ context.Context) error {
	return nil
}

var _ Handler = (*TrackerHandler)(nil)
