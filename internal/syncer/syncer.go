package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/kiranshivaraju/acrasync/internal/redmine"
	"github.com/kiranshivaraju/acrasync/internal/report"
	"github.com/kiranshivaraju/acrasync/internal/sheets"
	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// Options configures a Syncer.
type Options struct {
	// ClosedStatusID is given to duplicate issues. Zero leaves their status alone.
	ClosedStatusID int
	Codec          description.Codec
}

// ReportOutcome is what happened to one spreadsheet row.
type ReportOutcome struct {
	Row         int
	ReportID    string
	Fingerprint string
	IssueID     int
	Outcome     string
	Err         error
}

// RunResult summarizes a synchronization pass.
type RunResult struct {
	Reports []ReportOutcome
	Total   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

func (r *RunResult) add(o ReportOutcome) {
	r.Reports = append(r.Reports, o)
	r.Total++
	switch o.Outcome {
	case models.OutcomeCreated:
		r.Created++
	case models.OutcomeUpdated:
		r.Updated++
	case models.OutcomeAlreadySynced:
		r.Skipped++
	default:
		r.Failed++
	}
}

// Syncer reads unsynchronized reports and dispatches them to its handlers.
type Syncer struct {
	source   sheets.Client
	tracker  redmine.Client
	parser   *report.Parser
	handlers []Handler
	opts     Options
}

// New creates a Syncer. Handlers are called in order for every report.
func New(source sheets.Client, tracker redmine.Client, parser *report.Parser, opts Options, handlers ...Handler) *Syncer {
	return &Syncer{
		source:   source,
		tracker:  tracker,
		parser:   parser,
		handlers: handlers,
		opts:     opts,
	}
}

// item carries a report through the pass. report is nil for unparsable rows.
type item struct {
	report  *models.Report
	outcome ReportOutcome
}

func (it *item) fail(err error) {
	if it.report != nil {
		it.report.MergeStatus(models.SyncStatusFailure)
	}
	it.outcome.Outcome = models.OutcomeFailed
	it.outcome.Err = errors.Join(it.outcome.Err, err)
}

func (it *item) failed() bool {
	return it.outcome.Outcome == models.OutcomeFailed
}

// Run performs one pass. Only a failure to read the report source is returned
// as an error; per-report failures are part of the result.
func (s *Syncer) Run(ctx context.Context) (*RunResult, error) {
	raws, err := s.source.FetchUnsynced(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching reports: %w", err)
	}
	slog.Info("synchronization started", "reports", len(raws))

	items := make([]*item, 0, len(raws))
	for _, raw := range raws {
		items = append(items, s.process(ctx, raw))
	}

	for _, h := range s.handlers {
		if err := h.OnFinish(ctx); err != nil {
			slog.Error("finishing synchronization", "error", err)
			for _, it := range items {
				it.fail(fmt.Errorf("finishing: %w", err))
			}
		}
	}

	result := &RunResult{}
	for _, it := range items {
		if !it.failed() {
			if err := s.source.WriteFingerprint(ctx, it.outcome.Row, it.outcome.Fingerprint); err != nil {
				it.fail(fmt.Errorf("writing fingerprint: %w", err))
			}
		}
		if it.failed() {
			slog.Warn("report not synchronized", "report_id", it.outcome.ReportID,
				"row", it.outcome.Row, "error", it.outcome.Err)
		}
		result.add(it.outcome)
	}

	slog.Info("synchronization finished", "total", result.Total, "created", result.Created,
		"updated", result.Updated, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

func (s *Syncer) process(ctx context.Context, raw models.RawReport) *item {
	id, _ := raw.Get(models.FieldReportID)
	it := &item{outcome: ReportOutcome{Row: raw.Row, ReportID: id}}

	if err := ctx.Err(); err != nil {
		it.fail(err)
		return it
	}

	r, err := s.parser.Parse(raw)
	if err != nil {
		it.fail(err)
		return it
	}
	r.Status = models.SyncStatusInProgress
	it.report = r
	it.outcome.ReportID = r.ID()
	it.outcome.Fingerprint = r.Fingerprint

	outcome, err := s.dispatch(ctx, r)
	it.outcome.IssueID = r.IssueID
	if err != nil {
		it.fail(err)
		return it
	}
	r.MergeStatus(models.SyncStatusSuccess)
	it.outcome.Outcome = outcome
	return it
}

// dispatch routes r to the handler hook matching the state of its issue.
func (s *Syncer) dispatch(ctx context.Context, r *models.Report) (string, error) {
	issues, err := s.tracker.FindByFingerprint(ctx, r.Fingerprint)
	if err != nil {
		return "", fmt.Errorf("looking up issues: %w", err)
	}

	if len(issues) == 0 {
		return models.OutcomeCreated, s.each(func(h Handler) error {
			return h.OnNewReport(ctx, r)
		})
	}

	issue := s.resolveDuplicates(ctx, issues)
	r.IssueID = issue.ID

	// Older layouts are upgraded by migrate-descriptions, never here.
	desc, err := s.opts.Codec.Decode(issue.Description, r.Fingerprint)
	if err != nil {
		return "", fmt.Errorf("reading issue #%d: %w", issue.ID, err)
	}

	if desc.Has(r.ID()) {
		return models.OutcomeAlreadySynced, s.each(func(h Handler) error {
			return h.OnKnownIssueAlreadySynchronized(ctx, r, issue)
		})
	}
	return models.OutcomeUpdated, s.each(func(h Handler) error {
		return h.OnKnownIssueNotSynchronized(ctx, r, issue, desc)
	})
}

// each calls fn on every handler, even after a failure.
func (s *Syncer) each(fn func(Handler) error) error {
	var errs []error
	for _, h := range s.handlers {
		if err := fn(h); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// resolveDuplicates returns the oldest issue and marks the others as its
// duplicates. Duplicates already in the closed status are left alone. Failing
// to mark a duplicate is logged only.
func (s *Syncer) resolveDuplicates(ctx context.Context, issues []models.Issue) *models.Issue {
	sort.SliceStable(issues, func(i, j int) bool {
		if !issues[i].CreatedOn.Equal(issues[j].CreatedOn) {
			return issues[i].CreatedOn.Before(issues[j].CreatedOn)
		}
		return issues[i].ID < issues[j].ID
	})
	kept := &issues[0]

	for _, dup := range issues[1:] {
		if s.opts.ClosedStatusID > 0 && dup.StatusID == s.opts.ClosedStatusID {
			continue
		}
		err := s.tracker.AddRelation(ctx, models.IssueRelation{
			IssueID:   dup.ID,
			IssueToID: kept.ID,
			Type:      redmine.RelationDuplicates,
		})
		if err == nil && s.opts.ClosedStatusID > 0 {
			err = s.tracker.UpdateIssue(ctx, dup.ID, redmine.IssueUpdate{StatusID: s.opts.ClosedStatusID})
		}
		if err != nil {
			slog.Warn("closing duplicate issue", "issue_id", dup.ID, "duplicate_of", kept.ID, "error", err)
			continue
		}
		slog.Info("duplicate issue closed", "issue_id", dup.ID, "duplicate_of", kept.ID)
	}
	return kept
}
