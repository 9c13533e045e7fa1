// Package migration rewrites issue descriptions written by older releases in the
// current description format.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/acrasync/internal/redmine"
	"github.com/kiranshivaraju/acrasync/internal/report"
	"github.com/kiranshivaraju/acrasync/internal/sheets"
	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// Options configures a Migrator.
type Options struct {
	TrackerID          int
	FingerprintFieldID int
	// DryRun logs the upgrades without saving them.
	DryRun bool
	Codec  description.Codec
}

// Result counts the issues seen by a migration.
type Result struct {
	Total    int
	Upgraded int
	Current  int
	Failed   int
}

// Migrator upgrades descriptions, completing legacy occurrences with the
// spreadsheet rows of their reports.
type Migrator struct {
	tracker redmine.Client
	source  sheets.Client
	parser  *report.Parser
	opts    Options
}

// New creates a new Migrator.
func New(tracker redmine.Client, source sheets.Client, parser *report.Parser, opts Options) *Migrator {
	return &Migrator{tracker: tracker, source: source, parser: parser, opts: opts}
}

// Run upgrades every issue of the tracker, open or closed. Per-issue failures
// are logged and counted; only listing the issues can fail the migration.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	issues, err := m.tracker.ListIssues(ctx, redmine.IssueFilter{TrackerID: m.opts.TrackerID, AllStatuses: true})
	if err != nil {
		return nil, fmt.Errorf("listing issues: %w", err)
	}
	slog.Info("starting description upgrade", "issues", len(issues),
		"version", description.CurrentVersion, "dry_run", m.opts.DryRun)

	res := &Result{Total: len(issues)}
	for i := range issues {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		upgraded, err := m.Upgrade(ctx, &issues[i])
		switch {
		case err != nil:
			res.Failed++
			slog.Error("cannot upgrade issue", "issue_id", issues[i].ID, "error", err)
		case upgraded:
			res.Upgraded++
		default:
			res.Current++
		}
	}

	slog.Info("description upgrade finished", "total", res.Total, "upgraded", res.Upgraded,
		"current", res.Current, "failed", res.Failed)
	return res, nil
}

// Upgrade rewrites the description of issue when it is older than the current
// version and reports whether it did.
func (m *Migrator) Upgrade(ctx context.Context, issue *models.Issue) (bool, error) {
	version := description.DetectVersion(issue.Description)
	if version == description.CurrentVersion {
		slog.Debug("issue already current", "issue_id", issue.ID)
		return false, nil
	}
	if !description.Supported(version) {
		return false, fmt.Errorf("%w: %d", description.ErrUnsupportedVersion, version)
	}

	fp, _ := issue.CustomFieldValue(m.opts.FingerprintFieldID)
	old, err := m.opts.Codec.DecodeAny(issue.Description, fp)
	if err != nil {
		return false, err
	}

	occurrences := &models.OccurrenceSet{}
	for _, o := range old.Occurrences.Sorted() {
		occurrences.Add(m.enrich(ctx, issue.ID, o))
	}

	text, err := m.opts.Codec.Encode(old.Stacktrace, occurrences)
	if err != nil {
		return false, err
	}

	if m.opts.DryRun {
		slog.Info("would upgrade issue", "issue_id", issue.ID, "from", version,
			"occurrences", occurrences.Len())
		return true, nil
	}

	err = m.tracker.UpdateIssue(ctx, issue.ID, redmine.IssueUpdate{
		Description: text,
		Notes:       fmt.Sprintf("Description upgraded from version %d to %d.", version, description.CurrentVersion),
	})
	if err != nil {
		return false, fmt.Errorf("updating issue: %w", err)
	}
	issue.Description = text

	slog.Info("issue upgraded", "issue_id", issue.ID, "from", version, "occurrences", occurrences.Len())
	return true, nil
}

// enrich rebuilds o from the spreadsheet row of its report. The legacy
// occurrence is kept when the row is missing or unreadable.
func (m *Migrator) enrich(ctx context.Context, issueID int, o models.Occurrence) models.Occurrence {
	raw, err := m.source.FindByReportID(ctx, o.ReportID)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, sheets.ErrNotFound) {
			level = slog.LevelInfo
		}
		slog.Log(ctx, level, "report row unavailable, keeping id and date",
			"issue_id", issueID, "report_id", o.ReportID, "error", err)
		return o
	}

	r, err := m.parser.Parse(*raw)
	if err != nil {
		slog.Warn("report row unreadable, keeping id and date",
			"issue_id", issueID, "report_id", o.ReportID, "error", err)
		return o
	}
	return report.ToOccurrence(r)
}
