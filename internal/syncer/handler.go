// Package syncer pushes new ACRA crash reports to the bugtracker.
package syncer

import (
	"context"

	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// Handler reacts to each report of a synchronization pass. A returned error
// fails the report but never stops the pass.
type Handler interface {
	// OnNewReport is called when no issue carries the report fingerprint.
	OnNewReport(ctx context.Context, r *models.Report) error
	// OnKnownIssueAlreadySynchronized is called when issue already lists the report.
	OnKnownIssueAlreadySynchronized(ctx context.Context, r *models.Report, issue *models.Issue) error
	// OnKnownIssueNotSynchronized is called with the decoded description of
	// issue when it does not list the report yet.
	OnKnownIssueNotSynchronized(ctx context.Context, r *models.Report, issue *models.Issue, desc *description.Description) error
	// OnFinish is called once every report went through the other hooks. An
	// error fails every report of the pass.
	OnFinish(ctx context.Context) error
}
