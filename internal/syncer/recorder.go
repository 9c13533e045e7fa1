package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/acrasync/internal/store"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// Recorder persists the per-report outcomes of a run.
type Recorder struct {
	store store.Store
}

func NewRecorder(st store.Store) *Recorder {
	return &Recorder{store: st}
}

// Record stores one result per report. Rows without a report id are stored
// under "row-<n>". It keeps going past failures and returns them joined.
func (r *Recorder) Record(ctx context.Context, runID uuid.UUID, result *RunResult) error {
	var errs []error
	now := time.Now().UTC()

	for _, o := range result.Reports {
		rr := &models.ReportResult{
			ID:          uuid.New(),
			RunID:       runID,
			ReportID:    o.ReportID,
			Fingerprint: o.Fingerprint,
			Outcome:     o.Outcome,
			CreatedAt:   now,
		}
		if rr.ReportID == "" {
			rr.ReportID = fmt.Sprintf("row-%d", o.Row)
		}
		if o.IssueID > 0 {
			id := o.IssueID
			rr.IssueID = &id
		}
		if o.Err != nil {
			msg := o.Err.Error()
			rr.ErrorMessage = &msg
		}

		if err := r.store.CreateReportResult(ctx, rr); err != nil {
			errs = append(errs, fmt.Errorf("report %s: %w", rr.ReportID, err))
		}
	}
	return errors.Join(errs...)
}
