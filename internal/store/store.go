package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID) error

	CreateSyncRun(ctx context.Context, run *models.SyncRun) error
	GetSyncRun(ctx context.Context, id uuid.UUID) (*models.SyncRun, error)
	ListSyncRuns(ctx context.Context, filter RunFilter) ([]*models.SyncRun, int, error)
	UpdateSyncRunStatus(ctx context.Context, id uuid.UUID, status string, opts ...RunUpdateOption) error

	CreateReportResult(ctx context.Context, result *models.ReportResult) error
	ListReportResults(ctx context.Context, runID uuid.UUID) ([]*models.ReportResult, error)
}

type RunFilter struct {
	Status string
	Page   int
	Limit  int
}

// RunCounts are the per-outcome report counts of a run.
type RunCounts struct {
	Total   int
	Created int
	Updated int
	Skipped int
	Failed  int
}

type runUpdateParams struct {
	ErrorMessage *string
	Counts       *RunCounts
}

type RunUpdateOption func(*runUpdateParams)

func WithErrorMessage(msg string) RunUpdateOption {
	return func(p *runUpdateParams) {
		p.ErrorMessage = &msg
	}
}

func WithCounts(c RunCounts) RunUpdateOption {
	return func(p *runUpdateParams) {
		p.Counts = &c
	}
}
