package syncer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/acrasync/internal/cache"
	"github.com/kiranshivaraju/acrasync/internal/store"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// ErrRunInProgress is returned when another run holds the sync lock.
var ErrRunInProgress = errors.New("a synchronization is already running")

const statusTTL = 30 * time.Minute

// Pass is one synchronization pass. *Syncer implements it.
type Pass interface {
	Run(ctx context.Context) (*RunResult, error)
}

// RunnerOptions configures a Runner.
type RunnerOptions struct {
	// LockKey identifies the synchronized spreadsheet.
	LockKey string
	// Timeout bounds a single run.
	Timeout time.Duration
}

// Runner starts passes in the background, one at a time, and records them.
type Runner struct {
	pass     Pass
	store    store.Store
	cache    cache.Cache
	recorder *Recorder
	opts     RunnerOptions
}

// NewRunner creates a new Runner.
func NewRunner(pass Pass, st store.Store, ca cache.Cache, opts RunnerOptions) *Runner {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Minute
	}
	return &Runner{
		pass:     pass,
		store:    st,
		cache:    ca,
		recorder: NewRecorder(st),
		opts:     opts,
	}
}

// Trigger takes the sync lock, creates a pending run and performs it in a
// background goroutine. The run is returned immediately.
func (r *Runner) Trigger(ctx context.Context, trigger string) (*models.SyncRun, error) {
	now := time.Now().UTC()
	run := &models.SyncRun{
		ID:        uuid.New(),
		Trigger:   trigger,
		Status:    models.RunStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// The lock outlives the run timeout so a slow store update cannot free it early.
	lockTTL := r.opts.Timeout + time.Minute
	if err := r.cache.AcquireLock(ctx, r.opts.LockKey, run.ID.String(), lockTTL); err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, ErrRunInProgress
		}
		return nil, fmt.Errorf("acquiring sync lock: %w", err)
	}

	if err := r.store.CreateSyncRun(ctx, run); err != nil {
		_ = r.cache.ReleaseLock(ctx, r.opts.LockKey, run.ID.String())
		return nil, fmt.Errorf("creating sync run: %w", err)
	}
	_ = r.cache.SetRunStatus(ctx, run.ID, models.RunStatusPending, statusTTL)

	go r.execute(run.ID)

	return run, nil
}

// execute performs the run. It recovers from panics and always marks the run
// completed or failed before releasing the lock.
func (r *Runner) execute(runID uuid.UUID) {
	ctx := context.Background()
	defer func() {
		_ = r.cache.ReleaseLock(ctx, r.opts.LockKey, runID.String())
	}()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("panic in sync run", "error", rec, "run_id", runID)
			r.fail(ctx, runID, fmt.Sprintf("panic: %v", rec))
		}
	}()

	if err := r.store.UpdateSyncRunStatus(ctx, runID, models.RunStatusRunning); err != nil {
		slog.Error("starting sync run", "error", err, "run_id", runID)
		r.fail(ctx, runID, err.Error())
		return
	}
	_ = r.cache.SetRunStatus(ctx, runID, models.RunStatusRunning, statusTTL)

	runCtx, cancel := context.WithTimeout(ctx, r.opts.Timeout)
	defer cancel()

	result, err := r.pass.Run(runCtx)
	if err != nil {
		r.fail(ctx, runID, err.Error())
		return
	}

	if err := r.recorder.Record(ctx, runID, result); err != nil {
		slog.Error("recording sync results", "error", err, "run_id", runID)
	}

	err = r.store.UpdateSyncRunStatus(ctx, runID, models.RunStatusCompleted,
		store.WithCounts(store.RunCounts{
			Total:   result.Total,
			Created: result.Created,
			Updated: result.Updated,
			Skipped: result.Skipped,
			Failed:  result.Failed,
		}))
	if err != nil {
		slog.Error("completing sync run", "error", err, "run_id", runID)
		return
	}
	_ = r.cache.SetRunStatus(ctx, runID, models.RunStatusCompleted, statusTTL)
}

func (r *Runner) fail(ctx context.Context, runID uuid.UUID, msg string) {
	slog.Error("sync run failed", "run_id", runID, "error", msg)
	_ = r.store.UpdateSyncRunStatus(ctx, runID, models.RunStatusFailed, store.WithErrorMessage(msg))
	_ = r.cache.SetRunStatus(ctx, runID, models.RunStatusFailed, statusTTL)
}

// Schedule triggers a run every interval until ctx is done. A run still in
// progress skips the tick.
func (r *Runner) Schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run, err := r.Trigger(ctx, "schedule")
			switch {
			case errors.Is(err, ErrRunInProgress):
				slog.Debug("scheduled sync skipped, run in progress")
			case err != nil:
				slog.Error("scheduled sync", "error", err)
			default:
				slog.Info("scheduled sync started", "run_id", run.ID)
			}
		}
	}
}
