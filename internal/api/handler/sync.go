package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiranshivaraju/acrasync/internal/api/response"
	"github.com/kiranshivaraju/acrasync/internal/store"
	"github.com/kiranshivaraju/acrasync/internal/syncer"
	"github.com/kiranshivaraju/acrasync/pkg/models"
)

// SyncTrigger starts synchronization runs.
type SyncTrigger interface {
	Trigger(ctx context.Context, trigger string) (*models.SyncRun, error)
}

// RunReader reads recorded runs.
type RunReader interface {
	GetSyncRun(ctx context.Context, id uuid.UUID) (*models.SyncRun, error)
	ListSyncRuns(ctx context.Context, filter store.RunFilter) ([]*models.SyncRun, int, error)
	ListReportResults(ctx context.Context, runID uuid.UUID) ([]*models.ReportResult, error)
}

// RunStatusReader serves cached run statuses.
type RunStatusReader interface {
	GetRunStatus(ctx context.Context, runID uuid.UUID) (string, bool, error)
}

var validRunStatuses = map[string]bool{
	models.RunStatusPending:   true,
	models.RunStatusRunning:   true,
	models.RunStatusCompleted: true,
	models.RunStatusFailed:    true,
}

// NewTriggerSyncHandler returns an http.HandlerFunc for POST /api/v1/sync.
func NewTriggerSyncHandler(t SyncTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := t.Trigger(r.Context(), "api")
		if err != nil {
			if errors.Is(err, syncer.ErrRunInProgress) {
				response.Error(w, http.StatusConflict, "SYNC_IN_PROGRESS",
					"A synchronization is already running", nil)
				return
			}
			slog.Error("triggering sync", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Accepted(w, map[string]string{
			"run_id": run.ID.String(),
			"status": run.Status,
		})
	}
}

// NewListRunsHandler returns an http.HandlerFunc for GET /api/v1/sync/runs.
func NewListRunsHandler(rr RunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		status := q.Get("status")
		if status != "" && !validRunStatuses[status] {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"status must be one of pending, running, completed, failed", nil)
			return
		}

		page, err := queryInt(q.Get("page"), 1)
		if err != nil || page < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return
		}
		limit, err := queryInt(q.Get("limit"), 20)
		if err != nil || limit < 1 || limit > 100 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 100", nil)
			return
		}

		runs, total, err := rr.ListSyncRuns(r.Context(), store.RunFilter{Status: status, Page: page, Limit: limit})
		if err != nil {
			slog.Error("listing sync runs", "error", err)
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"An unexpected error occurred", nil)
			return
		}

		response.Collection(w, runs, response.NewPaginationMeta(page, limit, total))
	}
}

// NewGetRunHandler returns an http.HandlerFunc for GET /api/v1/sync/runs/{runID}.
// The run comes with the outcome of each of its reports.
func NewGetRunHandler(rr RunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := runIDParam(w, r)
		if !ok {
			return
		}

		run, err := rr.GetSyncRun(r.Context(), runID)
		if err != nil {
			writeRunError(w, err)
			return
		}

		results, err := rr.ListReportResults(r.Context(), runID)
		if err != nil {
			writeRunError(w, err)
			return
		}

		response.JSON(w, runDetail{SyncRun: run, Reports: results})
	}
}

// NewGetRunStatusHandler returns an http.HandlerFunc for
// GET /api/v1/sync/runs/{runID}/status. The cache answers first; the store
// covers runs whose cached status expired.
func NewGetRunStatusHandler(c RunStatusReader, rr RunReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID, ok := runIDParam(w, r)
		if !ok {
			return
		}

		status, found, err := c.GetRunStatus(r.Context(), runID)
		if err != nil {
			slog.Warn("reading cached run status", "error", err, "run_id", runID)
		}
		if !found {
			run, err := rr.GetSyncRun(r.Context(), runID)
			if err != nil {
				writeRunError(w, err)
				return
			}
			status = run.Status
		}

		response.JSON(w, map[string]string{"run_id": runID.String(), "status": status})
	}
}

type runDetail struct {
	*models.SyncRun
	Reports []*models.ReportResult `json:"reports"`
}

func runIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "runID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_RUN_ID", "Invalid run ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func writeRunError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "RUN_NOT_FOUND", "Sync run not found", nil)
		return
	}
	slog.Error("reading sync run", "error", err)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
}

func queryInt(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
