package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kiranshivaraju/acrasync/internal/api/response"
	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/fingerprint"
	"github.com/kiranshivaraju/acrasync/pkg/runfor"
)

// NewPreviewHandler returns an http.HandlerFunc for POST /api/v1/descriptions/preview.
// It decodes an issue description of any supported version. Without a
// fingerprint in the request, the one of the decoded stacktrace is returned.
func NewPreviewHandler(codec description.Codec, hasher fingerprint.Hasher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Description string `json:"description"`
			Fingerprint string `json:"fingerprint"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Description == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "description is required", nil)
			return
		}

		d, err := codec.DecodeAny(req.Description, req.Fingerprint)
		if err != nil {
			details := map[string]any{"version": description.DetectVersion(req.Description)}
			var perr *description.ParseError
			if errors.As(err, &perr) {
				details["line"] = perr.Line
				details["detail"] = perr.Detail
			}
			response.Error(w, http.StatusUnprocessableEntity, "INVALID_DESCRIPTION", err.Error(), details)
			return
		}

		fp := d.Fingerprint
		if fp == "" {
			fp = hasher.Stacktrace(d.Stacktrace)
		}

		occurrences := make([]occurrenceJSON, 0, d.Occurrences.Len())
		for _, o := range d.Occurrences.Sorted() {
			occurrences = append(occurrences, occurrenceJSON{
				ReportID:       o.ReportID,
				CrashDate:      o.CrashDate,
				RunFor:         runfor.FormatDuration(o.RunFor),
				AndroidVersion: o.AndroidVersion,
				AppVersionCode: o.AppVersionCode,
				AppVersionName: o.AppVersionName,
				Device:         o.Device,
			})
		}

		response.JSON(w, previewResponse{
			Version:        d.Version,
			CurrentVersion: description.CurrentVersion,
			Stacktrace:     d.Stacktrace,
			Fingerprint:    fp,
			Occurrences:    occurrences,
		})
	}
}

type previewResponse struct {
	Version        int              `json:"version"`
	CurrentVersion int              `json:"current_version"`
	Stacktrace     string           `json:"stacktrace"`
	Fingerprint    string           `json:"fingerprint"`
	Occurrences    []occurrenceJSON `json:"occurrences"`
}

type occurrenceJSON struct {
	ReportID       string    `json:"report_id"`
	CrashDate      time.Time `json:"crash_date"`
	RunFor         string    `json:"run_for"`
	AndroidVersion string    `json:"android_version,omitempty"`
	AppVersionCode string    `json:"app_version_code,omitempty"`
	AppVersionName string    `json:"app_version_name,omitempty"`
	Device         string    `json:"device,omitempty"`
}
