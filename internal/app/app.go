// Package app assembles the synchronization components from configuration.
// It is shared by the server and the command line tools.
package app

import (
	"log/slog"
	"os"

	"github.com/kiranshivaraju/acrasync/internal/config"
	"github.com/kiranshivaraju/acrasync/internal/migration"
	"github.com/kiranshivaraju/acrasync/internal/redmine"
	"github.com/kiranshivaraju/acrasync/internal/report"
	"github.com/kiranshivaraju/acrasync/internal/sheets"
	"github.com/kiranshivaraju/acrasync/internal/syncer"
	"github.com/kiranshivaraju/acrasync/pkg/description"
	"github.com/kiranshivaraju/acrasync/pkg/fingerprint"
)

// SetupLogger installs a JSON slog logger at level as the default logger.
func SetupLogger(level slog.Level) {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// Components are the configured clients and codecs.
type Components struct {
	cfg *config.Config

	Tracker *redmine.HTTPClient
	Source  *sheets.HTTPClient
	Hasher  fingerprint.Hasher
	Parser  *report.Parser
	Codec   description.Codec
}

// New builds the components described by cfg.
func New(cfg *config.Config) (*Components, error) {
	hasher, err := cfg.Fingerprint.Hasher()
	if err != nil {
		return nil, err
	}

	return &Components{
		cfg: cfg,
		Tracker: redmine.NewHTTPClient(redmine.Options{
			BaseURL:            cfg.Redmine.BaseURL,
			APIKey:             cfg.Redmine.APIKey,
			ProjectID:          cfg.Redmine.ProjectID,
			FingerprintFieldID: cfg.Redmine.FingerprintFieldID,
			Timeout:            cfg.Redmine.Timeout,
		}),
		Source: sheets.NewHTTPClient(sheets.Options{
			BaseURL:       cfg.Sheets.BaseURL,
			SpreadsheetID: cfg.Sheets.SpreadsheetID,
			Sheet:         cfg.Sheets.Sheet,
			Token:         cfg.Sheets.Token,
			Timeout:       cfg.Sheets.Timeout,
		}),
		Hasher: hasher,
		Parser: report.NewParser(hasher),
		Codec:  description.NewCodec(cfg.Description.Location),
	}, nil
}

// Syncer returns a synchronization pass that files reports as Redmine issues.
func (c *Components) Syncer() *syncer.Syncer {
	tracker := syncer.NewTrackerHandler(c.Tracker, syncer.TrackerOptions{
		ProjectID:          c.cfg.Redmine.ProjectID,
		TrackerID:          c.cfg.Redmine.TrackerID,
		FingerprintFieldID: c.cfg.Redmine.FingerprintFieldID,
		Codec:              c.Codec,
	})
	return syncer.New(c.Source, c.Tracker, c.Parser, syncer.Options{
		ClosedStatusID: c.cfg.Redmine.ClosedStatusID,
		Codec:          c.Codec,
	}, tracker)
}

// Migrator returns the description upgrader.
func (c *Components) Migrator(dryRun bool) *migration.Migrator {
	return migration.New(c.Tracker, c.Source, c.Parser, migration.Options{
		TrackerID:          c.cfg.Redmine.TrackerID,
		FingerprintFieldID: c.cfg.Redmine.FingerprintFieldID,
		DryRun:             dryRun,
		Codec:              c.Codec,
	})
}
