package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kiranshivaraju/acrasync/internal/app"
	"github.com/kiranshivaraju/acrasync/internal/config"
)

type syncCommand struct {
	out io.Writer
}

func (c *syncCommand) Execute(_ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	app.SetupLogger(cfg.Log.Level)

	components, err := app.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Sync.Timeout)
	defer cancel()

	result, err := components.Syncer().Run(ctx)
	if err != nil {
		return err
	}

	for _, o := range result.Reports {
		if o.Err != nil {
			slog.Error("report not synchronized", "row", o.Row, "report_id", o.ReportID, "error", o.Err)
		}
	}
	fmt.Fprintf(c.out, "total=%d created=%d updated=%d skipped=%d failed=%d\n",
		result.Total, result.Created, result.Updated, result.Skipped, result.Failed)

	if result.Failed > 0 {
		return fmt.Errorf("%d of %d reports failed", result.Failed, result.Total)
	}
	return nil
}
