// Package main upgrades the descriptions of every synchronized Redmine issue
// to the current description version.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/kiranshivaraju/acrasync/internal/app"
	"github.com/kiranshivaraju/acrasync/internal/config"
)

type options struct {
	DryRun bool `long:"dry-run" description:"Log the upgrades without saving them"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if err := run(opts, os.Stdout); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options, out io.Writer) error {
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

	res, err := components.Migrator(opts.DryRun).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "total=%d upgraded=%d current=%d failed=%d\n",
		res.Total, res.Upgraded, res.Current, res.Failed)
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d issues could not be upgraded", res.Failed, res.Total)
	}
	return nil
}
