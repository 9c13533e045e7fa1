// Package main is the acrasync command line: one-shot synchronization and
// maintenance helpers.
package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := newParser(os.Stdout).Execute(os.Args[1:]); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

type cli struct {
	parser *flags.Parser
}

func newParser(out io.Writer) *cli {
	p := flags.NewNamedParser("acrasync", flags.HelpFlag|flags.PassDoubleDash|flags.PrintErrors)

	p.AddCommand("sync",
		"Synchronize new crash reports",
		"Reads the unsynchronized reports of the spreadsheet once and files them as Redmine issues.",
		&syncCommand{out: out})
	p.AddCommand("keygen",
		"Generate an API key",
		"Generates an API key for the sync API. The raw key is printed once; --save stores its hash.",
		&keygenCommand{out: out})
	p.AddCommand("fingerprint",
		"Print the fingerprint of a stacktrace",
		"Prints the fingerprint of the stacktrace read from FILE, or standard input when FILE is -.",
		&fingerprintCommand{out: out, in: os.Stdin})

	return &cli{parser: p}
}

// Execute parses args and runs the selected command.
func (c *cli) Execute(args []string) error {
	_, err := c.parser.ParseArgs(args)
	return err
}
