package main

import (
	"fmt"
	"io"
	"os"

	"github.com/kiranshivaraju/acrasync/pkg/fingerprint"
)

type fingerprintCommand struct {
	Algorithm string `long:"algorithm" short:"a" env:"FINGERPRINT_ALGORITHM" default:"md5" description:"Digest: md5, sha1 or sha256"`
	ZeroPad   bool   `long:"zero-pad" description:"Keep leading zeros of the digest"`
	Args      struct {
		File string `positional-arg-name:"FILE"`
	} `positional-args:"yes" required:"yes"`

	out io.Writer
	in  io.Reader
}

func (c *fingerprintCommand) Execute(_ []string) error {
	hasher, err := fingerprint.New(c.Algorithm, c.ZeroPad)
	if err != nil {
		return err
	}

	var data []byte
	if c.Args.File == "-" {
		data, err = io.ReadAll(c.in)
	} else {
		data, err = os.ReadFile(c.Args.File)
	}
	if err != nil {
		return fmt.Errorf("reading stacktrace: %w", err)
	}

	fmt.Fprintln(c.out, hasher.Stacktrace(string(data)))
	return nil
}
