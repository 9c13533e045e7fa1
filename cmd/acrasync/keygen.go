package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kiranshivaraju/acrasync/internal/apikey"
	"github.com/kiranshivaraju/acrasync/internal/config"
	"github.com/kiranshivaraju/acrasync/internal/store"
)

type keygenCommand struct {
	Name        string   `long:"name" short:"n" description:"Key name" required:"yes"`
	Scopes      []string `long:"scope" short:"s" description:"Scope granted to the key (read, sync, admin); repeatable" default:"read"`
	Save        bool     `long:"save" description:"Store the key in the database"`
	DatabaseURL string   `long:"database-url" env:"DATABASE_URL" description:"Database used by --save"`

	out io.Writer
}

func (c *keygenCommand) Execute(_ []string) error {
	raw, key, err := apikey.Generate(c.Name, c.Scopes)
	if err != nil {
		return err
	}

	if c.Save {
		if c.DatabaseURL == "" {
			return fmt.Errorf("--save needs --database-url or DATABASE_URL")
		}
		ctx := context.Background()
		pool, err := store.Connect(ctx, config.DatabaseConfig{URL: c.DatabaseURL, MaxOpenConns: 2})
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := store.NewPostgresStore(pool).CreateAPIKey(ctx, key); err != nil {
			return fmt.Errorf("saving api key: %w", err)
		}
	}

	fmt.Fprintf(c.out, "id:     %s\n", key.ID)
	fmt.Fprintf(c.out, "key:    %s\n", raw)
	fmt.Fprintf(c.out, "prefix: %s\n", key.KeyPrefix)
	fmt.Fprintf(c.out, "scopes: %v\n", key.Scopes)
	if !c.Save {
		fmt.Fprintf(c.out, "hash:   %s\n", key.KeyHash)
	}
	return nil
}
