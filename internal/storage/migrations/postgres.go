// Package migrations applies the embedded schema files for both storage
// backends.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"token-ledger/internal/storage/postgres"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

// RunPostgresMigrations applies the embedded PostgreSQL schema files.
// fs.Glob returns paths in lexical order, so numbered file names run in
// sequence. Migrations are expected to be idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	paths, err := fs.Glob(postgresFS, "postgres/*.sql")
	if err != nil {
		return fmt.Errorf("glob postgres migrations: %w", err)
	}

	for _, path := range paths {
		data, err := fs.ReadFile(postgresFS, path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", path, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", path, err)
		}
	}

	return nil
}
