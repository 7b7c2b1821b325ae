package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/example/dfg-downloader/internal/db"
)

//go:embed *.sql
var migrations embed.FS

// Store is the slice of db.DB the migrator needs; tests provide a fake.
type Store interface {
	Exec(ctx context.Context, sql string, args ...any) error
	QueryRow(ctx context.Context, sql string, args ...any) db.Row
}

// Up applies any pending ledger migrations in file-name order and
// reports how many were applied. Applied versions are tracked by file
// name in a schema_migrations table.
func Up(ctx context.Context, s Store) (int, error) {
	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return 0, err
	}

	if err := s.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY);`); err != nil {
		return 0, err
	}

	applied := 0
	for _, version := range files {
		done, err := isApplied(ctx, s, version)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}
		if err := apply(ctx, s, version); err != nil {
			return applied, fmt.Errorf("apply %s: %w", version, err)
		}
		applied++
	}
	return applied, nil
}

func isApplied(ctx context.Context, s Store, version string) (bool, error) {
	var done bool
	err := s.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, version).Scan(&done)
	return done, err
}

func apply(ctx context.Context, s Store, version string) error {
	sql, err := migrations.ReadFile(version)
	if err != nil {
		return err
	}
	if err := s.Exec(ctx, string(sql)); err != nil {
		return err
	}
	return s.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, version)
}
