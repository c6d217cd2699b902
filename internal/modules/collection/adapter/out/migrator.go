package out

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"go.uber.org/zap"

	apperrors "iromo/internal/platform/errors"
	"iromo/internal/platform/logging"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations is the application-level migration set applied to every
// collection. Scripts run in lexicographic filename order.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// embed.FS with a literal subdirectory cannot fail at runtime.
		panic(err)
	}
	return sub
}

// Migrator applies pending SQL scripts to one collection database,
// recording each applied script by filename in schema_migrations.
type Migrator struct {
	db      *sql.DB
	scripts fs.FS
	logger  *zap.Logger
}

func NewMigrator(db *sql.DB, scripts fs.FS, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, scripts: scripts, logger: logging.OrNop(logger)}
}

// Apply runs every not-yet-applied script. Each script executes inside one
// transaction together with its ledger insert, so partial application is
// never observable. A failing script halts migration; later scripts are not
// attempted. Re-running with nothing pending is a no-op.
func (m *Migrator) Apply(ctx context.Context) error {
	const ledger = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);
`
	if _, err := m.db.ExecContext(ctx, ledger); err != nil {
		return fmt.Errorf("%w: create schema_migrations: %v", apperrors.ErrMigration, err)
	}

	applied, err := m.appliedVersions(ctx)
	if err != nil {
		return err
	}

	names, err := m.scriptNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := m.applyOne(ctx, name); err != nil {
			return err
		}
		m.logger.Info("applied migration", zap.String("version", name))
	}
	return nil
}

func (m *Migrator) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("%w: read schema_migrations: %v", apperrors.ErrMigration, err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("%w: scan schema_migrations: %v", apperrors.ErrMigration, err)
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate schema_migrations: %v", apperrors.ErrMigration, err)
	}
	return applied, nil
}

func (m *Migrator) scriptNames() ([]string, error) {
	names, err := fs.Glob(m.scripts, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("%w: list migration scripts: %v", apperrors.ErrMigration, err)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Migrator) applyOne(ctx context.Context, name string) error {
	script, err := fs.ReadFile(m.scripts, name)
	if err != nil {
		return fmt.Errorf("%w: read script %s: %v", apperrors.ErrMigration, name, err)
	}

	t, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin %s: %v", apperrors.ErrMigration, name, err)
	}
	if _, err := t.ExecContext(ctx, string(script)); err != nil {
		_ = t.Rollback()
		return fmt.Errorf("%w: apply %s: %v", apperrors.ErrMigration, name, err)
	}
	if _, err := t.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
		name, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		_ = t.Rollback()
		return fmt.Errorf("%w: record %s: %v", apperrors.ErrMigration, name, err)
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %v", apperrors.ErrMigration, name, err)
	}
	return nil
}
