package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/posfront/pkg/config"
)

const DefaultDir = "pkg/migrate/migrations"

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// DialectFor maps the configured database onto a goose dialect.
func DialectFor(cfg *config.Config) string {
	if cfg != nil && (cfg.FeatureFlags.UseSQLite || strings.EqualFold(cfg.DB.Driver, config.DriverSQLite)) {
		return DialectSQLite
	}
	return DialectPostgres
}

func newProvider(db *sql.DB, dialect, dir string) (*goose.Provider, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("dir is required")
	}
	// The provider is never closed: that would close db, which the caller owns.
	p, err := goose.NewProvider(goose.Dialect(dialect), db, os.DirFS(dir))
	if err != nil {
		return nil, fmt.Errorf("goose provider for %s: %w", dir, err)
	}
	return p, nil
}

// Run executes up, down or status against db and writes one line per
// migration touched to out (nil discards).
func Run(ctx context.Context, db *sql.DB, dialect, dir, command string, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	p, err := newProvider(db, dialect, dir)
	if err != nil {
		return err
	}

	switch command {
	case "up":
		results, err := p.Up(ctx)
		writeResults(out, results...)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
	case "down":
		result, err := p.Down(ctx)
		if result != nil {
			writeResults(out, result)
		}
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
	case "status":
		statuses, err := p.Status(ctx)
		if err != nil {
			return fmt.Errorf("goose status: %w", err)
		}
		for _, s := range statuses {
			applied := "pending"
			if s.State == goose.StateApplied {
				applied = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(out, "%-20s %s\n", applied, s.Source.Path)
		}
	default:
		return fmt.Errorf("unsupported goose command %q", command)
	}
	return nil
}

// MigrateToVersion moves the schema up or down until target is the current
// version.
func MigrateToVersion(ctx context.Context, db *sql.DB, dialect, dir, targetVersion string, out io.Writer) error {
	target, err := strconv.ParseInt(strings.TrimSpace(targetVersion), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", targetVersion, err)
	}
	if out == nil {
		out = io.Discard
	}
	p, err := newProvider(db, dialect, dir)
	if err != nil {
		return err
	}
	current, err := p.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("get db version: %w", err)
	}

	var results []*goose.MigrationResult
	switch {
	case current == target:
		return nil
	case current < target:
		results, err = p.UpTo(ctx, target)
	default:
		results, err = p.DownTo(ctx, target)
	}
	writeResults(out, results...)
	if err != nil {
		return fmt.Errorf("migrate %d -> %d: %w", current, target, err)
	}
	return nil
}

func writeResults(out io.Writer, results ...*goose.MigrationResult) {
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		status := "OK"
		if r.Error != nil {
			status = "FAILED: " + r.Error.Error()
		}
		fmt.Fprintf(out, "%-4s %s (%s) %s\n", r.Direction, r.Source.Path, r.Duration.Round(1e6), status)
	}
}
