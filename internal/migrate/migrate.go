package migrate

import (
	"context"
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/example/section-sniper/internal/db"
)

//go:embed *.sql
var fs embed.FS

// Up applies every embedded *.sql file not yet recorded in schema_migrations, in
// lexical order.
func Up(ctx context.Context, d *db.DB) error {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now())`); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, f := range files {
		var applied bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, f).Scan(&applied); err != nil {
			return fmt.Errorf("migrate: check %s: %w", f, err)
		}
		if applied {
			continue
		}
		b, err := fs.ReadFile(f)
		if err != nil {
			return err
		}
		if err := d.Exec(ctx, string(b)); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", f, err)
		}
		if err := d.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f); err != nil {
			return fmt.Errorf("migrate: record %s: %w", f, err)
		}
	}
	return nil
}
