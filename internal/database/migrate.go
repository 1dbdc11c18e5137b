package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
)

// Supported schema dialects.
const (
	DialectMySQL  = "mysql"
	DialectSQLite = "sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate creates any missing tables for the given dialect.  Statements are
// idempotent (CREATE ... IF NOT EXISTS) and executed one at a time since the
// MySQL driver rejects multi-statement strings by default.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	raw, err := schemaFS.ReadFile("schema/" + dialect + ".sql")
	if err != nil {
		return fmt.Errorf("unknown schema dialect %q: %w", dialect, err)
	}
	for _, stmt := range strings.Split(string(raw), ";\n") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
