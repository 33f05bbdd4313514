package database

import (
    "context"
    "database/sql"
    _ "embed"
    "fmt"
    "strings"

    "github.com/hashicorp/go-hclog"
)

//go:embed schema.sql
var schema string

// Statements returns the schema split into individual DDL statements.
func Statements() []string {
    var out []string
    for _, s := range strings.Split(schema, ";") {
        if s = strings.TrimSpace(s); s != "" {
            out = append(out, s)
        }
    }
    return out
}

// RunMigrations ensures all required tables exist.  Every statement is
// idempotent so it is safe to run on each start.
func RunMigrations(ctx context.Context, db *sql.DB, logger hclog.Logger) error {
    stmts := Statements()
    for i, stmt := range stmts {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("migration %d: %w", i+1, err)
        }
    }
    logger.Info("schema ready", "statements", len(stmts))
    return nil
}
