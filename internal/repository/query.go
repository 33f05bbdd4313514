package repository

import (
    "context"
    "database/sql"
    "strings"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Page selects a window of a list.  Number is 1-based.
type Page struct {
    Number int
    Size   int
}

// Limit and Offset translate a Page into SQL values.
func (p Page) Limit() int  { return p.Size }
func (p Page) Offset() int { return (p.Number - 1) * p.Size }

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func uint64Args(ids []uint64) []any {
    out := make([]any, len(ids))
    for i, id := range ids {
        out[i] = id
    }
    return out
}

// withTx runs fn inside a transaction on db.  It commits when fn returns
// nil and rolls back otherwise.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
    tx, err := db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}
