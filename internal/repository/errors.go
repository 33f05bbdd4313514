// Package repository defines the MySQL data access layer and the error
// values shared across repositories.  Handlers translate ErrNotFound to
// 404, ErrDuplicate and ErrConflict to 409 (or 400 for unique catalog
// fields), and ErrForbidden to 403.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist or is not visible to
// the caller (owner-scoped lookups report foreign rows as missing).
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete cannot proceed because other rows
// still reference the target, e.g. deleting a hall that has performances.
var ErrConflict = errors.New("conflict")

// ErrDuplicate is returned when an insert or update violates a unique key
// such as users.email or genres.name.
var ErrDuplicate = errors.New("duplicate")

// ErrInvalidReference is returned when a foreign key points at a missing
// row, e.g. creating a performance for an unknown play.
var ErrInvalidReference = errors.New("invalid reference")

// MySQL server error numbers the repositories react to.
const (
    mysqlDuplicateEntry   = 1062
    mysqlRowIsReferenced  = 1451
    mysqlNoReferencedRow  = 1452
)

func mysqlErrNumber(err error) uint16 {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number
    }
    return 0
}

// translate maps driver errors to the sentinels above and passes anything
// else through unchanged.
func translate(err error) error {
    switch mysqlErrNumber(err) {
    case mysqlDuplicateEntry:
        return ErrDuplicate
    case mysqlRowIsReferenced:
        return ErrConflict
    case mysqlNoReferencedRow:
        return ErrInvalidReference
    }
    return err
}
