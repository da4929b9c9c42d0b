// Package sqlerr classifies constraint failures reported by the Postgres and
// SQLite drivers so callers can turn them into application errors.
package sqlerr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Code is a driver independent constraint class.
type Code int

const (
	Other Code = iota
	ForeignKeyViolation
	UniqueViolation
	NotNullViolation
	CheckViolation
)

func (c Code) String() string {
	switch c {
	case ForeignKeyViolation:
		return "foreign_key_violation"
	case UniqueViolation:
		return "unique_violation"
	case NotNullViolation:
		return "not_null_violation"
	case CheckViolation:
		return "check_violation"
	default:
		return "other"
	}
}

// Postgres SQLSTATE values for integrity constraint violations (class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// Classify reports which constraint, if any, err violated.
func Classify(err error) Code {
	if err == nil {
		return Other
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code)
	}

	var liteErr *msqlite.Error
	if errors.As(err, &liteErr) {
		if code := fromSQLite(liteErr.Code()); code != Other {
			return code
		}
	}

	// Extended result codes are not always surfaced; fall back to the
	// message SQLite uses for each constraint.
	message := strings.ToLower(err.Error())
	switch {
	case strings.Contains(message, "foreign key constraint failed"):
		return ForeignKeyViolation
	case strings.Contains(message, "unique constraint failed"):
		return UniqueViolation
	case strings.Contains(message, "not null constraint failed"):
		return NotNullViolation
	case strings.Contains(message, "check constraint failed"):
		return CheckViolation
	}
	return Other
}

// ConstraintName returns the violated constraint's name when the driver
// reports it (Postgres only).
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func fromSQLState(state string) Code {
	switch state {
	case pgForeignKeyViolation:
		return ForeignKeyViolation
	case pgUniqueViolation:
		return UniqueViolation
	case pgNotNullViolation:
		return NotNullViolation
	case pgCheckViolation:
		return CheckViolation
	default:
		return Other
	}
}

func fromSQLite(code int) Code {
	switch code {
	case sqlite3lib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return ForeignKeyViolation
	case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return UniqueViolation
	case sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
		return NotNullViolation
	case sqlite3lib.SQLITE_CONSTRAINT_CHECK:
		return CheckViolation
	default:
		return Other
	}
}
