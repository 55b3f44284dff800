package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write violates a unique constraint.
	ErrConflict = errors.New("already exists")
	// ErrInvalidReference is returned when a write points at a missing row.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrInvalidType is returned for an expense type id that does not resolve.
	ErrInvalidType = wrapKind(ErrInvalidReference, "invalid expense type")
	// ErrInvalidAccount is returned for an account id that does not resolve.
	ErrInvalidAccount = wrapKind(ErrInvalidReference, "invalid account")
)

type kindError struct {
	kind error
	msg  string
}

func wrapKind(kind error, msg string) error { return &kindError{kind: kind, msg: msg} }

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY ||
			(sqlErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "UNIQUE"))
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgForeignKeyViolation
	}
	var sqlErr *sqlite.Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY ||
			(sqlErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqlErr.Error(), "FOREIGN KEY"))
	}
	return false
}
