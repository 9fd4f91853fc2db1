package rowstore

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Row-level error codes. Postgres errors keep their SQLSTATE; SQLite
// constraint failures are mapped onto the same codes.
const (
	// CodeNoRows is what PostgREST reports for a single-row query with no result.
	CodeNoRows              = "PGRST116"
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeCheckViolation      = "23514"
	CodeEmptyUpdate         = "empty_update"
	CodeInvalidFilter       = "invalid_filter"
)

type Error struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("rowstore: %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("rowstore: %s: %s (%s)", e.Op, e.Message, e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the row-level code carried by err, or "".
func CodeOf(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func IsNoRows(err error) bool {
	return CodeOf(err) == CodeNoRows
}

func noRows(op string) error {
	return &Error{Op: op, Code: CodeNoRows, Message: "no rows returned"}
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Code: CodeNoRows, Message: "no rows returned", Err: err}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &Error{Op: op, Code: string(pqErr.Code), Message: pqErr.Message, Err: err}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return &Error{Op: op, Code: sqliteCode(liteErr), Message: liteErr.Error(), Err: err}
	}
	return &Error{Op: op, Message: err.Error(), Err: err}
}

func sqliteCode(e sqlite3.Error) string {
	switch e.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return CodeUniqueViolation
	case sqlite3.ErrConstraintForeignKey:
		return CodeForeignKeyViolation
	case sqlite3.ErrConstraintNotNull:
		return CodeNotNullViolation
	case sqlite3.ErrConstraintCheck:
		return CodeCheckViolation
	}
	return fmt.Sprintf("SQLITE_%d", int(e.Code))
}
