package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidModel     = errors.New("invalid model type")
	ErrNoPrimaryKey     = errors.New("no primary key defined")
	ErrNoUpdates        = errors.New("no updates provided")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrForeignKey       = errors.New("foreign key violation")
	ErrCheckConstraint  = errors.New("check constraint violation")
	ErrNotNull          = errors.New("not null constraint violation")
	ErrConnectionFailed = errors.New("database connection failed")
	ErrTimeout          = errors.New("operation timeout")
	ErrCanceled         = errors.New("operation canceled")
)

// PostgreSQL SQLSTATE codes for integrity violations.
const (
	codeNotNullViolation    = "23502"
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
	codeCheckViolation      = "23514"
)

// Error provides detailed error information
type Error struct {
	Op         string // Operation that failed
	Table      string
	Err        error
	Query      string
	Args       []interface{}
	Constraint string
	Column     string
	Retryable  bool
}

func (e *Error) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("orm: %s", e.Op))

	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("table=%s", e.Table))
	}

	if e.Column != "" {
		parts = append(parts, fmt.Sprintf("column=%s", e.Column))
	}

	if e.Constraint != "" {
		parts = append(parts, fmt.Sprintf("constraint=%s", e.Constraint))
	}

	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by operation, anything else by the wrapped error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return errors.Is(e.Err, target)
	}

	if t.Op != "" && e.Op == t.Op {
		return true
	}

	return errors.Is(e.Err, t.Err)
}

// ParsePostgreSQLError classifies a driver error into one of the package's
// sentinel kinds. SQLSTATE codes are used when the driver exposes them; the
// message text is the fallback.
func ParsePostgreSQLError(err error, op, table string) error {
	if err == nil {
		return nil
	}

	var ormErr *Error
	if errors.As(err, &ormErr) {
		return err
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Op: op, Table: table, Err: ErrNotFound}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if classified := fromPQError(pqErr, op, table); classified != nil {
			return classified
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Table: table, Err: ErrTimeout, Retryable: true}
	}

	if errors.Is(err, context.Canceled) {
		return &Error{Op: op, Table: table, Err: ErrCanceled}
	}

	errStr := err.Error()

	switch {
	case strings.Contains(errStr, "duplicate key value violates unique constraint"):
		return &Error{Op: op, Table: table, Err: ErrDuplicateKey, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "violates foreign key constraint"):
		return &Error{Op: op, Table: table, Err: ErrForeignKey, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "violates not-null constraint"):
		return &Error{Op: op, Table: table, Err: ErrNotNull, Column: extractColumnName(errStr)}
	case strings.Contains(errStr, "violates check constraint"):
		return &Error{Op: op, Table: table, Err: ErrCheckConstraint, Constraint: extractConstraintName(errStr)}
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "connection reset"),
		strings.Contains(errStr, "broken pipe"):
		return &Error{Op: op, Table: table, Err: ErrConnectionFailed, Retryable: true}
	}

	return &Error{Op: op, Table: table, Err: err}
}

func fromPQError(pqErr *pq.Error, op, table string) *Error {
	if pqErr.Table != "" {
		table = pqErr.Table
	}

	switch pqErr.Code {
	case codeUniqueViolation:
		return &Error{Op: op, Table: table, Err: ErrDuplicateKey, Constraint: constraintOf(pqErr)}
	case codeForeignKeyViolation:
		return &Error{Op: op, Table: table, Err: ErrForeignKey, Constraint: constraintOf(pqErr)}
	case codeNotNullViolation:
		column := pqErr.Column
		if column == "" {
			column = extractColumnName(pqErr.Message)
		}
		return &Error{Op: op, Table: table, Err: ErrNotNull, Column: column}
	case codeCheckViolation:
		return &Error{Op: op, Table: table, Err: ErrCheckConstraint, Constraint: constraintOf(pqErr)}
	}

	return nil
}

func constraintOf(pqErr *pq.Error) string {
	if pqErr.Constraint != "" {
		return pqErr.Constraint
	}
	return extractConstraintName(pqErr.Message)
}

// extractConstraintName returns the last quoted identifier in a message,
// which is where PostgreSQL places the constraint name.
func extractConstraintName(errStr string) string {
	end := strings.LastIndex(errStr, "\"")
	if end <= 0 {
		return ""
	}
	start := strings.LastIndex(errStr[:end], "\"")
	if start == -1 {
		return ""
	}
	return errStr[start+1 : end]
}

func extractColumnName(errStr string) string {
	columnIdx := strings.Index(errStr, "column \"")
	if columnIdx == -1 {
		return ""
	}
	start := columnIdx + len("column \"")
	end := strings.Index(errStr[start:], "\"")
	if end == -1 {
		return ""
	}
	return errStr[start : start+end]
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var ormErr *Error
	if errors.As(err, &ormErr) {
		return ormErr.Retryable
	}
	return false
}

// GetConstraintName extracts the constraint name from an error
func GetConstraintName(err error) string {
	var ormErr *Error
	if errors.As(err, &ormErr) {
		return ormErr.Constraint
	}
	return ""
}
