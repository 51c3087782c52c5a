package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"

	"github.com/hromada/backoffice/pkg/domain/shared"
)

// PostgreSQL error codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"

	// Data exceptions raised while casting a filter value to its column type.
	codeNumericOutOfRange         = "22003"
	codeInvalidDatetimeFormat     = "22007"
	codeDatetimeFieldOverflow     = "22008"
	codeInvalidTextRepresentation = "22P02"
)

// keyDetailRegex matches the detail of constraint errors,
// e.g. `Key (tax_number)=(1234567890) already exists.`
var keyDetailRegex = regexp.MustCompile(`Key \((.+?)\)=\((.*)\)`)

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullString converts a string to sql.NullString.
// Empty strings are treated as NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue extracts a string from sql.NullString.
// Returns empty string if NULL.
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullTime converts a *time.Time to sql.NullTime.
// nil is treated as NULL.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullTimeValue extracts a *time.Time from sql.NullTime.
// Returns nil if NULL.
func nullTimeValue(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time.UTC()
		return &t
	}
	return nil
}

// nullBytes returns nil if the byte slice is empty, otherwise returns the slice.
// Used for optional JSONB columns where we want to insert NULL instead of empty bytes.
func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeUniqueViolation
	}
	return false
}

// isForeignKeyViolation checks if the error is a PostgreSQL foreign key violation.
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == codeForeignKeyViolation
	}
	return false
}

// constraintKey extracts the column and value named in a constraint error
// detail. ok is false when the detail has no key.
func constraintKey(err error) (column, value string, ok bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return "", "", false
	}
	m := keyDetailRegex.FindStringSubmatch(pqErr.Detail)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// uniqueConflict builds the conflict error of a unique violation. The
// duplicated value is taken from the driver detail, falling back to the
// value the caller tried to store.
func uniqueConflict(err error, resource, field, fallback string) error {
	value := fallback
	if col, v, ok := constraintKey(err); ok {
		field, value = col, v
	}
	return shared.Conflict(fmt.Sprintf("%s with %s '%s' already exists", resource, field, value), err).
		With("field", field)
}

// translateWriteError maps constraint violations of an insert or update to
// domain errors. Other errors are wrapped with the operation name.
func translateWriteError(err error, op, resource, field, value string) error {
	switch {
	case isUniqueViolation(err):
		return uniqueConflict(err, resource, field, value)
	case isForeignKeyViolation(err):
		col, v, ok := constraintKey(err)
		if !ok {
			return shared.Validation(field, "referenced record does not exist")
		}
		return shared.Validation(col, fmt.Sprintf("%s %s does not exist", col, v))
	default:
		return fmt.Errorf("failed to %s %s: %w", op, resource, err)
	}
}

// translateReadError maps a filter value the database could not cast to its
// column type to a validation error. Other errors are wrapped with the
// operation name.
func translateReadError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeNumericOutOfRange, codeInvalidDatetimeFormat, codeDatetimeFieldOverflow, codeInvalidTextRepresentation:
			return shared.NewDomainError(shared.KindValidation, "invalid filter value: "+pqErr.Message, err).
				With("field", "filters")
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// translateDeleteError maps a foreign key violation of a delete to a conflict.
func translateDeleteError(err error, resource string) error {
	if isForeignKeyViolation(err) {
		return shared.Conflict("cannot delete: referenced elsewhere", err)
	}
	return fmt.Errorf("failed to delete %s: %w", resource, err)
}

// expectAffected turns a result that touched no rows into a not-found error.
func expectAffected(result sql.Result, resource string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return shared.NotFound(resource)
	}
	return nil
}

// scanOne runs scan on a single row and maps sql.ErrNoRows to not-found.
func scanOne[T any](row *sql.Row, resource string, scan func(rowScanner) (T, error)) (T, error) {
	v, err := scan(row)
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, shared.NotFound(resource)
		}
		return zero, fmt.Errorf("failed to get %s: %w", resource, err)
	}
	return v, nil
}
