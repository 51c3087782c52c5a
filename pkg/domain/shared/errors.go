// Package shared provides shared domain types and utilities.
package shared

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("forbidden")
	ErrInternal     = errors.New("internal error")
	ErrInvalidInput = errors.New("invalid input")
)

// Kind classifies a domain error. The HTTP layer maps each kind to a status
// code.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindConflict
	KindValidation
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindValidation:
		return ErrValidation
	case KindForbidden:
		return ErrForbidden
	default:
		return ErrInternal
	}
}

// DomainError represents a domain-specific error.
type DomainError struct {
	Kind    Kind
	Message string
	// Fields carries structured context, e.g. the offending field names.
	Fields map[string]any
	Err    error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNotFound) and friends match the kind.
func (e *DomainError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// With adds a structured field and returns the error.
func (e *DomainError) With(key string, value any) *DomainError {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value
	return e
}

// NewDomainError creates a new DomainError.
func NewDomainError(kind Kind, message string, err error) *DomainError {
	return &DomainError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// NotFound returns a not-found error for the named resource.
func NotFound(resource string) *DomainError {
	return NewDomainError(KindNotFound, resource+" not found", nil)
}

// Conflict returns a conflict error with a client-facing message.
func Conflict(message string, err error) *DomainError {
	return NewDomainError(KindConflict, message, err)
}

// Validation returns a validation error naming the offending field.
func Validation(field, message string) *DomainError {
	return NewDomainError(KindValidation, message, nil).With("field", field)
}

// Internal wraps an unexpected error. The message shown to clients is generic;
// err is kept for logging.
func Internal(err error) *DomainError {
	return NewDomainError(KindInternal, "internal error", err)
}

// KindOf returns the kind of the outermost DomainError in err's chain, or the
// kind of the first matching sentinel.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidInput):
		return KindValidation
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	default:
		return KindInternal
	}
}

// MessageOf returns the client-facing message for err. Internal errors always
// get a generic message. Sentinel-wrapped errors such as
// fmt.Errorf("%w: debtor not found", ErrNotFound) lose the sentinel prefix.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) && de.Kind != KindInternal {
		return de.Message
	}
	kind := KindOf(err)
	if kind == KindInternal {
		return "internal error"
	}
	msg := err.Error()
	for _, s := range []error{kind.sentinel(), ErrInvalidInput} {
		if rest, ok := strings.CutPrefix(msg, s.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
