package usecase

import (
	"errors"
	"strings"
)

// Machine-readable reasons returned to API clients.
const (
	CodeInvalidTransition      = "invalid_transition"
	CodeNotFound               = "not_found"
	CodeUnauthorized           = "unauthorized"
	CodeConcurrentModification = "concurrent_modification"
	CodeUnauthenticated        = "unauthenticated"
	CodeValidation             = "validation_error"
	CodeConflict               = "conflict"
)

var (
	ErrInvalidTransition      = &DomainError{Code: CodeInvalidTransition, Message: "transition not allowed"}
	ErrNotFound               = &DomainError{Code: CodeNotFound, Message: "not found"}
	ErrUnauthorized           = &DomainError{Code: CodeUnauthorized, Message: "not allowed to perform this action"}
	ErrConcurrentModification = &DomainError{Code: CodeConcurrentModification, Message: "resource changed, refetch and retry"}
	ErrUnauthenticated        = &DomainError{Code: CodeUnauthenticated, Message: "authentication required"}
	ErrConflict               = &DomainError{Code: CodeConflict, Message: "already exists"}
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so wrapped or re-worded errors still compare equal to
// the sentinels above.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Retryable reports whether the caller should refetch and try again.
func (e *DomainError) Retryable() bool {
	return e.Code == CodeConcurrentModification
}

func newDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// IsRetryable reports whether err is a domain error the caller may retry.
func IsRetryable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Retryable()
	}
	return false
}

type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

func databaseError(op string, err error) *TechnicalError {
	return &TechnicalError{Code: "DATABASE_ERROR", Message: op, Err: err}
}

// ValidationErrors is returned when an input fails one or more field rules.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (v ValidationErrors) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == CodeValidation
}

// ErrValidation matches any ValidationErrors through errors.Is.
var ErrValidation = &DomainError{Code: CodeValidation, Message: "validation failed"}
