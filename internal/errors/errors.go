// Package errors defines the error taxonomy shared by the schema compiler and its sources.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrTypeDuplicateName     ErrorType = "duplicate_name"
	ErrTypeDanglingReference ErrorType = "dangling_reference"
	ErrTypeIDExhausted       ErrorType = "id_exhausted"
	ErrTypeValidation        ErrorType = "validation"
	ErrTypeInput             ErrorType = "input"
	ErrTypeInternal          ErrorType = "internal"
)

// Error represents a structured error with a type and an optional cause
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new structured error
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
	}
}

// Newf creates a new structured error with formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with formatted message
func Wrapf(err error, errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type == errType
	}

	return false
}

// GetType returns the error type if it's a structured error
func GetType(err error) ErrorType {
	var structErr *Error
	if errors.As(err, &structErr) {
		return structErr.Type
	}

	return ErrTypeInternal
}

// IsValidation reports whether err means the input model is malformed.
// Duplicate names, dangling references and exhausted id allocation all count.
func IsValidation(err error) bool {
	switch GetType(err) {
	case ErrTypeValidation, ErrTypeDuplicateName, ErrTypeDanglingReference, ErrTypeIDExhausted:
		return true
	default:
		return false
	}
}

// NewDuplicateName reports two tables, or two fields of one table, sharing a name.
// An empty table means the duplicate is a table name.
func NewDuplicateName(table, name string) *Error {
	if table == "" {
		return Newf(ErrTypeDuplicateName, "duplicate table name %q", name)
	}

	return Newf(ErrTypeDuplicateName, "duplicate field name %q in table %q", name, table)
}

// NewDanglingReference reports a reference to a table or field that does not exist.
func NewDanglingReference(owner, table, field string) *Error {
	if field == "" {
		return Newf(ErrTypeDanglingReference, "%s references unknown table %q", owner, table)
	}

	return Newf(ErrTypeDanglingReference, "%s references unknown field %q.%q", owner, table, field)
}

// NewIDExhausted reports that no free identifier was found within the retry budget.
func NewIDExhausted(attempts int) *Error {
	return Newf(ErrTypeIDExhausted, "no free identifier after %d attempts", attempts)
}

// NewValidation creates a validation error
func NewValidation(format string, args ...interface{}) *Error {
	return Newf(ErrTypeValidation, format, args...)
}
