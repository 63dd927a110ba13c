// Package domain defines the core types, ports, and errors of the warehouse client.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConnectionError indicates the backend could not be reached or the
// credentials were rejected.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// EncodingError indicates a value that has no SQL representation.
type EncodingError struct {
	Column  string
	Message string
}

func (e *EncodingError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("encode column %q: %s", e.Column, e.Message)
	}
	return "encode value: " + e.Message
}

// RowError is a single field-level error reported for a rejected row.
type RowError struct {
	Reason   string
	Location string
	Message  string
}

func (e RowError) String() string {
	if e.Location != "" {
		return fmt.Sprintf("%s:%s (%s)", e.Reason, e.Message, e.Location)
	}
	return e.Reason + ":" + e.Message
}

// FailedRow describes one row the structured insert rejected.
type FailedRow struct {
	Index    int
	InsertID string
	Errors   []RowError
}

// InvalidRowError reports that a structured insert rejected one or more rows.
// Rows holds every failed row; the message names the first one.
type InvalidRowError struct {
	Table string
	Rows  []FailedRow
}

func (e *InvalidRowError) Error() string {
	if len(e.Rows) == 0 {
		return fmt.Sprintf("insert into %s: rows rejected", e.Table)
	}
	first := e.Rows[0]
	msg := fmt.Sprintf("insert into %s: row %d rejected", e.Table, first.Index)
	if len(first.Errors) > 0 {
		msg += ": " + first.Errors[0].String()
	}
	if n := len(e.Rows) - 1; n > 0 {
		msg += fmt.Sprintf(" (and %d more failed rows)", n)
	}
	return msg
}

// FirstError returns the first field error of the first failed row.
func (e *InvalidRowError) FirstError() (RowError, bool) {
	for _, r := range e.Rows {
		if len(r.Errors) > 0 {
			return r.Errors[0], true
		}
	}
	return RowError{}, false
}

// ExistenceCheckError indicates the upsert pre-check query failed.
type ExistenceCheckError struct {
	Table string
	Err   error
}

func (e *ExistenceCheckError) Error() string {
	return fmt.Sprintf("existence check on %s: %v", e.Table, e.Err)
}

func (e *ExistenceCheckError) Unwrap() error { return e.Err }

// QueryExecutionError indicates a SQL job failed or did not complete.
type QueryExecutionError struct {
	SQL string
	Err error
}

func (e *QueryExecutionError) Error() string {
	stmt := e.SQL
	if len(stmt) > 120 {
		stmt = stmt[:120] + "..."
	}
	stmt = strings.Join(strings.Fields(stmt), " ")
	if e.Err == nil {
		return fmt.Sprintf("query did not complete: %s", stmt)
	}
	return fmt.Sprintf("query failed: %v: %s", e.Err, stmt)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConnection creates a ConnectionError wrapping err.
func ErrConnection(err error, format string, args ...interface{}) *ConnectionError {
	return &ConnectionError{Message: fmt.Sprintf(format, args...), Err: err}
}

// ErrEncoding creates an EncodingError for column (may be empty).
func ErrEncoding(column, format string, args ...interface{}) *EncodingError {
	return &EncodingError{Column: column, Message: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// withColumn fills in the column of an *EncodingError that lacks one.
func withColumn(err error, column string) error {
	var enc *EncodingError
	if errors.As(err, &enc) && enc.Column == "" {
		enc.Column = column
	}
	return err
}
