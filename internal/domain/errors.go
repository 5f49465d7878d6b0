// Package domain defines core types, interfaces, and errors for the curation pipeline.
package domain

import "fmt"

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

// ConflictError indicates a conflict (e.g., duplicate resource).
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// SourceUnavailableError indicates an upstream API could not be reached
// (timeout, non-2xx status, connection failure).
type SourceUnavailableError struct {
	Message string
}

func (e *SourceUnavailableError) Error() string { return e.Message }

// ParseError indicates a malformed upstream payload.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string { return e.Message }

// DocumentationBackendError indicates a failed model call in the documenter.
type DocumentationBackendError struct {
	Message string
}

func (e *DocumentationBackendError) Error() string { return e.Message }

// PersistenceError indicates the queue file or a dataset file could not be
// read or written. Recoverable: in-memory operation continues.
type PersistenceError struct {
	Message string
}

func (e *PersistenceError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrSourceUnavailable creates a SourceUnavailableError with a formatted message.
func ErrSourceUnavailable(format string, args ...interface{}) *SourceUnavailableError {
	return &SourceUnavailableError{Message: fmt.Sprintf(format, args...)}
}

// ErrParse creates a ParseError with a formatted message.
func ErrParse(format string, args ...interface{}) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...)}
}

// ErrDocumentationBackend creates a DocumentationBackendError with a formatted message.
func ErrDocumentationBackend(format string, args ...interface{}) *DocumentationBackendError {
	return &DocumentationBackendError{Message: fmt.Sprintf(format, args...)}
}

// ErrPersistence creates a PersistenceError with a formatted message.
func ErrPersistence(format string, args ...interface{}) *PersistenceError {
	return &PersistenceError{Message: fmt.Sprintf(format, args...)}
}
