package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is a structured error with category, kind, severity and context.
type ClassifiedError struct {
	category ErrorCategory
	kind     ErrorKind
	severity ErrorSeverity
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	label := string(e.category)
	if e.kind != KindNone {
		label += ":" + string(e.kind)
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", label, e.message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", label, e.message)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory {
	return e.category
}

// Kind returns the specific error kind.
func (e *ClassifiedError) Kind() ErrorKind {
	return e.kind
}

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity {
	return e.severity
}

// Message returns the error message without the cause.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Cause returns the underlying error.
func (e *ClassifiedError) Cause() error {
	return e.cause
}

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

// WithContext returns a copy of the error with an extra context value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	cp := *e
	cp.context = ErrorContext{}.Merge(e.context).Set(key, value)
	return &cp
}

// Is matches another ClassifiedError with the same category and kind.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.kind == other.kind && (other.message == "" || e.message == other.message)
	}
	return false
}

// IsFatal reports whether the error should stop the whole build.
func (e *ClassifiedError) IsFatal() bool {
	return e.severity == SeverityFatal
}

// AsClassified finds the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// IsClassified checks if an error chain contains a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory checks if the error chain carries the given category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.category == category
	}
	return false
}

// HasKind checks if the error chain carries the given kind.
func HasKind(err error, kind ErrorKind) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.kind == kind
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}

// GetKind extracts the kind from an error, or returns KindNone.
func GetKind(err error) ErrorKind {
	if classified, ok := AsClassified(err); ok {
		return classified.kind
	}
	return KindNone
}
