package errors

import (
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType int

const (
	ErrorTypeConfig ErrorType = iota
	ErrorTypeAdapter
	ErrorTypeNavigation
	ErrorTypeBookkeeping
	ErrorTypeWatcher
)

// String returns a string representation of the error type
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeConfig:
		return "config"
	case ErrorTypeAdapter:
		return "adapter"
	case ErrorTypeNavigation:
		return "navigation"
	case ErrorTypeBookkeeping:
		return "bookkeeping"
	case ErrorTypeWatcher:
		return "watcher"
	default:
		return "unknown"
	}
}

// AppError represents a structured application error
type AppError struct {
	Type      ErrorType
	Operation string
	Path      string
	Message   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s error in %s [%s]: %s", e.Type, e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("%s error in %s: %s", e.Type, e.Operation, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new configuration error. Configuration
// errors are fatal at setup time.
func NewConfigError(operation, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeConfig,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// NewAdapterError creates a new backend I/O error
func NewAdapterError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeAdapter,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// NewNavigationError creates a new navigation refusal
func NewNavigationError(operation, path, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeNavigation,
		Operation: operation,
		Path:      path,
		Message:   message,
	}
}

// NewBookkeepingError creates a new window/buffer bookkeeping anomaly
func NewBookkeepingError(operation, message string) *AppError {
	return &AppError{
		Type:      ErrorTypeBookkeeping,
		Operation: operation,
		Message:   message,
	}
}

// NewWatcherError creates a new watcher error
func NewWatcherError(operation, path, message string, err error) *AppError {
	return &AppError{
		Type:      ErrorTypeWatcher,
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}
