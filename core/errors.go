package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Catalog/cart errors
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
	ErrCartItemNotFound     = errors.New("cart item not found")

	// Order errors
	ErrOrderNotFound        = errors.New("order not found")
	ErrInvalidStatusChange  = errors.New("invalid order status change")
	ErrSimulationAlreadyRan = errors.New("status simulation already ran")

	// Chat errors
	ErrTurnInFlight    = errors.New("chat turn already in flight")
	ErrEmptyMessage    = errors.New("empty message")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrInvalidToolArgs = errors.New("invalid tool arguments")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// Operation errors
	ErrTimeout            = errors.New("operation timeout")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")

	// HTTP/Network errors
	ErrConnectionFailed = errors.New("connection failed")
	ErrRequestFailed    = errors.New("request failed")
)

// StoreError provides structured error information with context.
// It implements the error interface and supports error wrapping.
type StoreError struct {
	Op      string // Operation that failed (e.g., "catalog.Update")
	Kind    string // Error kind (e.g., "catalog", "chat", "genai")
	ID      string // Optional ID of the entity involved
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *StoreError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(op, kind string, err error) *StoreError {
	return &StoreError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// IsRetryable checks if an error is retryable.
// Retryable errors are typically transient network or availability issues.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrRequestFailed)
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCartItemNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}
