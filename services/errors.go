package services

import (
	"fmt"
	"strings"
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects malformed input before any storage or messaging
// work happens. Always client-fixable.
type ValidationError struct {
	Details []FieldError
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		fields = append(fields, d.Field)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// StorageUnavailableError signals the database could not serve the request.
// Distinct from validation failure so callers can apply backoff.
type StorageUnavailableError struct {
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// MessagingError signals a publish or subscribe against the broker failed.
type MessagingError struct {
	Err error
}

func (e *MessagingError) Error() string {
	return fmt.Sprintf("messaging failure: %v", e.Err)
}

func (e *MessagingError) Unwrap() error {
	return e.Err
}
