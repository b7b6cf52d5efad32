package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("already exists")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrWebhookNotConfigured means no endpoint URL could be resolved for an
	// action. No network call was attempted.
	ErrWebhookNotConfigured = errors.New("webhook not configured")

	// ErrWebhookFailed means the endpoint was called and the call failed
	// (transport error or non-2xx status). Never retried.
	ErrWebhookFailed = errors.New("webhook call failed")
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string // Human-readable error message
	ResourceType string // Type of resource (chat_type, settings)
	ResourceID   string // ID of the existing/conflicting resource
}

func (e *ConflictError) Error() string { return e.Message }

func (e *ConflictError) StatusCode() int { return http.StatusConflict }

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// WebhookStatusError is returned when a webhook answers outside 2xx.
type WebhookStatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *WebhookStatusError) Error() string {
	return fmt.Sprintf("webhook responded with status: %d", e.Status)
}

func (e *WebhookStatusError) StatusCode() int { return http.StatusBadGateway }

// Is allows errors.Is() to match against ErrWebhookFailed
func (e *WebhookStatusError) Is(target error) bool {
	return target == ErrWebhookFailed
}
