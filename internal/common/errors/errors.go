// Package errors provides the standardized error taxonomy for the search
// orchestration engine: validation errors short-circuit a turn before any
// search, transient provider errors degrade to empty partial results, and
// permanent provider errors disable a source for the process run.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeEmptyMessage      ErrorCode = "EMPTY_MESSAGE"
	ErrCodeInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrCodeProviderTimeout   ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderRateLimit ErrorCode = "PROVIDER_RATE_LIMITED"
	ErrCodeProviderAuth      ErrorCode = "PROVIDER_AUTH_FAILED"
	ErrCodeProviderBadData   ErrorCode = "PROVIDER_BAD_PAYLOAD"
	ErrCodeLocalQueryFailed  ErrorCode = "LOCAL_QUERY_FAILED"
	ErrCodeCacheUnavailable  ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeSessionStore      ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeComposeFailed     ErrorCode = "COMPOSE_FAILED"
	ErrCodeComposeTimeout    ErrorCode = "COMPOSE_TIMEOUT"
)

// Class splits failures into the tiers the orchestrator reacts to.
type Class int

const (
	ClassValidation Class = iota
	ClassTransient
	ClassPermanent
)

// StandardError is the structured application error used at every boundary.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Class     Class                  `json:"-"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewEmptyMessageError rejects empty or whitespace-only turn input.
func NewEmptyMessageError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyMessage,
		Class:     ClassValidation,
		Message:   "Message is empty or whitespace-only",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Class:     ClassValidation,
		Message:   "Turn input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a transient timeout error; the adapter
// converts it to an empty sub-result with a warning, never a fatal error.
func NewProviderTimeoutError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Class:     ClassTransient,
		Message:   fmt.Sprintf("Provider '%s' timed out", provider),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderRateLimitError creates a transient rate-limit error.
func NewProviderRateLimitError(provider string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderRateLimit,
		Class:     ClassTransient,
		Message:   fmt.Sprintf("Provider '%s' rate limited the request", provider),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderAuthError creates a permanent credentials/config error. The
// external adapter disables the source for the remainder of the process.
func NewProviderAuthError(provider string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderAuth,
		Class:     ClassPermanent,
		Message:   fmt.Sprintf("Provider '%s' rejected credentials", provider),
		Details:   errDetails(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderBadPayloadError creates a transient malformed-payload error.
func NewProviderBadPayloadError(provider, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderBadData,
		Class:     ClassTransient,
		Message:   fmt.Sprintf("Provider '%s' returned an invalid payload", provider),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLocalQueryFailedError creates a transient catalog query error. The
// local adapter logs it and degrades to an empty slice.
func NewLocalQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLocalQueryFailed,
		Class:     ClassTransient,
		Message:   "Local catalog query failed",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a transient cache error; callers fall
// through to recomputation.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Class:     ClassTransient,
		Message:   "Cache unavailable",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionStoreError creates a transient context-store error.
func NewSessionStoreError(op string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionStore,
		Class:     ClassTransient,
		Message:   "Conversation context store operation failed",
		Details:   fmt.Sprintf("op: %s, error: %s", op, errDetails(err)),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewComposeTimeoutError creates a transient generative-text timeout.
func NewComposeTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeComposeTimeout,
		Class:     ClassTransient,
		Message:   "Text composition timed out",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewComposeFailedError creates a transient generative-text error.
func NewComposeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeComposeFailed,
		Class:     ClassTransient,
		Message:   "Text composition failed",
		Details:   errDetails(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsValidation reports whether err is a validation error, the only class
// allowed to short-circuit a whole turn.
func IsValidation(err error) bool {
	return classOf(err) == ClassValidation
}

// IsTransient reports whether err degrades to an empty partial result.
func IsTransient(err error) bool {
	return classOf(err) == ClassTransient
}

// IsPermanent reports whether err disables its source for the process run.
func IsPermanent(err error) bool {
	return classOf(err) == ClassPermanent
}

func classOf(err error) Class {
	var se *StandardError
	if errors.As(err, &se) {
		return se.Class
	}
	// Unknown errors degrade and warn rather than abort the turn.
	return ClassTransient
}

// Warning renders an error as a turn-output warning entry.
func Warning(source string, err error) string {
	var se *StandardError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s: %s", source, se.Message)
	}
	return fmt.Sprintf("%s: %s", source, err.Error())
}

// GetErrorCategory returns the coarse category of an error code, used as a
// metrics label.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "PROVIDER"):
		return "PROVIDER"
	case strings.Contains(codeStr, "LOCAL") || strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "SESSION"):
		return "STORAGE"
	case strings.Contains(codeStr, "COMPOSE"):
		return "COMPOSER"
	case strings.Contains(codeStr, "EMPTY") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
