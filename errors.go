package sanction

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// ErrorCategory represents the category of an error for handling decisions.
type ErrorCategory string

const (
	ErrorCategoryNetwork    ErrorCategory = "network"    // Network connectivity issues
	ErrorCategoryRateLimit  ErrorCategory = "rate_limit" // Rate limiting
	ErrorCategoryNotFound   ErrorCategory = "not_found"  // Target already gone
	ErrorCategoryAuth       ErrorCategory = "auth"       // Missing permission or bad token
	ErrorCategoryConfig     ErrorCategory = "config"     // Configuration issues
	ErrorCategoryValidation ErrorCategory = "validation" // Input validation
	ErrorCategoryStore      ErrorCategory = "store"      // Violation store
	ErrorCategoryPlatform   ErrorCategory = "platform"   // Chat platform API
	ErrorCategoryInternal   ErrorCategory = "internal"   // Internal errors
)

// Common errors
var (
	ErrStoreNotConfigured = errors.New("sanction: store not configured")
	ErrViolationNotFound  = errors.New("sanction: violation not found")
	ErrAlreadyExpired     = errors.New("sanction: violation already expired")
	ErrCouldNotMap        = errors.New("sanction: could not map categories")
	ErrLockNotAcquired    = errors.New("sanction: lock not acquired")
	ErrTimeout            = errors.New("sanction: operation timeout")
	ErrRateLimited        = errors.New("sanction: rate limited by platform")

	// Config errors
	ErrMissingConfig = errors.New("sanction: missing required configuration")
	ErrInvalidConfig = errors.New("sanction: invalid configuration")
)

// PlatformError represents an error from the chat platform API.
type PlatformError struct {
	Platform   string        // Platform name (discord)
	Operation  string        // delete_message, send_message
	Code       int           // Platform error code, if any
	Message    string        // Error message
	StatusCode int           // HTTP status code if applicable
	Category   ErrorCategory // Error category for handling
	Retryable  bool          // Whether this error is retryable
	RetryAfter time.Duration // Platform-requested wait before retrying
	Err        error         // Underlying error
}

func (e *PlatformError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("sanction: %s %s failed [%d/%d]: %s", e.Platform, e.Operation, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("sanction: %s %s failed: %s", e.Platform, e.Operation, e.Message)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// NewPlatformError creates a new platform error.
func NewPlatformError(platform, operation, message string) *PlatformError {
	pe := &PlatformError{
		Platform:  platform,
		Operation: operation,
		Message:   message,
		Category:  ErrorCategoryPlatform,
	}
	pe.Retryable = pe.isRetryable()
	return pe
}

// WithStatusCode sets the HTTP status code.
func (e *PlatformError) WithStatusCode(code int) *PlatformError {
	e.StatusCode = code
	e.Category = categorizeByStatusCode(code)
	e.Retryable = e.isRetryable()
	return e
}

// WithCategory sets the error category.
func (e *PlatformError) WithCategory(cat ErrorCategory) *PlatformError {
	e.Category = cat
	e.Retryable = e.isRetryable()
	return e
}

// WithCode sets the platform-specific error code.
func (e *PlatformError) WithCode(code int) *PlatformError {
	e.Code = code
	return e
}

// WithRetryAfter records the wait the platform asked for and marks the error rate limited.
func (e *PlatformError) WithRetryAfter(d time.Duration) *PlatformError {
	e.RetryAfter = d
	e.Category = ErrorCategoryRateLimit
	e.Retryable = true
	return e
}

// WithCause sets the underlying error.
func (e *PlatformError) WithCause(err error) *PlatformError {
	e.Err = err
	return e
}

func (e *PlatformError) isRetryable() bool {
	switch e.Category {
	case ErrorCategoryNetwork, ErrorCategoryRateLimit:
		return true
	case ErrorCategoryNotFound, ErrorCategoryAuth:
		return false
	}
	switch e.StatusCode {
	case 429, 500, 502, 503, 504:
		return true
	}
	return false
}

func categorizeByStatusCode(code int) ErrorCategory {
	switch {
	case code == 401 || code == 403:
		return ErrorCategoryAuth
	case code == 404:
		return ErrorCategoryNotFound
	case code == 429:
		return ErrorCategoryRateLimit
	case code >= 500:
		return ErrorCategoryInternal
	default:
		return ErrorCategoryPlatform
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string // Field that failed validation
	Message string // Validation error message
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sanction: validation error on %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// StoreError represents a database/store error.
type StoreError struct {
	Operation string // Operation that failed (create, update, query)
	Table     string // Table/collection name
	Err       error  // Underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("sanction: store error during %s on %s: %v", e.Operation, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new store error.
func NewStoreError(operation, table string, err error) *StoreError {
	return &StoreError{
		Operation: operation,
		Table:     table,
		Err:       err,
	}
}

// IsPlatformError checks if an error is a platform error.
func IsPlatformError(err error) bool {
	var pe *PlatformError
	return errors.As(err, &pe)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStoreError checks if an error is a store error.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsNotFound reports whether err means the target no longer exists.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrViolationNotFound) {
		return true
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Category == ErrorCategoryNotFound
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) {
		return true
	}

	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Retryable
	}

	return IsNetworkError(err)
}

// RetryAfter returns the platform-requested wait carried by err, or zero.
func RetryAfter(err error) time.Duration {
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

// IsNetworkError checks if an error is a network-related error.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"dial tcp",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}

	return false
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Category
	}
	if IsStoreError(err) {
		return ErrorCategoryStore
	}
	if IsNetworkError(err) {
		return ErrorCategoryNetwork
	}
	if errors.Is(err, ErrRateLimited) {
		return ErrorCategoryRateLimit
	}
	if errors.Is(err, ErrViolationNotFound) {
		return ErrorCategoryNotFound
	}
	if errors.Is(err, ErrMissingConfig) || errors.Is(err, ErrInvalidConfig) {
		return ErrorCategoryConfig
	}
	if IsValidationError(err) {
		return ErrorCategoryValidation
	}

	return ErrorCategoryInternal
}
