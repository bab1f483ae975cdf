package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents navigation, timeout and transport failures
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeHTTPStatus represents a non-retryable HTTP status from the site
	ErrorTypeHTTPStatus ErrorType = "http_status"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeExtraction represents a document no strategy could extract from
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypePersistence represents transactional store failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeNotification represents a failed alert channel
	ErrorTypeNotification ErrorType = "notification"
	// ErrorTypeScheduler represents a failed scheduled task execution
	ErrorTypeScheduler ErrorType = "scheduler"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// ErrUnavailable reports that an optional capability (a desktop notifier, an
// email transport without credentials) is not present.
var ErrUnavailable = stderrors.New("capability unavailable")

// Error is the typed error shared by every component.
type Error struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeFetch:
		return true
	default:
		return false
	}
}

// New creates a new Error
func New(errType ErrorType, component, message string, err error) *Error {
	return &Error{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewFetch creates a retryable fetch error
func NewFetch(component, message string, err error) *Error {
	return New(ErrorTypeFetch, component, message, err)
}

// NewHTTPStatus creates an error for an unexpected, non-retryable status code
func NewHTTPStatus(component string, status int) *Error {
	return New(ErrorTypeHTTPStatus, component, fmt.Sprintf("unexpected status code %d", status), nil)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *Error {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewExtractionMismatch creates an error for a document that yielded no candidates
func NewExtractionMismatch(component, message string) *Error {
	return New(ErrorTypeExtraction, component, message, nil)
}

// NewPersistence creates a store error for the named operation
func NewPersistence(operation string, err error) *Error {
	return New(ErrorTypePersistence, "store", operation, err)
}

// NewNotification creates an error for a failed alert channel
func NewNotification(channel string, err error) *Error {
	return New(ErrorTypeNotification, channel, "channel failed", err)
}

// NewSchedulerTask creates an error for a failed task run
func NewSchedulerTask(task string, err error) *Error {
	return New(ErrorTypeScheduler, task, "task failed", err)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *Error {
	return New(ErrorTypeCache, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *Error {
	return New(ErrorTypePublisher, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *Error {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *Error {
	return New(ErrorTypeConfiguration, "config", message, err)
}

// IsType reports whether err or anything it wraps is an *Error of type t.
func IsType(err error, t ErrorType) bool {
	var e *Error
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Err
	}
	return false
}

// IsRetryable reports whether err is an *Error that may be retried.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.IsRetryable()
	}
	return false
}
