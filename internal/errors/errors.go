// Package errors defines the categorized errors returned by the lookup service
// and how they translate to HTTP responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCategory represents the category of an error
type ErrorCategory string

const (
	// CategoryUserInput represents missing or malformed request input
	CategoryUserInput ErrorCategory = "user_input"
	// CategoryValidation represents request payloads of the wrong shape
	CategoryValidation ErrorCategory = "validation"
	// CategorySystem represents unexpected internal errors (5xx)
	CategorySystem ErrorCategory = "system"
	// CategoryDatabase represents database errors
	CategoryDatabase ErrorCategory = "database"
	// CategoryRateLimit represents rate limit errors
	CategoryRateLimit ErrorCategory = "rate_limit"
)

// Error codes
const (
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeInvalidAddress   = "INVALID_ADDRESS"
	CodeInvalidPayload   = "INVALID_PAYLOAD"
	CodeMalformedBody    = "MALFORMED_BODY"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeRateLimited      = "RATE_LIMIT_EXCEEDED"
)

// CategorizedError represents an error with category and HTTP status code.
// Message is safe to send to the caller; Cause never is.
type CategorizedError struct {
	Category   ErrorCategory
	StatusCode int
	Code       string
	Message    string
	Details    map[string]interface{}
	Cause      error
}

// Error implements the error interface
func (e *CategorizedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *CategorizedError) Unwrap() error {
	return e.Cause
}

// IsClientError reports whether the error was caused by the caller's input
func (e *CategorizedError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// User Input Errors (401)

// NewMissingParameterError creates an error for an absent required parameter
func NewMissingParameterError(param string, message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeMissingParameter,
		Message:    message,
		Details: map[string]interface{}{
			"parameter": param,
		},
	}
}

// NewInvalidAddressError creates an invalid address error
func NewInvalidAddressError(address string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryUserInput,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidAddress,
		Message:    "The XRPL address provided is not a valid classic address. Please check the address and try again.",
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// NewInvalidPayloadError creates an error for a payload property of the wrong shape
func NewInvalidPayloadError(property string, message string) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusUnauthorized,
		Code:       CodeInvalidPayload,
		Message:    message,
		Details: map[string]interface{}{
			"property": property,
		},
	}
}

// NewMalformedBodyError creates an error for a body that could not be parsed at all
func NewMalformedBodyError(cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryValidation,
		StatusCode: http.StatusBadRequest,
		Code:       CodeMalformedBody,
		Message:    "Bad Request",
		Cause:      cause,
	}
}

// NewRateLimitError creates a rate limit error
func NewRateLimitError(retryAfterSeconds int) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryRateLimit,
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeRateLimited,
		Message:    "Too many requests, please try again later.",
		Details: map[string]interface{}{
			"retryAfter": retryAfterSeconds,
		},
	}
}

// System Errors (5xx)

// NewInternalError creates an internal server error
func NewInternalError(message string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategorySystem,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternalError,
		Message:    message,
		Cause:      cause,
	}
}

// NewDatabaseError creates a database error. The message names only the database.
func NewDatabaseError(database string, cause error) *CategorizedError {
	return &CategorizedError{
		Category:   CategoryDatabase,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeDatabaseError,
		Message:    fmt.Sprintf("Problem querying %s database!", database),
		Cause:      cause,
		Details: map[string]interface{}{
			"database": database,
		},
	}
}

// Categorize categorizes an existing error
func Categorize(err error) *CategorizedError {
	if err == nil {
		return nil
	}

	var catErr *CategorizedError
	if stderrors.As(err, &catErr) {
		return catErr
	}

	return NewInternalError("An internal server error occurred", err)
}
