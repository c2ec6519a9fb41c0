// Package errors provides unified error handling for the scenario engine.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/R3E-Network/scenario-engine/internal/taxonomy"
)

// ErrorCode represents a unique error code.
type ErrorCode string

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized     ErrorCode = "AUTH_1001"
	ErrCodeInvalidSignature ErrorCode = "AUTH_1004"

	// Validation errors (3xxx)
	ErrCodeInvalidInput     ErrorCode = "VAL_3001"
	ErrCodeMissingParameter ErrorCode = "VAL_3002"

	// Resource errors (4xxx)
	ErrCodeNotFound ErrorCode = "RES_4001"

	// Service errors (5xxx)
	ErrCodeInternal          ErrorCode = "SVC_5001"
	ErrCodeExternalAPI       ErrorCode = "SVC_5004"
	ErrCodeTimeout           ErrorCode = "SVC_5005"
	ErrCodeRateLimitExceeded ErrorCode = "SVC_5006"
	ErrCodeServiceDown       ErrorCode = "SVC_5007"
	ErrCodeNoConnection      ErrorCode = "SVC_5008"

	// Cryptographic errors (6xxx) — signature path only, no TEE concept here
	ErrCodeSigningFailed      ErrorCode = "CRYPTO_6003"
	ErrCodeVerificationFailed ErrorCode = "CRYPTO_6004"

	// Scenario engine errors (8xxx)
	ErrCodeMissingMethod     ErrorCode = "SCN_8001"
	ErrCodeConfigurationLoop ErrorCode = "SCN_8002"
	ErrCodeEventTimeout      ErrorCode = "SCN_8003"
	ErrCodeUnknownClass      ErrorCode = "SCN_8004"
)

// ServiceError represents a structured error with code, message, and HTTP status.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
	// Status carries the taxonomy classification (§4.6) for errors that
	// originate from a provider response, so a single value answers both
	// "what HTTP-ish status" and "what retry bucket".
	Status taxonomy.Status `json:"status,omitempty"`
}

// WithStatus attaches a taxonomy status to the error.
func (e *ServiceError) WithStatus(status taxonomy.Status) *ServiceError {
	e.Status = status
	return e
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WithDetails adds additional details to the error.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new ServiceError.
func New(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error with a ServiceError.
func Wrap(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Authentication errors

func Unauthorized(message string) *ServiceError {
	return New(ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func InvalidSignature(err error) *ServiceError {
	return Wrap(ErrCodeInvalidSignature, "invalid signature", http.StatusUnauthorized, err)
}

// Validation errors

func InvalidInput(field, reason string) *ServiceError {
	return New(ErrCodeInvalidInput, "invalid input", http.StatusBadRequest).
		WithDetails("field", field).
		WithDetails("reason", reason)
}

func MissingParameter(param string) *ServiceError {
	return New(ErrCodeMissingParameter, "missing required parameter", http.StatusBadRequest).
		WithDetails("parameter", param)
}

// Resource errors

func NotFound(resource, id string) *ServiceError {
	return New(ErrCodeNotFound, "resource not found", http.StatusNotFound).
		WithDetails("resource", resource).
		WithDetails("id", id)
}

// Service errors

func Internal(message string, err error) *ServiceError {
	return Wrap(ErrCodeInternal, message, http.StatusInternalServerError, err)
}

func ExternalAPIError(service string, err error) *ServiceError {
	return Wrap(ErrCodeExternalAPI, "external API call failed", http.StatusBadGateway, err).
		WithDetails("service", service)
}

func Timeout(operation string) *ServiceError {
	return New(ErrCodeTimeout, "operation timed out", http.StatusGatewayTimeout).
		WithDetails("operation", operation)
}

func RateLimitExceeded(limit int, window string) *ServiceError {
	return New(ErrCodeRateLimitExceeded, "rate limit exceeded", http.StatusTooManyRequests).
		WithDetails("limit", limit).
		WithDetails("window", window)
}

func ServiceDown(service string) *ServiceError {
	return New(ErrCodeServiceDown, "service unavailable", http.StatusServiceUnavailable).
		WithDetails("service", service)
}

func NoConnection(reason string) *ServiceError {
	return New(ErrCodeNoConnection, "no connection", http.StatusServiceUnavailable).
		WithDetails("reason", reason)
}

// Cryptographic errors

func SigningFailed(err error) *ServiceError {
	return Wrap(ErrCodeSigningFailed, "signing failed", http.StatusInternalServerError, err)
}

func VerificationFailed(err error) *ServiceError {
	return Wrap(ErrCodeVerificationFailed, "verification failed", http.StatusUnauthorized, err)
}

// Scenario engine errors

// MissingMethod is returned by the registry when a target method does not
// exist on the resolved instance. Carries both the class and method names.
func MissingMethod(className, methodName string) *ServiceError {
	return New(ErrCodeMissingMethod, "target method not found", http.StatusNotFound).
		WithDetails("class", className).
		WithDetails("method", methodName)
}

// ConfigurationError is returned by the registry when a dependency cycle is
// detected while resolving a class's dependency graph.
func ConfigurationError(message string) *ServiceError {
	return New(ErrCodeConfigurationLoop, message, http.StatusInternalServerError)
}

// UnknownClass is returned when no factory is registered for a class name.
func UnknownClass(className string) *ServiceError {
	return New(ErrCodeUnknownClass, "no factory registered for class", http.StatusNotFound).
		WithDetails("class", className)
}

// EventTimeout marks a required event that timed out without being observed.
func EventTimeout(eventName string) *ServiceError {
	return New(ErrCodeEventTimeout, "required event timed out", http.StatusGatewayTimeout).
		WithDetails("event", eventName)
}

// Helper functions

// IsServiceError checks if an error is a ServiceError.
func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

// GetServiceError extracts a ServiceError from an error chain.
func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

// GetHTTPStatus returns the HTTP status code for an error.
func GetHTTPStatus(err error) int {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
