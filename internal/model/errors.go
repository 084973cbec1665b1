package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrConfiguration  = errors.New("configuration error")
	ErrRemoteAPI      = errors.New("remote api error")
	ErrEmptyWorklist  = errors.New("empty worklist")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"` // HTTP status, not serialized
	Err        error  `json:"-"` // Wrapped error, not serialized
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// RemoteAPIError carries the upstream status and raw body of a failed
// WooCommerce call. StatusCode is 0 for transport faults.
type RemoteAPIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *RemoteAPIError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("WooCommerce API error: %d - %s", e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("unexpected error calling WooCommerce: %v", e.Err)
	default:
		return "unexpected error calling WooCommerce"
	}
}

func (e *RemoteAPIError) Unwrap() error {
	return e.Err
}

// Is reports RemoteAPIError as ErrRemoteAPI.
func (e *RemoteAPIError) Is(target error) bool {
	return target == ErrRemoteAPI
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: http.StatusBadRequest,
		Err:        ErrInvalidRequest,
	}
}

// NewConfigurationError reports a required setting that is missing or blank.
func NewConfigurationError(setting string) *APIError {
	return &APIError{
		Code:       "CONFIGURATION_ERROR",
		Message:    fmt.Sprintf("config error: %s not set", setting),
		StatusCode: http.StatusInternalServerError,
		Err:        ErrConfiguration,
	}
}

// NewRemoteAPIError creates a 502 error for a failed order listing.
// Pass status 0 and the cause for transport faults.
func NewRemoteAPIError(status int, body string, err error) *APIError {
	return &APIError{
		Code:       "REMOTE_API_ERROR",
		Message:    "WooCommerce request failed",
		StatusCode: http.StatusBadGateway,
		Err:        &RemoteAPIError{StatusCode: status, Body: body, Err: err},
	}
}

// NewEmptyWorklistError signals that no order needs a document.
func NewEmptyWorklistError() *APIError {
	return &APIError{
		Code:       "EMPTY_WORKLIST",
		Message:    "no orders without track & trace found",
		StatusCode: http.StatusInternalServerError,
		Err:        ErrEmptyWorklist,
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}
