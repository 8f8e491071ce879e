package utils

import (
	"errors"
	"fmt"
)

// Exit codes
const (
	ExitSuccess = 0
	// Auth errors (10-19)
	ExitNotConnected        = 10
	ExitAuthExpired         = 11
	ExitInvalidState        = 12
	ExitMissingRefreshToken = 13
	// Remote operation errors (20-29)
	ExitNotFound         = 20
	ExitNotAFolder       = 21
	ExitPermissionDenied = 22
	// Network errors (30-39)
	ExitNetworkError = 30
	ExitCancelled    = 31
	// Validation errors (40-49)
	ExitInvalidArgument = 40
	// Startup errors (50-59)
	ExitConfigError = 50
	// Unknown
	ExitUnknown = 99
)

// Error codes (stable, caller-facing)
const (
	ErrCodeConfigError         = "CONFIG_ERROR"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeMissingRefreshToken = "MISSING_REFRESH_TOKEN"
	ErrCodeNotConnected        = "NOT_CONNECTED"
	ErrCodeAuthExpired         = "AUTH_EXPIRED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeNotAFolder          = "NOT_A_FOLDER"
	ErrCodeNetworkError        = "NETWORK_ERROR"
	ErrCodePermissionDenied    = "PERMISSION_DENIED"
	ErrCodeInvalidArgument     = "INVALID_ARGUMENT"
	ErrCodeCancelled           = "CANCELLED"
	ErrCodeUnknown             = "UNKNOWN"
)

// OpError carries the typed failure information for one operation
type OpError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"httpStatus,omitempty"`
	Retryable  bool                   `json:"retryable,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// AppError is the error type returned by every component in this core.
// Only CONFIG_ERROR is treated as process-fatal by callers; everything
// else is a typed, recoverable failure.
type AppError struct {
	OpError OpError
	cause   error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.OpError.Code, e.OpError.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

// NewAppError creates an AppError from an OpError
func NewAppError(opErr OpError) *AppError {
	return &AppError{OpError: opErr}
}

// OpErrorBuilder helps construct OpError instances
type OpErrorBuilder struct {
	err   OpError
	cause error
}

// NewOpError creates a new error builder
func NewOpError(code, message string) *OpErrorBuilder {
	return &OpErrorBuilder{
		err: OpError{
			Code:    code,
			Message: message,
		},
	}
}

func (b *OpErrorBuilder) WithHTTPStatus(status int) *OpErrorBuilder {
	b.err.HTTPStatus = status
	return b
}

func (b *OpErrorBuilder) WithRetryable(retryable bool) *OpErrorBuilder {
	b.err.Retryable = retryable
	return b
}

func (b *OpErrorBuilder) WithContext(key string, value interface{}) *OpErrorBuilder {
	if b.err.Context == nil {
		b.err.Context = make(map[string]interface{})
	}
	b.err.Context[key] = value
	return b
}

func (b *OpErrorBuilder) WithCause(err error) *OpErrorBuilder {
	b.cause = err
	return b
}

// Err builds the AppError
func (b *OpErrorBuilder) Err() *AppError {
	return &AppError{OpError: b.err, cause: b.cause}
}

// CodeOf extracts the error code from an error, or UNKNOWN
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.OpError.Code
	}
	return ErrCodeUnknown
}

// IsCode reports whether the error carries the given code
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.OpError.Code == code
	}
	return false
}

// GetExitCode returns the exit code for an error code
func GetExitCode(errorCode string) int {
	mapping := map[string]int{
		ErrCodeConfigError:         ExitConfigError,
		ErrCodeInvalidState:        ExitInvalidState,
		ErrCodeMissingRefreshToken: ExitMissingRefreshToken,
		ErrCodeNotConnected:        ExitNotConnected,
		ErrCodeAuthExpired:         ExitAuthExpired,
		ErrCodeNotFound:            ExitNotFound,
		ErrCodeNotAFolder:          ExitNotAFolder,
		ErrCodeNetworkError:        ExitNetworkError,
		ErrCodeCancelled:           ExitCancelled,
		ErrCodePermissionDenied:    ExitPermissionDenied,
		ErrCodeInvalidArgument:     ExitInvalidArgument,
	}
	if code, ok := mapping[errorCode]; ok {
		return code
	}
	return ExitUnknown
}
