package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Login
	ErrCodeMissingCredentials ErrorCode = "MISSING_CREDENTIALS"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeAccountLocked      ErrorCode = "ACCOUNT_LOCKED"
	ErrCodeAccountDisabled    ErrorCode = "ACCOUNT_DISABLED"

	// Tokens
	ErrCodeNoToken               ErrorCode = "NO_TOKEN"
	ErrCodeMissingToken          ErrorCode = "MISSING_TOKEN"
	ErrCodeInvalidOrExpiredToken ErrorCode = "INVALID_OR_EXPIRED_TOKEN"
	ErrCodeInvalidAccount        ErrorCode = "INVALID_ACCOUNT"
	ErrCodeTokenInvalidated      ErrorCode = "TOKEN_INVALIDATED"

	// Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"

	// Validation
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"

	// Resource
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"

	// Rate Limiting
	ErrCodeTooManyAttempts ErrorCode = "TOO_MANY_ATTEMPTS"

	// Internal
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeStorageFailure ErrorCode = "STORAGE_FAILURE"
)

// AppError is a structured error that can be returned to clients
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	// Status overrides the default HTTP status for Code when non-zero.
	Status int `json:"-"`
	cause  error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithCause adds a cause to the error
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// WithStatus pins the HTTP status for this error instance
func (e *AppError) WithStatus(status int) *AppError {
	e.Status = status
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func MissingCredentials() *AppError {
	return New(ErrCodeMissingCredentials, "Email and password are required")
}

// InvalidCredentials is deliberately identical for unknown emails and wrong passwords.
func InvalidCredentials() *AppError {
	return New(ErrCodeInvalidCredentials, "Invalid credentials")
}

func AccountLocked() *AppError {
	return New(ErrCodeAccountLocked, "Account is temporarily locked due to multiple failed attempts")
}

func AccountDisabled() *AppError {
	return New(ErrCodeAccountDisabled, "Account is disabled")
}

func NoToken() *AppError {
	return New(ErrCodeNoToken, "No token provided")
}

func MissingToken() *AppError {
	return New(ErrCodeMissingToken, "Refresh token not provided")
}

func InvalidOrExpiredToken() *AppError {
	return New(ErrCodeInvalidOrExpiredToken, "Invalid or expired token")
}

func InvalidAccount() *AppError {
	return New(ErrCodeInvalidAccount, "Invalid or inactive admin account")
}

// TokenInvalidated is 401 at the authorization gate and 403 on refresh.
func TokenInvalidated(status int) *AppError {
	return New(ErrCodeTokenInvalidated, "Token has been invalidated").WithStatus(status)
}

func Unauthorized(message string) *AppError {
	return New(ErrCodeUnauthorized, message)
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func ValidationError(message string) *AppError {
	return New(ErrCodeValidation, message)
}

func MissingRequired(field string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("%s is required", field))
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func DuplicateEmail() *AppError {
	return New(ErrCodeDuplicateEmail, "Admin with this email already exists")
}

func TooManyAttempts() *AppError {
	return New(ErrCodeTooManyAttempts, "Too many attempts, try again later")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func StorageFailure(cause error) *AppError {
	return Wrap(ErrCodeStorageFailure, "An unexpected error occurred", cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HTTPStatus maps an error to its HTTP status code.
func HTTPStatus(err error) int {
	appErr, ok := AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	if appErr.Status != 0 {
		return appErr.Status
	}

	switch appErr.Code {
	case ErrCodeMissingCredentials,
		ErrCodeValidation:
		return http.StatusBadRequest

	case ErrCodeInvalidCredentials,
		ErrCodeNoToken,
		ErrCodeMissingToken,
		ErrCodeInvalidOrExpiredToken,
		ErrCodeInvalidAccount,
		ErrCodeTokenInvalidated,
		ErrCodeUnauthorized:
		return http.StatusUnauthorized

	case ErrCodeAccountLocked,
		ErrCodeAccountDisabled,
		ErrCodeForbidden:
		return http.StatusForbidden

	case ErrCodeNotFound:
		return http.StatusNotFound

	case ErrCodeDuplicateEmail:
		return http.StatusConflict

	case ErrCodeTooManyAttempts:
		return http.StatusTooManyRequests

	default:
		return http.StatusInternalServerError
	}
}
