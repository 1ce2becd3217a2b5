package errors

import "fmt"

type ErrorCode string

const (
	ErrInternalServer             ErrorCode = "INTERNAL_SERVER_ERROR"
	ErrInvalidInput               ErrorCode = "INVALID_INPUT"
	ErrInvalidRequestData         ErrorCode = "INVALID_REQUEST_DATA"
	ErrUnauthorized               ErrorCode = "UNAUTHORIZED"
	ErrForbidden                  ErrorCode = "FORBIDDEN"
	ErrNotFound                   ErrorCode = "NOT_FOUND"
	ErrAlreadyExists              ErrorCode = "ALREADY_EXISTS"
	ErrCreateFailed               ErrorCode = "CREATE_FAILED"
	ErrGetFailed                  ErrorCode = "GET_FAILED"
	ErrUpdateFailed               ErrorCode = "UPDATE_FAILED"
	ErrTokenExpired               ErrorCode = "TOKEN_EXPIRED"
	ErrInvalidTokenFormat         ErrorCode = "INVALID_TOKEN_FORMAT"
	ErrMissingAuthorizationHeader ErrorCode = "MISSING_AUTHORIZATION_HEADER"
)

// Color slot resolver taxonomy. LockTimeout and StoreUnavailable are
// retryable infrastructure failures; Configuration and NoCapacity require
// operator intervention and must never be retried or papered over with a
// fallback slot.
const (
	ErrConfiguration    ErrorCode = "CONFIGURATION_ERROR"
	ErrLockTimeout      ErrorCode = "LOCK_TIMEOUT"
	ErrStoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	ErrNoCapacity       ErrorCode = "NO_CAPACITY"
)

type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the caller may retry the failed operation.
func IsRetryable(e *AppError) bool {
	if e == nil {
		return false
	}
	return e.Code == ErrLockTimeout || e.Code == ErrStoreUnavailable
}
