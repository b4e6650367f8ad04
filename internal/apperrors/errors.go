package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidType indicates an unsupported transaction type was requested.
var ErrInvalidType = errors.New("invalid transaction type")

// ErrInvalidAmount indicates a non-positive or malformed amount.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrMissingAccount indicates a required account reference was absent from the request.
var ErrMissingAccount = errors.New("missing account")

// ErrUnauthorized indicates the caller is not authenticated.
var ErrUnauthorized = errors.New("not authenticated")

// ErrForbidden indicates the caller is authenticated but not allowed to act here.
var ErrForbidden = errors.New("forbidden")

// ErrAccountUnavailable indicates an account does not exist or is not Active.
var ErrAccountUnavailable = errors.New("account unavailable")

// ErrInsufficientFunds indicates a debit would exceed the source balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrInvalidState indicates a lifecycle transition was attempted on an entry
// whose current status does not allow it.
var ErrInvalidState = errors.New("invalid transaction state")

// ErrStorage indicates the backing store failed or was unreachable.
var ErrStorage = errors.New("storage failure")

// AppError carries an HTTP-ish status code alongside a message and an
// optional wrapped cause. Repositories use it to surface storage failures
// without losing the underlying driver error.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// NewStorageError wraps a driver-level failure so that callers can match it
// with errors.Is(err, ErrStorage).
func NewStorageError(message string, err error) *AppError {
	if err == nil {
		return &AppError{Code: 500, Message: message, Err: ErrStorage}
	}
	return &AppError{Code: 500, Message: message, Err: fmt.Errorf("%w: %w", ErrStorage, err)}
}

// NewNotFoundError creates an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}
