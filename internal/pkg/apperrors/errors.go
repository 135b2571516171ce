package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrInvalidFormat      = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Lifecycle errors
var (
	// ErrInvalidStateTransition is returned when a requested move is not
	// adjacent to the current state or the acting role may not perform it.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrWriteConflict means the persisted precondition (status, is_used)
	// changed between read and write. Callers should re-read before retrying.
	ErrWriteConflict = errors.New("write conflict")

	// ErrAlreadyRated is returned for a second rating on the same request.
	ErrAlreadyRated = errors.New("request already rated")
)

// Activation errors
var (
	ErrCourseMismatch       = errors.New("course does not match enrollment key")
	ErrConflictOwnedByOther = errors.New("enrollment key already claimed by another account")
	ErrKeyNotFound          = errors.New("enrollment key not found")
	ErrNotEligible          = errors.New("application is not eligible for activation")
)

// ErrDownstreamNotification is never returned as an operation failure; it is
// attached to results as a warning when a notification could not be sent.
var ErrDownstreamNotification = errors.New("notification could not be delivered")

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewWriteConflictError reports a lost-update race on the named record.
func NewWriteConflictError(message string) error {
	return &CustomError{
		Err:     ErrWriteConflict,
		Message: message,
		Code:    "WRITE_CONFLICT",
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError wraps ErrValidationFailed with a field-level message.
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// NewTransitionError wraps ErrInvalidStateTransition with the typed reason
// produced by the lifecycle validator.
func NewTransitionError(reason, message string) error {
	return &CustomError{
		Err:     ErrInvalidStateTransition,
		Message: message,
		Code:    reason,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}

// CodeOf returns the Code of the outermost CustomError in err's chain.
func CodeOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
