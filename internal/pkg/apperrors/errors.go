package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("invalid token")
	ErrInvalidFormat = errors.New("invalid token format")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Poll errors
var (
	ErrAlreadyVoted   = errors.New("user has already voted on this poll")
	ErrOptionNotFound = errors.New("option not found in poll")
)

// Thread errors
var (
	ErrPartialCascade = errors.New("fan-out update failed part way")
	ErrThreadTooDeep  = errors.New("thread exceeds maximum depth")
)

// Entity kinds reported by NotFoundError
const (
	KindAuthor    = "Author"
	KindUser      = "User"
	KindCommunity = "Community"
	KindPost      = "Post"
	KindEvent     = "Event"
	KindPoll      = "Poll"
	KindParent    = "Parent"
	KindOption    = "Option"
)

// NotFoundError reports a referenced document that does not exist.
type NotFoundError struct {
	Kind string
	Key  string
}

// NotFound creates a NotFoundError for the given kind and lookup key
func NotFound(kind, key string) error {
	return &NotFoundError{Kind: kind, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", strings.ToLower(e.Kind))
	}
	return fmt.Sprintf("%s %q not found", strings.ToLower(e.Kind), e.Key)
}

// Is lets errors.Is match both the generic sentinel and, for options, ErrOptionNotFound.
func (e *NotFoundError) Is(target error) bool {
	if target == ErrResourceNotFound {
		return true
	}
	return e.Kind == KindOption && target == ErrOptionNotFound
}

// IsNotFoundKind reports whether err is a NotFoundError of the given kind
func IsNotFoundKind(err error, kind string) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) && nf.Kind == kind
}

// FanOutError reports a multi-document operation that failed at a named step.
// Completed lists the steps that had already run; when RolledBack is false
// those steps may have been committed.
type FanOutError struct {
	Op         string
	Step       string
	Completed  []string
	RolledBack bool
	Err        error
}

func (e *FanOutError) Error() string {
	state := "rolled back"
	if !e.RolledBack {
		state = "possibly partially applied"
	}
	return fmt.Sprintf("%s failed at step %q after %v (%s): %v", e.Op, e.Step, e.Completed, state, e.Err)
}

func (e *FanOutError) Unwrap() error {
	return e.Err
}

func (e *FanOutError) Is(target error) bool {
	return target == ErrPartialCascade
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

// NewValidationError creates a validation failure with a message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
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

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
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
