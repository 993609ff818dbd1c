package world

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of a world operation error.
type ErrorClass string

const (
	// ErrorClassValidation indicates rejected generation parameters.
	// Examples: reserved world IDs, malformed endpoints.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassPrecondition indicates the environment is not ready.
	// Examples: unwritable data root, missing identity or generator.
	ErrorClassPrecondition ErrorClass = "precondition"

	// ErrorClassExecution indicates the external generator failed.
	ErrorClassExecution ErrorClass = "execution"

	// ErrorClassStorage indicates a filesystem or store failure while
	// installing, backing up, or restoring artifacts.
	ErrorClassStorage ErrorClass = "storage"

	// ErrorClassConflict indicates another operation holds the artifact
	// root. Safe to retry once the holder finishes.
	ErrorClassConflict ErrorClass = "conflict"
)

// WorldError represents a classified error with context.
// nolint:revive // WorldError is intentionally named to distinguish from standard errors
type WorldError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Path is the artifact path involved, if applicable.
	Path string `json:"path,omitempty"`

	// Op is the operation being performed when the error occurred.
	Op string `json:"op,omitempty"`

	// Err is the underlying error that caused this error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *WorldError) Error() string {
	if e.Path != "" && e.Op != "" {
		return fmt.Sprintf("[%s] %s (path=%s, op=%s): %s",
			e.Class, e.Message, e.Path, e.Op, e.unwrapMessage())
	}
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s (path=%s): %s",
			e.Class, e.Message, e.Path, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *WorldError) Unwrap() error {
	return e.Err
}

// unwrapMessage returns the error message from the underlying error chain.
func (e *WorldError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *WorldError) Is(target error) bool {
	t, ok := target.(*WorldError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *WorldError {
	return &WorldError{
		Class:   ErrorClassValidation,
		Message: message,
		Err:     err,
	}
}

// NewPreconditionError creates a new precondition error.
func NewPreconditionError(message string, err error) *WorldError {
	return &WorldError{
		Class:   ErrorClassPrecondition,
		Message: message,
		Err:     err,
	}
}

// NewExecutionError creates a new execution error.
func NewExecutionError(message string, err error) *WorldError {
	return &WorldError{
		Class:   ErrorClassExecution,
		Message: message,
		Err:     err,
	}
}

// NewStorageError creates a new storage error.
func NewStorageError(message string, err error) *WorldError {
	return &WorldError{
		Class:   ErrorClassStorage,
		Message: message,
		Err:     err,
	}
}

// NewConflictError creates a new conflict error.
func NewConflictError(message string, err error) *WorldError {
	return &WorldError{
		Class:   ErrorClassConflict,
		Message: message,
		Err:     err,
	}
}

// WithPath adds path context to an error.
func (e *WorldError) WithPath(path string) *WorldError {
	e.Path = path
	return e
}

// WithOp adds operation context to an error.
func (e *WorldError) WithOp(op string) *WorldError {
	e.Op = op
	return e
}

// WithCode adds an error code to an error.
func (e *WorldError) WithCode(code string) *WorldError {
	e.Code = code
	return e
}

// IsValidation returns true if the error is classified as validation.
func IsValidation(err error) bool {
	var e *WorldError
	if errors.As(err, &e) {
		return e.Class == ErrorClassValidation
	}
	return false
}

// IsPrecondition returns true if the error is classified as precondition.
func IsPrecondition(err error) bool {
	var e *WorldError
	if errors.As(err, &e) {
		return e.Class == ErrorClassPrecondition
	}
	return false
}

// IsExecution returns true if the error is classified as execution.
func IsExecution(err error) bool {
	var e *WorldError
	if errors.As(err, &e) {
		return e.Class == ErrorClassExecution
	}
	return false
}

// IsStorage returns true if the error is classified as storage.
func IsStorage(err error) bool {
	var e *WorldError
	if errors.As(err, &e) {
		return e.Class == ErrorClassStorage
	}
	return false
}

// IsConflict returns true if the error is classified as a conflict.
func IsConflict(err error) bool {
	var e *WorldError
	if errors.As(err, &e) {
		return e.Class == ErrorClassConflict
	}
	return false
}

// HasCode returns true if the error carries the given code.
func HasCode(err error, code string) bool {
	var e *WorldError
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// Common error codes.
const (
	ErrCodeReservedID        = "RESERVED_WORLD_ID"
	ErrCodeReservedBirth     = "RESERVED_BIRTH"
	ErrCodeBirthTooOld       = "BIRTH_TOO_OLD"
	ErrCodeNoEndpoints       = "NO_ENDPOINTS"
	ErrCodeBadEndpoint       = "BAD_ENDPOINT"
	ErrCodeConflictingParams = "CONFLICTING_PARAMS"
	ErrCodeMissingParams     = "MISSING_PARAMS"
	ErrCodeMissingIdentity   = "MISSING_IDENTITY"
	ErrCodeMissingGenerator  = "MISSING_GENERATOR"
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeGeneratorFailed   = "GENERATOR_FAILED"
	ErrCodeInstallFailed     = "INSTALL_FAILED"
	ErrCodeNoBackup          = "NO_BACKUP"
	ErrCodeRestoreFailed     = "RESTORE_FAILED"
	ErrCodeBusy              = "WORLD_BUSY"
)
