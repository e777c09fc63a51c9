package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified run error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// FileAccess creates an error for a manifest that could not be read.
func FileAccess(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeFileAccess, Message: fmt.Sprintf("cannot read manifest %s", path),
		Details: map[string]any{"path": path},
		Cause:   cause,
	}
}

// ManifestParse creates an error for a manifest with invalid structure.
func ManifestParse(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeManifestParse, Message: fmt.Sprintf("invalid manifest %s", path),
		Details: map[string]any{"path": path},
		Cause:   cause,
	}
}

// StepFailed creates an error for a step whose body failed.
func StepFailed(name string, index int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStepFailed, Message: fmt.Sprintf("step %q failed", name),
		Details: map[string]any{"step": name, "index": index},
		Cause:   cause,
	}
}

// NotifyFailed creates an error for an undeliverable progress notification.
func NotifyFailed(step, status string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeNotifyFailed, Message: fmt.Sprintf("notify %s/%s", step, status),
		Details: map[string]any{"step": step, "status": status},
		Cause:   cause,
	}
}

// InvalidConfig creates an error for configuration that failed validation.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// Usage creates an error for invalid command-line usage.
func Usage(message string) *AppError {
	return &AppError{Code: ErrCodeUsage, Message: message}
}

// Internal wraps an unexpected error.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "internal error", Cause: cause}
}

// --- Inspection ---

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap returns err as an AppError, wrapping plain errors as internal errors.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// ExitCode returns the process exit status for err: 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return ExitCodeFor(Wrap(err).Code)
}
