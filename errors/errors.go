package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified datakit error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
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

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Common Error Constructors ---

// InvalidConfig creates a new AppError for an invalid configuration option.
func InvalidConfig(option, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		Retryable: false,
		Details:   map[string]any{"option": option},
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		Retryable: false,
	}
}

// EmptySource creates a new AppError for a data source with no entities.
func EmptySource(stage string) *AppError {
	return &AppError{
		Code: ErrCodeEmptySource, Message: "Cannot operate on an empty data source.",
		Retryable: false,
		Details:   map[string]any{"stage": stage},
	}
}

// SampleFailure creates a new AppError for a failed sample materialization
// or controller application.
func SampleFailure(entityID string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSampleFailure, Message: "Sample could not be materialized or controlled.",
		Retryable: true, Cause: cause,
		Details: map[string]any{"entity_id": entityID},
	}
}

// SampleRejected creates a new AppError for a sample dropped by the controller chain.
func SampleRejected(entityID string) *AppError {
	return &AppError{
		Code: ErrCodeSampleRejected, Message: "Sample rejected by controller chain.",
		Retryable: true,
		Details:   map[string]any{"entity_id": entityID},
	}
}

// Timeout creates a new AppError for a per-sample deadline violation.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation exceeded its deadline.",
		Retryable: true,
		Details:   map[string]any{"operation": operation},
	}
}

// BatchStalled creates a new AppError for batch assembly that gave up after
// too many consecutive non-accepted samples.
func BatchStalled(attempts int) *AppError {
	return &AppError{
		Code: ErrCodeBatchStalled, Message: fmt.Sprintf("Batch assembly stalled after %d consecutive rejected or failed samples.", attempts),
		Retryable: false,
		Details:   map[string]any{"attempts": attempts},
	}
}

// SourceClosed creates a new AppError for operations on a closed data source.
func SourceClosed() *AppError {
	return &AppError{
		Code: ErrCodeSourceClosed, Message: "The data source has been closed.",
		Retryable: false,
	}
}

// BatchFormat creates a new AppError for a batch that cannot be converted
// to a dense numeric representation.
func BatchFormat(reason string) *AppError {
	return &AppError{
		Code: ErrCodeBatchFormat, Message: fmt.Sprintf("Batch cannot be converted: %s", reason),
		Retryable: false,
	}
}

// Composition creates a new AppError for combining unsupported dataset types.
func Composition(got string) *AppError {
	return &AppError{
		Code: ErrCodeComposition, Message: "Can only combine DataSource or Union values.",
		Retryable: false,
		Details:   map[string]any{"got": got},
	}
}

// RetrievalFailed creates a new AppError for a failing retrieval adapter.
func RetrievalFailed(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeRetrieval, Message: fmt.Sprintf("The retrieval adapter failed during %s.", operation),
		Retryable: true, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}

// CacheFailed creates a new AppError for a cache read or write failure.
func CacheFailed(operation string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCache, Message: fmt.Sprintf("The entity cache failed during %s.", operation),
		Retryable: false, Cause: cause,
		Details: map[string]any{"operation": operation},
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsRetryable reports whether err is an AppError marked retryable.
// Non-AppError values are treated as retryable, matching the pipeline's
// drop-and-continue policy for unknown sample failures.
func IsRetryable(err error) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Retryable
	}
	return err != nil
}
