package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors (fatal at construction, never retried)
const (
	// ErrCodeInvalidConfig indicates an invalid configuration value.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeEmptySource indicates a data source with no entities after load or filtering.
	ErrCodeEmptySource ErrorCode = "EMPTY_SOURCE"
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Sample processing errors (recoverable, per-sample)
const (
	// ErrCodeSampleFailure indicates a sample could not be materialized or controlled.
	ErrCodeSampleFailure ErrorCode = "SAMPLE_FAILURE"
	// ErrCodeSampleRejected indicates the controller chain rejected a sample.
	ErrCodeSampleRejected ErrorCode = "SAMPLE_REJECTED"
	// ErrCodeTimeout indicates a per-sample deadline was exceeded.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Pipeline errors
const (
	// ErrCodeBatchStalled indicates batch assembly gave up after too many
	// consecutive rejections or failures.
	ErrCodeBatchStalled ErrorCode = "BATCH_STALLED"
	// ErrCodeSourceClosed indicates the data source has been closed.
	ErrCodeSourceClosed ErrorCode = "SOURCE_CLOSED"
	// ErrCodeBatchFormat indicates a batch could not be converted to the
	// requested dense representation.
	ErrCodeBatchFormat ErrorCode = "BATCH_FORMAT"
)

// Composition and retrieval errors
const (
	// ErrCodeComposition indicates an unsupported operand in a dataset combination.
	ErrCodeComposition ErrorCode = "COMPOSITION_ERROR"
	// ErrCodeRetrieval indicates the retrieval adapter failed.
	ErrCodeRetrieval ErrorCode = "RETRIEVAL_ERROR"
	// ErrCodeCache indicates the entity cache could not be read or written.
	ErrCodeCache ErrorCode = "CACHE_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeSampleFailure:  true,
	ErrCodeSampleRejected: true,
	ErrCodeTimeout:        true,
	ErrCodeRetrieval:      true,
}

// IsRetryableCode returns whether an error code is retryable by default.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
