package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeEmptySource, "no entities")
	if err.Code != ErrCodeEmptySource {
		t.Errorf("expected code %s, got %s", ErrCodeEmptySource, err.Code)
	}
	if err.Message != "no entities" {
		t.Errorf("expected message 'no entities', got %q", err.Message)
	}
	if err.Retryable {
		t.Error("EMPTY_SOURCE should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "sample timed out")
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
}

func TestAppError_InvalidConfig_Success(t *testing.T) {
	err := InvalidConfig("queue_size", "queue_size is only applicable to multiple workers")
	if err.Code != ErrCodeInvalidConfig {
		t.Errorf("expected INVALID_CONFIG, got %s", err.Code)
	}
	if err.Details["option"] != "queue_size" {
		t.Errorf("expected option=queue_size, got %v", err.Details["option"])
	}
	if err.Retryable {
		t.Error("InvalidConfig should not be retryable")
	}
}

func TestAppError_SampleFailure_Success(t *testing.T) {
	cause := fmt.Errorf("decode failed")
	err := SampleFailure("ent-7", cause)
	if err.Code != ErrCodeSampleFailure {
		t.Errorf("expected SAMPLE_FAILURE, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
	if !err.Retryable {
		t.Error("SampleFailure should be retryable")
	}
	if err.Details["entity_id"] != "ent-7" {
		t.Errorf("expected entity_id=ent-7, got %v", err.Details["entity_id"])
	}
}

func TestAppError_BatchStalled_Success(t *testing.T) {
	err := BatchStalled(100)
	if err.Code != ErrCodeBatchStalled {
		t.Errorf("expected BATCH_STALLED, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "100") {
		t.Errorf("expected attempt count in message, got %q", err.Message)
	}
	if err.Retryable {
		t.Error("BatchStalled should not be retryable")
	}
	if err.Details["attempts"] != 100 {
		t.Errorf("expected attempts=100, got %v", err.Details["attempts"])
	}
}

func TestAppError_Composition_Success(t *testing.T) {
	err := Composition("string")
	if err.Code != ErrCodeComposition {
		t.Errorf("expected COMPOSITION_ERROR, got %s", err.Code)
	}
	if err.Details["got"] != "string" {
		t.Errorf("expected got=string, got %v", err.Details["got"])
	}
}

func TestAppError_Error_WithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := CacheFailed("write", cause)
	msg := err.Error()
	if !strings.Contains(msg, "CACHE_ERROR") {
		t.Errorf("expected code in message, got %q", msg)
	}
	if !strings.Contains(msg, "disk full") {
		t.Errorf("expected cause in message, got %q", msg)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := RetrievalFailed("list", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := EmptySource("prefilter").WithDetail("filter_index", 2)
	if err.Details["filter_index"] != 2 {
		t.Errorf("expected filter_index=2, got %v", err.Details["filter_index"])
	}
	if err.Details["stage"] != "prefilter" {
		t.Errorf("expected stage=prefilter, got %v", err.Details["stage"])
	}
}

func TestIsAppError(t *testing.T) {
	if !IsAppError(SampleRejected("e1")) {
		t.Error("expected AppError to be detected")
	}
	if IsAppError(fmt.Errorf("plain")) {
		t.Error("plain error should not be an AppError")
	}
	wrapped := fmt.Errorf("wrapped: %w", Timeout("get_sample"))
	if !IsAppError(wrapped) {
		t.Error("expected wrapped AppError to be detected")
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", BatchStalled(5))
	if !HasCode(err, ErrCodeBatchStalled) {
		t.Error("expected BATCH_STALLED to be found through wrapping")
	}
	if HasCode(err, ErrCodeTimeout) {
		t.Error("did not expect TIMEOUT")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(SampleRejected("e1")) {
		t.Error("rejected samples are retryable")
	}
	if IsRetryable(BatchStalled(3)) {
		t.Error("stalled batches are not retryable")
	}
	if !IsRetryable(fmt.Errorf("unknown failure")) {
		t.Error("unknown errors default to retryable")
	}
	if IsRetryable(nil) {
		t.Error("nil is not retryable")
	}
}
