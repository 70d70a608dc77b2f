// Package errors provides unified error handling for datakit pipelines.
// It implements structured error types with machine-readable codes and
// retryable detection so callers can tell configuration mistakes apart
// from transient per-sample failures.
package errors
