package testutil

import (
	"testing"
	"time"
)

// WaitFor polls cond until it holds or the timeout expires, failing the test
// on expiry.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out after %v waiting for: %s", timeout, msg)
}

// Eventually is like WaitFor but reports the failure instead of stopping the
// test.
func Eventually(t *testing.T, timeout time.Duration, cond func() bool, msg string) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Errorf("condition not met within %v: %s", timeout, msg)
	return false
}
