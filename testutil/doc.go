// Package testutil provides in-memory fakes and helpers for testing code
// built on datakit: an in-memory retrieval, scripted entities, and polling
// helpers for asynchronous assertions.
package testutil
