// Package resilience provides retry with exponential backoff for flaky
// operations such as remote retrieval calls.
//
// The default retry predicate understands datakit error codes: permanent
// errors (invalid configuration, empty sources, composition mistakes) are
// never retried, while transient sample and retrieval failures are.
package resilience
