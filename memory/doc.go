// Package memory measures process-wide memory utilization for the data
// pipeline's best-effort eviction policy.
package memory
