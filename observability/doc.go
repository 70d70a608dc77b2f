// Package observability provides OpenTelemetry metrics for datakit
// pipelines.
//
// InitMeter installs a global meter provider exporting over OTLP/HTTP.
// Without it, instruments created through Meter are no-ops, so the data
// pipeline carries no overhead when metrics are not configured.
package observability
