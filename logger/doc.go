// Package logger provides structured logging for datakit pipelines
// using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component-scoped loggers with structured fields.
//
// # Configuration
//
//	logger:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("datasource")
//	log.Info("prefilter applied", logger.Fields("before", 120, "after", 87))
package logger
