// Package validation provides input validation utilities for datakit
// configuration.
//
// It supports both struct tag validation (using the validator library) and
// programmatic validation with error collection. Struct tag validation is
// recommended for configuration structs; programmatic validation covers
// cross-field rules that tags cannot express.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    BatchSize int     `validate:"gt=0"`
//	    Workers   int     `validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Check(cfg.QueueSize == 0 || cfg.Workers > 1, "queue_size", "only applicable to multiple workers")
//	err := v.Error()
package validation
