// Package logger provides a structured logging facility based on Zap.
//
// Runs are batch jobs driven from the command line, so the default
// encoding is console; the json format is intended for scheduled runs
// whose output lands in a log pipeline.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
package logger
