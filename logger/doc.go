// Package logger provides structured logging for pipekit using zerolog.
//
// It supports console and JSON output, level configuration, and
// component-scoped loggers. The runner prints its progress lines through
// this package so they honour the configured format.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.WithComponent("runner")
//	log.Info("step started", logger.Fields(logger.FieldStep, name))
package logger
