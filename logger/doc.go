// Package logger provides structured logging on top of zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Log lines from the cache
// and the build engine use the Field* keys so they can be filtered by node,
// digest or execution.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("cas")
//	log.Info("blob stored", logger.Fields(logger.FieldDigest, d.Short()))
package logger
