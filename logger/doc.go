// Package logger provides structured logging for nativesvc on top of
// zerolog.
//
// Output is JSON or a compact console format. Every bridge, executor and
// server instance logs through a component-scoped child logger so a single
// request cycle can be followed by its request_id field.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("bridge")
//	log.Debug("request initiated", logger.Fields("method", "GET", "uri", uri))
package logger
