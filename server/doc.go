// Package server provides the echo server used to exercise HTTP bridges.
// It runs Gin behind an h2c handler, so HTTP/1.1 and cleartext HTTP/2 share
// one port, and reports back what it received.
//
// # Middleware
//
// Built-in middleware (server/middleware) wraps the root ServeMux:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request id generation and propagation
//   - Tracing: a server span per request
//   - CORS: preflight handling for browser clients
//   - BodySizeLimit: request body size cap
//   - RequestLogger: request logging with duration tracking
//
// # Endpoints
//
// Echo routes: /get, /post, /put, /patch, /delete, /anything, /status/:code,
// /bytes/:n and /stream-bytes/:n. Service routes (server/endpoint): /health
// and /version.
package server
