package middleware

import (
	"net/http"
	"time"

	"github.com/kbukum/nativesvc/logger"
)

// RequestLogger returns middleware that logs every request with method,
// path, status code, bytes written and duration. Health checks are skipped.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)

			fields := logger.MergeWithDuration(logger.Fields(
				logger.FieldMethod, r.Method,
				logger.FieldURI, r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldBytes, sw.bytes,
				"proto", r.Proto,
			), time.Since(start))
			if id := r.Header.Get(HeaderRequestID); id != "" {
				fields[logger.FieldRequestID] = id
			}

			logByStatus(log, fields, sw.status)
		})
	}
}

func isHealthEndpoint(path string) bool {
	return path == "/health" || path == "/version"
}

// logByStatus logs request fields at a level matching the status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("Request completed", fields)
	case status >= 400:
		log.Warn("Request completed", fields)
	default:
		log.Debug("Request completed", fields)
	}
}
