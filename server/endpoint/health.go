package endpoint

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/nativesvc/component"
	"github.com/kbukum/nativesvc/observability"
	"github.com/kbukum/nativesvc/version"
)

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Health returns a handler that reports service health including
// component statuses. Any unhealthy component makes it respond 503.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		sh := observability.NewServiceHealth(serviceName, version.GetVersion())
		if checker != nil {
			for _, ch := range checker(c.Request.Context()) {
				sh.AddComponent(observability.Health{
					Name:    ch.Name,
					Status:  toServiceStatus(ch.Status),
					Message: ch.Message,
				})
			}
		}

		c.JSON(sh.HTTPStatus(), gin.H{
			"status":     sh.Status,
			"service":    sh.Service,
			"version":    sh.Version,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": sh.Components,
		})
	}
}

func toServiceStatus(s component.HealthStatus) observability.HealthStatus {
	switch {
	case !s.Serving():
		return observability.HealthStatusDown
	case s == component.StatusDegraded:
		return observability.HealthStatusDegraded
	default:
		return observability.HealthStatusUp
	}
}
