package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/nativesvc/version"
)

// versionResponse is the /version payload: the build info plus the
// User-Agent bridges built from this binary send.
type versionResponse struct {
	Name string `json:"name"`
	*version.Info
	UserAgent string `json:"user_agent"`
}

// Version returns a handler that reports build version information.
func Version() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, versionResponse{
			Name:      version.Name,
			Info:      version.GetVersionInfo(),
			UserAgent: version.UserAgent(),
		})
	}
}
