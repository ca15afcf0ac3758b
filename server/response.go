package server

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every error the echo server returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithError aborts the request with status and a JSON error body.
func RespondWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg})
}
