package api

import (
	"github.com/gin-gonic/gin"
)

// errorResponse writes the uniform error body used by every endpoint.
func errorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"error": message,
	})
}

// badRequestResponse writes a 400 error body.
func badRequestResponse(c *gin.Context, message string) {
	errorResponse(c, 400, message)
}
