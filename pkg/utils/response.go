package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error body of the HTTP surface.
type ErrorResponse struct {
	Message string `json:"message"`
}

// SendError writes a standardized error response.
func SendError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error": ErrorResponse{
			Message: message,
		},
	})
}
