// Package http contains the gin handlers for the attendance API.
package http

import "github.com/gin-gonic/gin"

// ErrorResponse writes the stable error envelope: a machine-readable code
// plus a human message.
func ErrorResponse(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}

func SuccessResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}
