package middleware

import (
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// HostOnly returns a Gin middleware that restricts a route to requests
// originating from the machine the server runs on. The instructor dashboard
// and code management endpoints are gated this way: students submit from
// their own devices, the host views from the podium machine.
func HostOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		ip := net.ParseIP(clientIP)
		if ip == nil || !ip.IsLoopback() {
			logrus.WithFields(logrus.Fields{
				"client_ip": clientIP,
				"path":      c.Request.URL.Path,
			}).Warn("Rejected non-local request to host-only route")
			c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "This endpoint is only accessible from the host machine"})
			c.Abort()
			return
		}

		c.Next()
	}
}
