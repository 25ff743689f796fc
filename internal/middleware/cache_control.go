package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore forbids any caching of the response. Applied to question image
// endpoints so rendered exam content never lands in shared caches or on
// disk.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
