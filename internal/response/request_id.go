package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the gin context key holding the request ID that
// buildMetadata echoes into every response envelope.
const ContextKeyRequestID = "request_id"

// RequestIDMiddleware assigns each request an ID. A client-supplied
// X-Request-ID is honored so callers can correlate across retries;
// otherwise one is generated.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}
