package requestid

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerKey  = "X-Request-ID"
	contextKey = "request_id"
	maxLength  = 64
)

// Middleware assigns a unique request ID to each incoming HTTP request.
// Client supplied IDs are kept when they are short enough to log safely.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerKey)
		if reqID == "" || len(reqID) > maxLength {
			reqID = uuid.NewString()
		}

		c.Set(contextKey, reqID)
		c.Writer.Header().Set(headerKey, reqID)

		c.Next()
	}
}

// Value returns the request ID stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
