package response

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContextKeyRequestID is the Gin context key holding the request ID.
const ContextKeyRequestID = "request_id"

// headerRequestID is the header the ID is read from and echoed back on.
const headerRequestID = "X-Request-ID"

// RequestIDMiddleware tags every request with an ID for log correlation. An
// inbound X-Request-ID is honored so the dashboard can trace its own calls;
// otherwise a fresh UUID is generated.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Header(headerRequestID, reqID)
		c.Next()
	}
}
