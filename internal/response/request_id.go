package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys set by RequestIDMiddleware and read by the envelope
// builders.
const (
	ContextKeyRequestID = "request_id"
	contextKeyStartedAt = "request_started_at"
)

// RequestIDMiddleware tags every request with a correlation ID and records
// the arrival instant so responses can report their own latency. An inbound
// X-Request-ID is honored only when it parses as a UUID, so clients cannot
// smuggle arbitrary text into logs or monitor payloads.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader("X-Request-ID")
		if _, err := uuid.Parse(reqID); err != nil {
			reqID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, reqID)
		c.Set(contextKeyStartedAt, time.Now())
		c.Header("X-Request-ID", reqID)
		c.Next()
	}
}
