package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader propagates the request identifier between client and
	// gateway.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key holding the request ID so handlers
	// can read it without parsing headers.
	RequestIDKey = "request_id"
)

// RequestID ensures every request carries a unique identifier. An inbound
// X-Request-ID (from a load balancer or the caller) is reused unchanged;
// otherwise a UUID v4 is generated. The ID is stored in the context and
// echoed in the response header so clients can correlate with server logs.
//
// Register early so downstream middleware and logging see the ID:
//
//	router.Use(gin.Recovery())
//	router.Use(middleware.RequestID())
//	router.Use(middleware.Metrics())
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}
