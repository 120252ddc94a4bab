// Package httpmiddleware holds the gin middlewares shared by the service's
// HTTP surface.
package httpmiddleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lifequery/pkg/ratelimiter"
)

// ContextKeyUserID is the gin context key carrying the authenticated user.
const ContextKeyUserID = "userID"

// ContextKeyRequestID is the gin context key carrying the trace id.
const ContextKeyRequestID = "requestID"

// UserIdentity resolves the calling user. Authentication lives upstream of
// this service; a production deployment validates a token and sets the user
// on the context. Until that is wired in, the user is taken from the
// X-User-ID header.
func UserIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(ContextKeyUserID, userID)
		c.Next()
	}
}

// RequestID assigns every request a trace id for log correlation, reusing
// the caller's X-Request-ID when present.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(ContextKeyRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// PerUserRateLimit throttles requests by authenticated user. Every answered
// query spends provider tokens, so the limit protects the model budget, not
// the web server. Must run after UserIdentity.
func PerUserRateLimit(limiter *ratelimiter.Keyed) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(ContextKeyUserID)
		if !limiter.Allow(userID) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
