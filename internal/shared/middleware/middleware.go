package middleware

import (
	"net/http"
	"time"

	"gigbook/internal/shared/utils/response"
	"gigbook/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity reads the caller identity from headers. X-User-ID is required on
// every booking route; X-Session-ID identifies the hold owner and is
// required wherever locks are taken or released.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "X-User-ID header is required", nil, nil)
			c.Abort()
			return
		}
		if _, err := uuid.Parse(userID); err != nil {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "X-User-ID must be a UUID", nil, nil)
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		if sessionID := c.GetHeader("X-Session-ID"); sessionID != "" {
			c.Set("session_id", sessionID)
		}
		role := c.GetHeader("X-User-Role")
		if role == "" {
			role = "USER"
		}
		c.Set("user_role", role)

		c.Next()
	}
}

// RequireRole gates a route on the caller's declared role. This is a role
// check only; there is no authentication layer in front of it.
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("user_role") != requiredRole {
			response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin gates operator-side routes.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("ADMIN")
}

// RequestID tags every request so log lines can be correlated.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLogger logs every request through the structured logger.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.LogHTTPRequest(c, time.Since(start))
	}
}

// Recovery converts panics into 500 responses instead of dropped
// connections.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic recovered",
			"path", c.Request.URL.Path,
			"panic", recovered,
		)
		response.RespondJSON(c, "error", http.StatusInternalServerError, "Internal server error", nil, nil)
		c.Abort()
	})
}
