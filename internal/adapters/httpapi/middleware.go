package httpapi

import (
	"fmt"
	"strings"
	"time"

	"listing-auction-service/internal/domain/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// UserIDHeader and UserRoleHeader are set by the gateway and trusted as is
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"

	RoleAdmin = "admin"

	callerKey = "caller"
)

// RequestLogger logs incoming requests with timing
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		event := logger.Info()
		if status >= 500 {
			event = logger.Error()
			if len(c.Errors) > 0 {
				event = event.Err(c.Errors.Last())
			}
		} else if status >= 400 {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP Request")
	}
}

// Authenticated requires a caller identity
func Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			abortWithError(c, shared.ErrUnauthenticated)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, fmt.Errorf("%w: malformed %s", shared.ErrUnauthenticated, UserIDHeader))
			return
		}

		c.Set(callerKey, shared.Caller{
			UserID: userID,
			Admin:  strings.EqualFold(c.GetHeader(UserRoleHeader), RoleAdmin),
		})
		c.Next()
	}
}

// AdminOnly must run after Authenticated
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !callerFrom(c).Admin {
			abortWithError(c, shared.ErrForbidden)
			return
		}
		c.Next()
	}
}

func callerFrom(c *gin.Context) shared.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(shared.Caller); ok {
			return caller
		}
	}
	return shared.Caller{}
}
