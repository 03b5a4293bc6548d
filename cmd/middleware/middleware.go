package middleware

import (
	"strconv"
	"time"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"campusevents/internal/dto"
)

// UserIDKey is where Identity stores the authenticated user id.
const UserIDKey = "user_id"

func LoggingMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		start := time.Now()
		c.Next()
		zlog.Logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request handled")
	}
}

// Identity trusts the X-User-ID header set by the auth layer in front of
// this service. Session management itself lives outside this codebase.
func Identity() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		raw := c.GetHeader("X-User-ID")
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			dto.UnauthorizedError(c)
			return
		}
		c.Set(UserIDKey, id)
		c.Next()
	}
}
