package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextActorKey is the gin context key storing the acting user's identity.
const ContextActorKey = "actor"

// DefaultActorHeader is used when no header is configured.
const DefaultActorHeader = "X-Actor"

// Actor copies the identity asserted by the upstream gateway into the request context.
// Requests without the header pass through; write endpoints reject them later.
func Actor(header string) gin.HandlerFunc {
	if strings.TrimSpace(header) == "" {
		header = DefaultActorHeader
	}
	return func(c *gin.Context) {
		if actor := strings.TrimSpace(c.GetHeader(header)); actor != "" {
			c.Set(ContextActorKey, actor)
		}
		c.Next()
	}
}

// ActorFrom returns the identity stored by Actor, or an empty string.
func ActorFrom(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(ContextActorKey)
}
