package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/qrevent/qrevent/internal/auth"
	"github.com/qrevent/qrevent/internal/helpers"
)

const actorKey = "actor"

// JWTAuthMiddleware verifies the bearer token and stores the caller as an
// auth.Actor in the context.
func JWTAuthMiddleware(issuer *auth.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Authorization token required.")
			return
		}

		actor, err := issuer.Parse(strings.TrimSpace(raw))
		if err != nil {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token.")
			return
		}

		c.Set(actorKey, actor)
		c.Set("user_id", actor.ID)
		c.Set("role", actor.Role)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			helpers.RespondWithError(c, http.StatusUnauthorized, "Authorization token required.")
			return
		}
		if !slices.Contains(roles, actor.Role) {
			helpers.RespondWithError(c, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		c.Next()
	}
}

func CurrentActor(c *gin.Context) (auth.Actor, bool) {
	value, exists := c.Get(actorKey)
	if !exists {
		return auth.Actor{}, false
	}
	actor, ok := value.(auth.Actor)
	return actor, ok
}
