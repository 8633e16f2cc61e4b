package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"taskboard/workflow"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// TokenParser turns a bearer token into the caller it was issued to.
type TokenParser interface {
	ParseToken(token string) (workflow.Caller, error)
}

// CallerMiddleware resolves who is making the request. A bearer token wins;
// without one the x-user-role, x-user-team and x-user-id headers are used.
// Unknown roles are kept as RoleUnknown and rejected by the handlers that care.
func CallerMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header != "" {
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(tokenString) == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
				return
			}
			caller, err := tokens.ParseToken(strings.TrimSpace(tokenString))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token is expired or invalid"})
				return
			}
			c.Set(callerKey, caller)
			c.Next()
			return
		}

		role, _ := workflow.ParseRole(strings.TrimSpace(c.GetHeader("x-user-role")))
		caller := workflow.Caller{Role: role, Team: strings.TrimSpace(c.GetHeader("x-user-team"))}
		if id, err := strconv.ParseUint(c.GetHeader("x-user-id"), 10, 64); err == nil {
			caller.UserID = uint(id)
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// CallerFrom returns the caller stored by CallerMiddleware, or the zero caller.
func CallerFrom(c *gin.Context) workflow.Caller {
	if v, ok := c.Get(callerKey); ok {
		if caller, ok := v.(workflow.Caller); ok {
			return caller
		}
	}
	return workflow.Caller{}
}
