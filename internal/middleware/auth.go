package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Kevin-Kurka/webstarter/internal/pkg"
	"github.com/Kevin-Kurka/webstarter/internal/token"
)

const (
	authHeaderName   = "Authorization"
	bearerPrefix     = "Bearer "
	userIDContextKey = "auth_user_id"
)

// Auth returns a gin middleware that gates a route group behind a bearer
// credential. Requests must carry "Authorization: Bearer <token>"; the token
// is verified by the given token service. On success the authenticated user
// ID is stored in gin.Context; otherwise the chain is aborted with a 401
// JSON envelope.
func Auth(tokens token.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader(authHeaderName))
		if !ok {
			abortUnauthorized(c, "missing or malformed authorization header")
			return
		}

		claims, err := tokens.Parse(tokenStr)
		if err != nil {
			abortUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(userIDContextKey, claims.UserID)
		c.Next()
	}
}

// AuthUserID extracts the authenticated user ID stored by Auth.
// Returns 0 and false when the request did not pass the gate.
func AuthUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(userIDContextKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// bearerToken extracts the token from an "Authorization: Bearer x" header value.
func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if tokenStr == "" {
		return "", false
	}
	return tokenStr, true
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, pkg.Response{
		Code:    http.StatusUnauthorized,
		Message: message,
		Data:    nil,
	})
}
