package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/glucopredict/domain"
)

const currentUserKey = "current_user"

// AuthMW resolves the bearer token on protected routes
type AuthMW struct {
	gate domain.Authorizer
}

// NewAuthMW creates new auth middleware wrapper
func NewAuthMW(gate domain.Authorizer) *AuthMW {
	return &AuthMW{gate: gate}
}

// RequireAuth aborts with 401 unless the Authorization header names an active user.
// A store outage aborts with 503 instead.
func (mw *AuthMW) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := mw.gate.Authorize(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			status := http.StatusUnauthorized
			msg := domain.MessageOf(err, "Authentication required")
			switch domain.KindOf(err) {
			case domain.KindUnreachable, domain.KindConfigMissing:
				status, msg = http.StatusServiceUnavailable, "Service temporarily unavailable"
			case domain.KindInternal, domain.KindPersistence:
				status, msg = http.StatusInternalServerError, "Authentication failed"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

// SetCurrentUser attaches the authenticated user to the request
func SetCurrentUser(c *gin.Context, user *domain.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the user stored by RequireAuth
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}
