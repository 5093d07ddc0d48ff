package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/util"
)

// Context keys set by Middleware for downstream handlers.
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
	ContextClaimsKey = "claims"
)

// Middleware guards a route group. A missing token and a bad token get
// distinct messages so clients can tell "log in" apart from "log in
// again".
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, claims, err := s.Authenticate(c.Request)
		if err != nil {
			switch {
			case errors.Is(err, ErrNoToken):
				util.RespondUnauthorized(c, "unauthorized: access token required")
			case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUserNotFound):
				util.RespondUnauthorized(c, "unauthorized: invalid or expired access token")
			default:
				util.RespondInternalError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}
