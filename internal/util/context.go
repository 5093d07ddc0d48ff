package util

import (
	"github.com/gin-gonic/gin"
	"github.com/snapline/backend/internal/models"
)

// GetUserFromContext extracts the authenticated user loaded by the auth
// guard. Responds 401 and returns false when the guard did not run.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		RespondUnauthorized(c, "user not authenticated")
		return nil, false
	}
	userPtr, ok := user.(*models.User)
	if !ok {
		RespondInternalError(c, nil)
		return nil, false
	}
	return userPtr, true
}

// GetUserIDFromContext extracts the authenticated user ID set by the
// auth guard. Responds 401 and returns false when absent.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		RespondUnauthorized(c, "user not authenticated")
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok {
		RespondInternalError(c, nil)
		return "", false
	}
	return userIDStr, true
}
