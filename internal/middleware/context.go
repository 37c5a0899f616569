package middleware

import (
	"github.com/gin-gonic/gin"

	"userauth/api/internal/models"
)

const currentUserKey = "current_user"

// SetCurrentUser attaches the authenticated user to the request.
func SetCurrentUser(c *gin.Context, user models.User) {
	c.Set(currentUserKey, &user)
}

// CurrentUser returns the user attached by Auth, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}
