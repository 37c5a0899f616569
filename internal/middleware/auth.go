package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"userauth/api/internal/apperr"
	"userauth/api/internal/models"
	"userauth/api/internal/repository"
	"userauth/api/internal/security"
)

const AccessTokenCookie = "accessToken"

var (
	errUnauthorized       = apperr.Authentication(http.StatusUnauthorized, "Unauthorized request.")
	errInvalidAccessToken = apperr.Authentication(http.StatusUnauthorized, "Invalid access token.")
)

type AccessTokenParser interface {
	ParseAccessToken(token string) (*security.AccessClaims, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Auth resolves the access token from the accessToken cookie or a Bearer
// header and attaches the owning user to the request.
func Auth(tokens AccessTokenParser, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := accessToken(c)
		if tokenStr == "" {
			_ = c.Error(errUnauthorized)
			c.Abort()
			return
		}

		claims, err := tokens.ParseAccessToken(tokenStr)
		if err != nil {
			_ = c.Error(errInvalidAccessToken)
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				err = errInvalidAccessToken
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		SetCurrentUser(c, user)
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}
