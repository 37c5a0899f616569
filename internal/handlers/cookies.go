package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userauth/api/internal/middleware"
)

const refreshTokenCookie = "refreshToken"

// setSessionCookies writes both tokens as session cookies.
func (h HandlerSet) setSessionCookies(c *gin.Context, accessToken, refreshToken string) {
	h.writeCookie(c, middleware.AccessTokenCookie, accessToken, 0)
	h.writeCookie(c, refreshTokenCookie, refreshToken, 0)
}

func (h HandlerSet) clearSessionCookies(c *gin.Context) {
	h.writeCookie(c, middleware.AccessTokenCookie, "", -1)
	h.writeCookie(c, refreshTokenCookie, "", -1)
}

func (h HandlerSet) writeCookie(c *gin.Context, name, value string, maxAge int) {
	path := h.cfg.Cookies.Path
	if path == "" {
		path = "/"
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, path, h.cfg.Cookies.Domain, h.cfg.Cookies.Secure, true)
}
