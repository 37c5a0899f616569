package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"userauth/api/internal/apperr"
	"userauth/api/internal/response"
)

// Errors renders the last error pushed with c.Error. Errors that are not
// *apperr.Error are logged and reported as a plain 500.
func Errors(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperr.As(err)
		if !ok {
			log.Error().
				Err(err).
				Str("path", c.Request.URL.Path).
				Str("request_id", RequestIDFrom(c)).
				Msg("unhandled request error")
			appErr = apperr.Internal(response.MsgInternal)
		}

		response.JSONError(c, appErr)
	}
}
