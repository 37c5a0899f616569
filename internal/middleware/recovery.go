package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"userauth/api/internal/apperr"
	"userauth/api/internal/response"
)

func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("error", r).
					Str("request_id", RequestIDFrom(c)).
					Msg("panic recovered")
				response.JSONError(c, apperr.Internal(response.MsgInternal))
			}
		}()
		c.Next()
	}
}
