// Package response writes the JSON envelope every API route answers with.
package response

import (
	"github.com/gin-gonic/gin"

	"userauth/api/internal/apperr"
)

const MsgInternal = "Internal server error."

type Envelope struct {
	StatusCode int                 `json:"statusCode"`
	Data       any                 `json:"data"`
	Message    string              `json:"message"`
	Success    bool                `json:"success"`
	Errors     []apperr.FieldError `json:"errors,omitempty"`
}

func JSONSuccess(c *gin.Context, status int, data any, message string) {
	c.JSON(status, Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// JSONError aborts the chain and renders err. Data is always null.
func JSONError(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(err.Status, Envelope{
		StatusCode: err.Status,
		Data:       nil,
		Message:    err.Message,
		Success:    false,
		Errors:     err.Fields,
	})
}
