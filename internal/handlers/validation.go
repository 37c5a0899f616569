package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"userauth/api/internal/apperr"
)

var (
	registerValidatorsOnce sync.Once
	errInvalidBody         = apperr.Validation(http.StatusBadRequest, "Invalid request body.")
)

// RegisterValidators adds the notblank tag to gin's validator engine.
func RegisterValidators() error {
	var err error
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		err = v.RegisterValidation("notblank", validators.NotBlank)
	})
	return err
}

// bindJSON decodes the body into dst. An empty body is validated as an
// empty object. Validation failures become invalid with field errors
// attached; undecodable bodies become malformed.
func bindJSON(c *gin.Context, dst any, invalid, malformed *apperr.Error) error {
	err := c.ShouldBindJSON(dst)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(dst)
	}
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return invalid.WithFields(formatValidationErrors(verrs))
	}
	return malformed
}

func formatValidationErrors(verrs validator.ValidationErrors) []apperr.FieldError {
	out := make([]apperr.FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = apperr.FieldError{Field: fe.Field(), Tag: fe.Tag()}
		switch fe.Tag() {
		case "required", "notblank":
			out[i].Message = fmt.Sprintf("%s is required", fe.Field())
		case "email":
			out[i].Message = fmt.Sprintf("%s must be a valid email address", fe.Field())
		default:
			out[i].Message = fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
		}
	}
	return out
}
