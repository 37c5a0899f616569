// Package apperr defines the failures the auth API reports to clients.
// Each error carries the HTTP status and the message that is rendered in
// the response envelope.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation     Kind = "validation"
	KindConflict       Kind = "conflict"
	KindNotFound       Kind = "not_found"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindInternal       Kind = "internal"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) WithFields(fields []FieldError) *Error {
	clone := *e
	clone.Fields = fields
	return &clone
}

func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

func Validation(status int, message string) *Error {
	return New(KindValidation, status, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, http.StatusConflict, message)
}

func NotFound(message string) *Error {
	return New(KindNotFound, http.StatusNotFound, message)
}

func Authentication(status int, message string) *Error {
	return New(KindAuthentication, status, message)
}

func Authorization(status int, message string) *Error {
	return New(KindAuthorization, status, message)
}

func Internal(message string) *Error {
	return New(KindInternal, http.StatusInternalServerError, message)
}

// As unwraps err into an *Error.
func As(err error) (*Error, bool) {
	var target *Error
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
