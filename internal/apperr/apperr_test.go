package apperr

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		err    *Error
		kind   Kind
		status int
	}{
		{Validation(http.StatusBadRequest, "v"), KindValidation, http.StatusBadRequest},
		{Conflict("c"), KindConflict, http.StatusConflict},
		{NotFound("n"), KindNotFound, http.StatusNotFound},
		{Authentication(http.StatusNotFound, "a"), KindAuthentication, http.StatusNotFound},
		{Authorization(http.StatusBadRequest, "z"), KindAuthorization, http.StatusBadRequest},
		{Internal("i"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, tt.err.Kind)
		assert.Equal(t, tt.status, tt.err.Status)
		assert.Equal(t, tt.err.Message, tt.err.Error())
	}
}

func TestAsUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", NotFound("User not found."))

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, got.Status)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))

	_, ok = As(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestWithFieldsDoesNotMutateOriginal(t *testing.T) {
	base := Validation(http.StatusBadRequest, "All fields are required.")
	withFields := base.WithFields([]FieldError{{Field: "email", Tag: "notblank"}})

	assert.Empty(t, base.Fields)
	assert.Len(t, withFields.Fields, 1)
}
