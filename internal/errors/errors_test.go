package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMessage(t *testing.T) {
	err := NotFound("job not found", nil)
	assert.Equal(t, "NOT_FOUND: job not found", err.Error())

	wrapped := Internal("loading job", fmt.Errorf("connection reset"))
	assert.Equal(t, "INTERNAL: loading job: connection reset", wrapped.Error())
	assert.NotEmpty(t, wrapped.StackTrace())
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := Internal("wrapping", cause)
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err    *DomainError
		status int
	}{
		{NotFound("x", nil), http.StatusNotFound},
		{InvalidInput("x", nil), http.StatusBadRequest},
		{Duplicate("x", nil), http.StatusBadRequest},
		{Unauthorized("x", nil), http.StatusUnauthorized},
		{Unavailable("x", nil), http.StatusServiceUnavailable},
		{RateLimit("x", nil), http.StatusTooManyRequests},
		{Internal("x", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.HTTPStatus(), string(tc.err.Type))
	}
}

func TestTypeOfAndStatusOfPlainErrors(t *testing.T) {
	plain := fmt.Errorf("plain failure")
	assert.Equal(t, ErrTypeInternal, TypeOf(plain))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(plain))

	wrapped := fmt.Errorf("handler: %w", NotFound("missing", nil))
	assert.Equal(t, ErrTypeNotFound, TypeOf(wrapped))
	assert.Equal(t, http.StatusNotFound, StatusOf(wrapped))
}
