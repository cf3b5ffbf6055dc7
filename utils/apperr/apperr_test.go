package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryCodeAndStatus(t *testing.T) {
	cases := []struct {
		err    *Error
		code   string
		status int
	}{
		{NotFound("x"), CodeNotFound, http.StatusNotFound},
		{PermissionDenied("x"), CodePermissionDenied, http.StatusForbidden},
		{Validation("x"), CodeValidation, http.StatusBadRequest},
		{Duplicate("x"), CodeDuplicateEntry, http.StatusConflict},
		{CapacityExceeded("x"), CodeCapacityExceeded, http.StatusUnprocessableEntity},
		{BusinessLogic("x"), CodeBusinessLogic, http.StatusUnprocessableEntity},
		{Internal("x", nil), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.code, tc.err.Code)
		assert.Equal(t, tc.status, tc.err.Status)
	}
}

func TestAs_UnwrapsWrappedErrors(t *testing.T) {
	base := CapacityExceeded("preceptor is full")
	wrapped := fmt.Errorf("assigning student: %w", base)

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, CodeCapacityExceeded, appErr.Code)

	_, ok = As(errors.New("plain error"))
	assert.False(t, ok)
}

func TestInternal_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Internal("failed to save", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCodePredicates(t *testing.T) {
	assert.True(t, IsNotFound(NotFound("x")))
	assert.True(t, IsDuplicate(Duplicate("x")))
	assert.True(t, IsCapacityExceeded(CapacityExceeded("x")))
	assert.True(t, IsPermissionDenied(PermissionDenied("x")))
	assert.True(t, IsValidation(Validation("x")))

	assert.False(t, IsNotFound(Duplicate("x")))
	assert.False(t, IsCapacityExceeded(errors.New("plain")))
}
