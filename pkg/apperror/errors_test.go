package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	err := New(CodeValidation, "name is required")
	assert.Equal(t, "[VALIDATION_ERROR] name is required", err.Error())

	withField := NewWithField(CodeValidation, "must not be empty", "name")
	assert.Equal(t, "[VALIDATION_ERROR] must not be empty (field: name)", withField.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeStoreFault, "failed to insert report")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodePermissionDenied, http.StatusForbidden},
		{CodePathRejected, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeStoreFault, http.StatusInternalServerError},
		{CodeGenerationFault, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "msg").HTTPStatus())
		})
	}
}

func TestHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestIs(t *testing.T) {
	err := New(CodeNotFound, "report not found")
	assert.True(t, Is(err, CodeNotFound))
	assert.False(t, Is(err, CodeValidation))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, Is(wrapped, CodeNotFound))

	assert.False(t, Is(errors.New("plain"), CodeNotFound))
}

func TestCode(t *testing.T) {
	assert.Equal(t, CodePathRejected, Code(New(CodePathRejected, "escape attempt")))
	assert.Equal(t, CodeInternal, Code(errors.New("plain")))
}

func TestWithDetails(t *testing.T) {
	err := New(CodePathRejected, "outside root").
		WithDetails("stored_path", "../../etc/passwd").
		WithField("file_path")

	assert.Equal(t, "../../etc/passwd", err.Details["stored_path"])
	assert.Equal(t, "file_path", err.Field)
}
