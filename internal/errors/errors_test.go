package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindMapping(t *testing.T) {
	tests := []struct {
		kind   Kind
		code   string
		status int
	}{
		{KindInternal, "INTERNAL", http.StatusInternalServerError},
		{KindNotFound, "NOT_FOUND", http.StatusNotFound},
		{KindUnauthenticated, "UNAUTHENTICATED", http.StatusUnauthorized},
		{KindUnauthorized, "UNAUTHORIZED", http.StatusForbidden},
		{KindInvalidData, "INVALID_DATA", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.kind.String())
			assert.Equal(t, tt.status, tt.kind.HTTPStatus())
		})
	}
}

func TestConstructors(t *testing.T) {
	t.Run("not found formats its message", func(t *testing.T) {
		err := NotFound("Service %q does not exist", "ghost")
		assert.Equal(t, KindNotFound, err.Kind)
		assert.Equal(t, `Service "ghost" does not exist`, err.Message)
	})

	t.Run("unauthenticated defaults its message", func(t *testing.T) {
		assert.Equal(t, "Authentication required", Unauthenticated("").Message)
		assert.Equal(t, "Login first", Unauthenticated("Login first").Message)
	})

	t.Run("internal wraps its cause", func(t *testing.T) {
		cause := stderrors.New("connection refused")
		err := Internal("Failed to list records", cause)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "connection refused")
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidData, KindOf(InvalidData("bad")))
	assert.Equal(t, KindInternal, KindOf(stderrors.New("plain")))
	assert.Equal(t, KindNotFound, KindOf(fmt.Errorf("wrapped: %w", NotFound("gone"))))
}

func TestAsAPIError(t *testing.T) {
	t.Run("passes through classified errors", func(t *testing.T) {
		original := Unauthorized("nope")
		assert.Same(t, original, AsAPIError(original))
	})

	t.Run("wraps plain errors as internal", func(t *testing.T) {
		wrapped := AsAPIError(stderrors.New("boom"))
		assert.Equal(t, KindInternal, wrapped.Kind)
		assert.Equal(t, "An unexpected error occurred", wrapped.Message)
	})
}

func TestInvalidFields(t *testing.T) {
	err := InvalidFields([]FieldError{{Field: "email", Message: "invalid format"}})
	assert.Equal(t, KindInvalidData, err.Kind)

	details, ok := err.Details.([]FieldError)
	require.True(t, ok)
	assert.Equal(t, "email", details[0].Field)
}

func TestProblemDetailsJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "no such record", "/api/v1").
		WithExtension("trace_id", "abc123")

	raw, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, TypeNotFound, decoded["type"])
	assert.EqualValues(t, http.StatusNotFound, decoded["status"])
	assert.Equal(t, "no such record", decoded["detail"])
	assert.Equal(t, "abc123", decoded["trace_id"])
}
