package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pionia-project/pionia/internal/auth"
	"github.com/pionia-project/pionia/internal/errors"
)

func TestNewRequest(t *testing.T) {
	t.Run("lifts service and action out of payload", func(t *testing.T) {
		req := NewRequest(context.Background(), map[string]any{
			"service": "todo",
			"action":  "list",
			"limit":   float64(10),
		}, nil, nil)

		assert.Equal(t, "todo", req.Service)
		assert.Equal(t, "list", req.Action)
		assert.NotContains(t, req.Data, "service")
		assert.NotContains(t, req.Data, "action")
		assert.Equal(t, 10, req.GetInt("limit", 0))
	})

	t.Run("envelope keys are case insensitive", func(t *testing.T) {
		req := NewRequest(context.Background(), map[string]any{
			"SERVICE": "todo",
			"Action":  "retrieve",
		}, nil, nil)

		assert.Equal(t, "todo", req.Service)
		assert.Equal(t, "retrieve", req.Action)
	})

	t.Run("non-string envelope keys are ignored", func(t *testing.T) {
		req := NewRequest(context.Background(), map[string]any{
			"service": 42,
		}, nil, nil)

		assert.Empty(t, req.Service)
	})

	t.Run("carries identity", func(t *testing.T) {
		identity := auth.NewIdentity("alice")
		req := NewRequest(context.Background(), nil, nil, identity)
		assert.Same(t, identity, req.Identity)
	})
}

func TestRequestContext(t *testing.T) {
	t.Run("zero value falls back to background", func(t *testing.T) {
		var req Request
		assert.NotNil(t, req.Context())
	})

	t.Run("propagates the construction context", func(t *testing.T) {
		type ctxKey struct{}
		ctx := context.WithValue(context.Background(), ctxKey{}, "v")
		req := NewRequest(ctx, nil, nil, nil)
		assert.Equal(t, "v", req.Context().Value(ctxKey{}))
	})
}

func TestRequestAccessors(t *testing.T) {
	req := NewRequest(context.Background(), map[string]any{
		"service": "todo",
		"action":  "list",
		"title":   "write tests",
		"count":   float64(3),
		"flag":    true,
	}, nil, nil)

	assert.Equal(t, "write tests", req.GetString("title"))
	assert.Empty(t, req.GetString("absent"))
	assert.Empty(t, req.GetString("flag"))

	assert.Equal(t, 3, req.GetInt("count", 0))
	assert.Equal(t, 9, req.GetInt("absent", 9))
}

func TestResponseEnvelope(t *testing.T) {
	t.Run("success has return code zero", func(t *testing.T) {
		resp := OK("Created", map[string]any{"id": 1})
		assert.Zero(t, resp.ReturnCode)
		assert.Equal(t, "Created", resp.Message)
	})

	t.Run("failure carries the kind's status as return code", func(t *testing.T) {
		resp := Fail(errors.NotFound("Record 9 not found"))
		assert.Equal(t, 404, resp.ReturnCode)
		assert.Equal(t, "Record 9 not found", resp.Message)
		assert.Nil(t, resp.Data)
	})
}
