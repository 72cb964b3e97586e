package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pionia-project/pionia/internal/shared/testutil"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func getHealth(t *testing.T, handler *HealthHandler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	t.Run("healthy with reachable store", func(t *testing.T) {
		handler := NewHealthHandler(&fakePinger{}, "1.2.3", logger)

		rec, body := getHealth(t, handler, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "1.2.3", body["version"])
		assert.Equal(t, "ok", body["store"])
	})

	t.Run("degraded with unreachable store", func(t *testing.T) {
		handler := NewHealthHandler(&fakePinger{err: errors.New("connection refused")}, "1.2.3", logger)

		rec, body := getHealth(t, handler, "/")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "unreachable", body["store"])
	})

	t.Run("no store configured still reports healthy", func(t *testing.T) {
		handler := NewHealthHandler(nil, "dev", logger)

		rec, body := getHealth(t, handler, "/")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", body["status"])
		assert.NotContains(t, body, "store")
	})
}

func TestLivenessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewHealthHandler(&fakePinger{err: errors.New("down")}, "dev", logger)

	// Liveness ignores the store entirely.
	rec, body := getHealth(t, handler, "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestReadinessCheck(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	t.Run("ready", func(t *testing.T) {
		handler := NewHealthHandler(&fakePinger{}, "dev", logger)
		rec, body := getHealth(t, handler, "/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("not ready when store is down", func(t *testing.T) {
		handler := NewHealthHandler(&fakePinger{err: errors.New("down")}, "dev", logger)
		rec, body := getHealth(t, handler, "/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not ready", body["status"])
	})
}
