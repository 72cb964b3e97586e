package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pionia-project/pionia/internal/config"
	"github.com/pionia-project/pionia/internal/infrastructure"
	"github.com/pionia-project/pionia/internal/services"
)

// newTestApplication wires an application without a database DSN or
// signing key, mirroring the minimal configuration New accepts.
func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	cfg.Database.DSN = ""
	cfg.Auth.SigningKey = ""

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "pionia-test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableTracing:  true,
		EnableMetrics:  true,
		SampleRatio:    1,
	}, logger)
	require.NoError(t, err)

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: services.NewRegistry(),
		OTel:     providers,
	}
	require.NoError(t, app.initializeServices())
	require.NoError(t, app.setupRouter())
	return app
}

func TestRouterServesHealthWithoutDatabase(t *testing.T) {
	app := newTestApplication(t)
	require.Nil(t, app.Store)

	t.Run("health check reports healthy", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var status map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
		assert.Equal(t, "healthy", status["status"])
		assert.NotContains(t, status, "store")
	})

	t.Run("readiness is ready", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ready")
	})

	t.Run("liveness is alive", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "alive")
	})
}
