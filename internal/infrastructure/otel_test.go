package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTelDisabledExporters(t *testing.T) {
	logger := newDiscardLogger()

	cfg := &OTelConfig{
		ServiceName:    "pionia-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
		EnableTracing:  true,
		EnableMetrics:  true,
		SampleRatio:    1.0,
	}

	providers, err := InitializeOTel(cfg, logger)
	require.NoError(t, err)
	require.NotNil(t, providers)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.MeterProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestInitializeOTelRejectsUnknownExporter(t *testing.T) {
	logger := newDiscardLogger()

	_, err := InitializeOTel(&OTelConfig{
		TraceExporter: "jaeger",
		EnableTracing: true,
		SampleRatio:   1.0,
	}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported trace exporter")

	_, err = InitializeOTel(&OTelConfig{
		MetricExporter: "statsd",
		EnableMetrics:  true,
	}, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported metric exporter")
}

func TestNewDispatchMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewDispatchMetrics(mp.Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, metrics)

	assert.NotNil(t, metrics.DispatchTotal)
	assert.NotNil(t, metrics.DispatchDuration)
	assert.NotNil(t, metrics.ActiveRequests)
}

func TestGenerateTraceID(t *testing.T) {
	first := GenerateTraceID()
	second := GenerateTraceID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
