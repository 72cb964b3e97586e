package services

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/pionia-project/pionia/internal/auth"
	"github.com/pionia-project/pionia/internal/errors"
	"github.com/pionia-project/pionia/internal/infrastructure"
)

// Dispatcher routes a request to the matching service action after
// applying the deactivation, authentication, and permission policy.
// It is stateless and safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	guard    *auth.Guard
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.DispatchMetrics
}

// DispatcherOption configures optional dispatcher collaborators.
type DispatcherOption func(*Dispatcher)

// WithTracer attaches an OpenTelemetry tracer.
func WithTracer(tracer trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

// WithMetrics attaches dispatch metrics instruments.
func WithMetrics(m *infrastructure.DispatchMetrics) DispatcherOption {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(registry *Registry, guard *auth.Guard, logger *slog.Logger, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		guard:    guard,
		logger:   logger.With(slog.String("component", "dispatcher")),
		tracer:   noop.NewTracerProvider().Tracer("dispatcher"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch resolves and invokes the action named by the request.
//
// Failure order is fixed: missing service identifier, unknown service,
// deactivated action, missing handler, authentication, permissions.
// On success the handler's response is returned unchanged.
func (d *Dispatcher) Dispatch(req Request) (Response, error) {
	// Embedded callers may not have gone through the request ID
	// middleware, so guarantee a trace ID here.
	ctx, span := d.tracer.Start(infrastructure.EnsureTraceID(req.Context()), "dispatch",
		trace.WithAttributes(
			attribute.String("service", req.Service),
			attribute.String("action", req.Action),
		))
	defer span.End()
	req.ctx = ctx

	if d.metrics != nil {
		d.metrics.ActiveRequests.Add(ctx, 1)
		defer d.metrics.ActiveRequests.Add(ctx, -1)
	}

	start := time.Now()
	resp, err := d.dispatch(req)
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = errors.KindOf(err).String()
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}

	if d.metrics != nil {
		attrs := metric.WithAttributes(
			attribute.String("service", req.Service),
			attribute.String("action", req.Action),
			attribute.String("outcome", outcome),
		)
		d.metrics.DispatchTotal.Add(ctx, 1, attrs)
		d.metrics.DispatchDuration.Record(ctx, elapsed.Seconds(), attrs)
	}

	d.logger.InfoContext(ctx, "action dispatched",
		slog.String("service", req.Service),
		slog.String("action", req.Action),
		slog.String("outcome", outcome),
		slog.Duration("duration", elapsed),
	)

	return resp, err
}

func (d *Dispatcher) dispatch(req Request) (Response, error) {
	if req.Service == "" {
		return Response{}, errors.NotFound("Request is missing the service identifier")
	}

	service, ok := d.registry.Resolve(req.Service)
	if !ok {
		return Response{}, errors.NotFound("Service %q does not exist", req.Service)
	}

	if req.Action == "" {
		return Response{}, errors.NotFound("Request is missing the action identifier")
	}

	// Deactivation wins over everything else, including handlers that
	// still exist.
	if service.Deactivated(req.Action) {
		return Response{}, errors.NotFound("Action %q is not available on service %q", req.Action, req.Service)
	}

	handler, ok := service.Handler(req.Action)
	if !ok {
		return Response{}, errors.NotFound("Action %q does not exist on service %q", req.Action, req.Service)
	}

	if service.RequiresAuth() {
		if err := d.guard.MustAuthenticate(req.Identity, "Service "+service.Name()+" requires authentication"); err != nil {
			return Response{}, err
		}
	}

	if perms := service.RequiredPermissions(req.Action); len(perms) > 0 {
		if err := d.guard.CanAll(req.Identity, perms); err != nil {
			return Response{}, err
		}
	}

	return handler(req)
}
