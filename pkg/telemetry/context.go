package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides a unified telemetry interface combining logging, tracing, metrics, and events.
type Telemetry struct {
	Logger  *Logger
	Tracer  *Tracer
	Metrics *Metrics
	Events  *EventPublisher
	Config  *Config
}

// telemetryContextKey is the context key for telemetry instances.
type telemetryContextKey struct{}

// NewTelemetry creates a new telemetry instance from configuration.
func NewTelemetry(cfg *Config) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Initialize logger
	logger, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	// Initialize tracer
	tracer, err := NewTracer(cfg.Tracing, cfg.ServiceName, cfg.ServiceVersion, cfg.Environment)
	if err != nil {
		return nil, err
	}

	// Initialize metrics
	metrics, err := NewMetrics(cfg.Metrics)
	if err != nil {
		return nil, err
	}

	// Initialize event publisher
	events, err := NewEventPublisher(cfg.Events)
	if err != nil {
		return nil, err
	}

	return &Telemetry{
		Logger:  logger,
		Tracer:  tracer,
		Metrics: metrics,
		Events:  events,
		Config:  cfg,
	}, nil
}

// WithContext adds the telemetry instance to the context.
func (t *Telemetry) WithContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, telemetryContextKey{}, t)
	ctx = t.Logger.WithContext(ctx)
	return ctx
}

// FromTelemetryContext retrieves the telemetry instance from the context.
// If no telemetry is found, it returns nil.
func FromTelemetryContext(ctx context.Context) *Telemetry {
	if t, ok := ctx.Value(telemetryContextKey{}).(*Telemetry); ok {
		return t
	}
	return nil
}

// Shutdown gracefully shuts down all telemetry components.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	// Shutdown in reverse order of initialization
	if err := t.Events.Shutdown(ctx); err != nil {
		return err
	}

	if err := t.Tracer.Shutdown(ctx); err != nil {
		return err
	}

	// Metrics server is not explicitly shut down here as it may need to continue
	// serving metrics until the very end of the application lifecycle

	return nil
}

// Flush forces all pending telemetry data to be exported.
func (t *Telemetry) Flush(ctx context.Context) error {
	return t.Tracer.ForceFlush(ctx)
}

// StartMetricsServer starts the metrics HTTP server if metrics are enabled.
func (t *Telemetry) StartMetricsServer() error {
	return t.Metrics.StartMetricsServer()
}

// Context Helpers for common instrumentation patterns

// InstrumentedContext creates a context with telemetry, logger fields, and a trace span.
type InstrumentedContext struct {
	Ctx    context.Context
	Span   trace.Span
	Logger *Logger
	Timer  *Timer
}

// StartOperation begins an instrumented operation with logging, tracing, and timing.
func StartOperation(ctx context.Context, operation string, attrs ...attribute.KeyValue) *InstrumentedContext {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return &InstrumentedContext{
			Ctx:    ctx,
			Logger: FromContext(ctx),
			Timer:  NewTimer(),
		}
	}

	// Start trace span
	spanCtx, span := tel.Tracer.StartSpan(ctx, operation, attrs...)

	// Create logger with operation field
	logger := tel.Logger.WithOperation(operation)

	// Add trace context to logger if available
	if span.SpanContext().IsValid() {
		logger = logger.WithFields(map[string]interface{}{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
		})
	}

	return &InstrumentedContext{
		Ctx:    spanCtx,
		Span:   span,
		Logger: logger,
		Timer:  NewTimer(),
	}
}

// End finishes the instrumented operation, recording success or failure.
func (ic *InstrumentedContext) End(err error) {
	if ic.Span != nil {
		if err != nil {
			RecordError(ic.Span, err)
		} else {
			RecordSuccess(ic.Span)
		}
		ic.Span.End()
	}
}

// WithWorldOperation instruments a world lifecycle operation, recording its
// span, duration metric, and outcome. The returned finish function must be
// called with the operation's error.
func WithWorldOperation(ctx context.Context, operation, actor string) (context.Context, func(err error)) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx, func(error) {}
	}

	spanCtx, span := tel.Tracer.StartWorldSpan(ctx, operation)
	span.SetAttributes(AttrActor.String(actor))

	logger := tel.Logger.WithOperation("world." + operation).WithActor(actor)
	spanCtx = logger.WithContext(spanCtx)

	timer := NewTimer()
	return spanCtx, func(err error) {
		status := "success"
		if err != nil {
			status = "failure"
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
		tel.Metrics.RecordWorldOperation(operation, status, timer.Duration())
	}
}

// WithControllerCall instruments one controller API operation, recording
// its span and call metric.
func WithControllerCall(ctx context.Context, operation string) (context.Context, func(err error)) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx, func(error) {}
	}

	spanCtx, span := tel.Tracer.StartControllerSpan(ctx, operation)

	timer := NewTimer()
	return spanCtx, func(err error) {
		status := "success"
		if err != nil {
			status = "failure"
			RecordError(span, err)
		} else {
			RecordSuccess(span)
		}
		span.End()
		tel.Metrics.RecordControllerCall(operation, status, timer.Duration())
	}
}

// WithReconcileRun instruments a reconciliation run. The finish function
// records the outcome with the unlinked and failed counts.
func WithReconcileRun(ctx context.Context, actor string) (context.Context, func(unlinked, failed int, err error)) {
	tel := FromTelemetryContext(ctx)
	if tel == nil {
		return ctx, func(int, int, error) {}
	}

	spanCtx, span := tel.Tracer.StartReconcileSpan(ctx)
	span.SetAttributes(AttrActor.String(actor))

	logger := tel.Logger.WithOperation("reconcile").WithActor(actor)
	spanCtx = logger.WithContext(spanCtx)

	timer := NewTimer()
	return spanCtx, func(unlinked, failed int, err error) {
		status := "success"
		if err != nil {
			status = "failure"
			RecordError(span, err)
		} else {
			RecordSuccess(span)
			span.SetAttributes(
				attribute.Int("reconcile.unlinked", unlinked),
				attribute.Int("reconcile.failed", failed),
			)
		}
		span.End()
		tel.Metrics.RecordReconcileRun(status, timer.Duration(), unlinked, failed)
		if err == nil {
			_ = tel.Events.PublishReconcileCompleted(actor, unlinked, failed)
		}
	}
}
