// Package telemetry provides observability instrumentation for ztadmin.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), metrics (Prometheus), and event publishing into a
// unified system for monitoring administrative operations against the
// network controller and the world lifecycle.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with OTLP and stdout exporters
//  3. Metrics Collection - Prometheus metrics for reconciliation, controller
//     calls, world operations, and drift detection
//  4. Event Publishing - Async event system for audit and notifications
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context and retrieve it downstream:
//
//	ctx = tel.WithContext(ctx)
//	logger := telemetry.FromContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with domain field helpers:
//
//	logger := tel.Logger.NewComponentLogger("world")
//	logger = logger.WithActor("admin").WithNetworkID("a1b2c3d4e5000001")
//	logger.Info("Generating custom world")
//	logger.WithError(err).Error("Generation failed")
//
// # Instrumented Operations
//
// WithWorldOperation and WithReconcileRun bundle span, duration metric, and
// event publishing for the two operation families:
//
//	ctx, finish := telemetry.WithWorldOperation(ctx, "generate", actor)
//	settings, err := manager.Generate(ctx, req)
//	finish(err)
//
// # Metrics
//
// Metrics are collected in a dedicated registry and exposed over HTTP:
//
//	tel.Metrics.RecordWorldOperation("generate", "success", elapsed)
//	tel.Metrics.SetCustomWorldInUse(true)
//	_ = tel.StartMetricsServer()
//
// # Events
//
// The event publisher buffers domain events (world.generated, world.reset,
// network.adopted, world.drift) and fans them out to subscribers:
//
//	tel.Events.Subscribe(func(e telemetry.Event) {
//	    fmt.Println(e.Type, e.Message)
//	}, telemetry.FilterByType(telemetry.EventTypeWorldDrift))
package telemetry
