package infra

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// InitTracing installs the global tracer provider. OTEL_EXPORTER=stdout prints spans; any other value
// keeps spans in-process only. The returned func flushes and stops the provider.
func InitTracing(ctx context.Context, cfg *Config, logger Logger) func(context.Context) error {
	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", "sceneforge"),
		attribute.String("deployment.environment", cfg.AppEnv),
	))
	if err != nil {
		logger.Warn().Err(err).Msg("tracing: resource init failed (continuing)")
		res = resource.Default()
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	switch strings.TrimSpace(cfg.OTelExporter) {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout), stdouttrace.WithPrettyPrint())
		if err != nil {
			logger.Warn().Err(err).Msg("tracing: stdout exporter init failed (continuing)")
		} else {
			opts = append(opts, sdktrace.WithBatcher(exporter))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info().Str("exporter", cfg.OTelExporter).Msg("tracing: initialized")
	return tp.Shutdown
}
