package observability

import (
	"context"
	"errors"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes and stops a telemetry provider.
type ShutdownFunc func(context.Context) error

// InitTelemetry installs the meter provider behind /metrics, plus OTLP trace,
// metric and log export when ExportEnabled reports an endpoint.
func InitTelemetry(ctx context.Context) (ShutdownFunc, error) {
	res, err := newResource(ctx)
	if err != nil {
		return nil, err
	}

	var shutdowns []ShutdownFunc
	shutdownAll := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return errors.Join(errs...)
	}

	starters := []func(context.Context, *resource.Resource) (ShutdownFunc, error){InitMetrics}
	if ExportEnabled() {
		starters = append(starters, InitTracing, InitLogging)
	}

	for _, start := range starters {
		shutdown, err := start(ctx, res)
		if err != nil {
			_ = shutdownAll(ctx)
			return nil, err
		}
		shutdowns = append(shutdowns, shutdown)
	}

	return shutdownAll, nil
}

func InitTracing(ctx context.Context, res *resource.Resource) (ShutdownFunc, error) {

	exporter, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}

func newResource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(
		ctx,
		resource.WithFromEnv(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName()),
		),
	)
}

func ServiceName() string {
	name := os.Getenv("OTEL_SERVICE_NAME")
	if name == "" {
		name = "decimal-calculator"
	}
	return name
}

// ExportEnabled reports whether an OTLP endpoint is configured. Without one
// traces and logs stay on the global no-op providers.
func ExportEnabled() bool {
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}
