package main

import (
	"context"

	"decimal-calculator/internal/calculator"
	"decimal-calculator/internal/observability"
)

// initTelemetry starts the meter provider, plus the OTLP providers when export
// is configured, and binds the calculator's instruments to it.
func initTelemetry(ctx context.Context) (observability.ShutdownFunc, error) {
	shutdown, err := observability.InitTelemetry(ctx)
	if err != nil {
		return nil, err
	}

	if err := calculator.InitMetrics(); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	return shutdown, nil
}
