package calculator

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metric instruments. They are no-ops until InitMetrics runs.
var (
	opsCounter       metric.Int64Counter     = noop.Int64Counter{}
	opsHistogram     metric.Float64Histogram = noop.Float64Histogram{}
	errorCounter     metric.Int64Counter     = noop.Int64Counter{}
	resultGauge      metric.Float64Gauge     = noop.Float64Gauge{}
	historySizeGauge metric.Int64Gauge       = noop.Int64Gauge{}
)

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call it once at startup, after observability.InitTelemetry.
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	opsCounter, err = meter.Int64Counter("calculator.operations.total",
		metric.WithDescription("Total number of calculator operations performed"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return fmt.Errorf("creating ops counter: %w", err)
	}

	opsHistogram, err = meter.Float64Histogram("calculator.operation.duration",
		metric.WithDescription("Duration of calculator commands in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating ops histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of calculator errors"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last calculator operation"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	historySizeGauge, err = meter.Int64Gauge("calculator.history.size",
		metric.WithDescription("Number of calculations in the live history"),
		metric.WithUnit("{calculation}"),
	)
	if err != nil {
		return fmt.Errorf("creating history size gauge: %w", err)
	}

	return nil
}

// ErrorCounter counts failed commands, labelled by operation.
func ErrorCounter() metric.Int64Counter {
	return errorCounter
}

// DurationHistogram records command latency in milliseconds.
func DurationHistogram() metric.Float64Histogram {
	return opsHistogram
}
