package calculator

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LoggingObserver writes one structured log entry per calculation.
type LoggingObserver struct {
	logger *zap.Logger
}

// NewLoggingObserver returns an observer logging to logger.
func NewLoggingObserver(logger *zap.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnCalculation(c Calculation) error {
	o.logger.Info("calculation performed",
		zap.String("operation", c.Operation),
		zap.String("operand1", c.Operand1.String()),
		zap.String("operand2", c.Operand2.String()),
		zap.String("result", c.Result.String()),
		zap.Time("timestamp", c.Timestamp),
	)
	return nil
}

// HistorySaver is anything that can persist its history.
type HistorySaver interface {
	SaveHistory() error
}

// AutoSaveObserver saves the history after every calculation when enabled.
type AutoSaveObserver struct {
	target  HistorySaver
	enabled bool
}

// NewAutoSaveObserver returns an observer saving target when enabled is true.
func NewAutoSaveObserver(target HistorySaver, enabled bool) *AutoSaveObserver {
	return &AutoSaveObserver{target: target, enabled: enabled}
}

func (o *AutoSaveObserver) OnCalculation(Calculation) error {
	if !o.enabled {
		return nil
	}
	return o.target.SaveHistory()
}

// MetricsObserver feeds the calculator metric instruments.
type MetricsObserver struct {
	ctx  context.Context
	size func() int
}

// NewMetricsObserver records metrics under ctx; size reports the live
// history length after each calculation.
func NewMetricsObserver(ctx context.Context, size func() int) *MetricsObserver {
	return &MetricsObserver{ctx: ctx, size: size}
}

func (o *MetricsObserver) OnCalculation(c Calculation) error {
	attrs := metric.WithAttributes(attribute.String("operation", c.Operation))
	opsCounter.Add(o.ctx, 1, attrs)
	resultGauge.Record(o.ctx, c.Result.InexactFloat64(), attrs)
	if o.size != nil {
		historySizeGauge.Record(o.ctx, int64(o.size()))
	}
	return nil
}
