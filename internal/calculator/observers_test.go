package calculator

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggingObserverLogsCalculation(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	c := newTestCalculator()
	c.AddObserver(NewLoggingObserver(zap.New(core)))
	perform(t, c, Addition, "2", "3")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Message != "calculation performed" {
		t.Fatalf("expected message %q, got %q", "calculation performed", entries[0].Message)
	}

	fields := entries[0].ContextMap()
	for key, want := range map[string]string{
		"operation": "Addition",
		"operand1":  "2",
		"operand2":  "3",
		"result":    "5",
	} {
		if fields[key] != want {
			t.Fatalf("expected %s %q, got %#v", key, want, fields[key])
		}
	}
}

type countingSaver struct {
	saves int
	err   error
}

func (s *countingSaver) SaveHistory() error {
	s.saves++
	return s.err
}

func TestAutoSaveObserver(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		saver := &countingSaver{}
		if err := NewAutoSaveObserver(saver, true).OnCalculation(Calculation{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saver.saves != 1 {
			t.Fatalf("expected 1 save, got %d", saver.saves)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		saver := &countingSaver{}
		if err := NewAutoSaveObserver(saver, false).OnCalculation(Calculation{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saver.saves != 0 {
			t.Fatalf("expected no saves, got %d", saver.saves)
		}
	})

	t.Run("failure", func(t *testing.T) {
		boom := errors.New("read-only file system")
		saver := &countingSaver{err: boom}
		if err := NewAutoSaveObserver(saver, true).OnCalculation(Calculation{}); !errors.Is(err, boom) {
			t.Fatalf("expected save error, got %v", err)
		}
	})
}

func TestAutoSaveObserverSavesThroughCalculator(t *testing.T) {
	store := &memStore{}
	c := newTestCalculator(WithStore(store))
	c.AddObserver(NewAutoSaveObserver(c, true))

	perform(t, c, Addition, "1", "2")
	perform(t, c, Addition, "3", "4")

	if store.saves != 2 {
		t.Fatalf("expected 2 saves, got %d", store.saves)
	}
	if !EqualHistories(store.saved, c.History()) {
		t.Fatal("expected store to hold the live history")
	}
}

func TestMetricsObserverRecordsInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	if err := InitMetrics(); err != nil {
		t.Fatalf("initializing calculator metrics: %v", err)
	}

	ctx := context.Background()
	c := newTestCalculator()
	c.AddObserver(NewMetricsObserver(ctx, func() int { return len(c.History()) }))
	perform(t, c, Addition, "2", "3")
	perform(t, c, Multiplication, "2", "3")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}

	found := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m
		}
	}

	ops, ok := found["calculator.operations.total"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected operations counter, got %#v", found["calculator.operations.total"].Data)
	}
	var total int64
	for _, dp := range ops.DataPoints {
		total += dp.Value
	}
	if total != 2 {
		t.Fatalf("expected 2 operations, got %d", total)
	}

	size, ok := found["calculator.history.size"].Data.(metricdata.Gauge[int64])
	if !ok || len(size.DataPoints) != 1 || size.DataPoints[0].Value != 2 {
		t.Fatalf("expected history size gauge 2, got %#v", found["calculator.history.size"].Data)
	}
}
