package observability

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// instruments holds the OTel instruments of the current meter provider,
// scraped alongside registry. Each InitMetrics swaps in a fresh one.
var instruments atomic.Pointer[prometheus.Registry]

// InitMetrics installs the meter provider the calculator instruments report
// through. It always feeds /metrics and adds a periodic OTLP reader when
// ExportEnabled.
func InitMetrics(ctx context.Context, res *resource.Resource) (ShutdownFunc, error) {
	reg := prometheus.NewRegistry()
	scrape, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(scrape),
	}
	if ExportEnabled() {
		exporter, err := otlpmetrichttp.New(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)))
	}

	provider := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(provider)
	instruments.Store(reg)

	return provider.Shutdown, nil
}

// registry backs /metrics. It holds the Go runtime and process collectors
// plus calculator_build_info.
var registry = newRegistry()

var buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
	Name: "calculator_build_info",
	Help: "Always 1; labelled with the running calculator version and service name.",
}, []string{"version", "service"})

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
	)
	return reg
}

// SetBuildInfo publishes version on calculator_build_info.
func SetBuildInfo(version string) {
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, ServiceName()).Set(1)
}

// PrometheusHandler serves the diagnostics registry and, once InitMetrics has
// run, the calculator's OTel instruments.
func PrometheusHandler() http.Handler {
	gatherers := prometheus.Gatherers{registry, prometheus.GathererFunc(gatherInstruments)}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{Registry: registry})
}

func gatherInstruments() ([]*dto.MetricFamily, error) {
	reg := instruments.Load()
	if reg == nil {
		return nil, nil
	}
	return reg.Gather()
}
