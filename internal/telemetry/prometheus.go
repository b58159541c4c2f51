package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewPromRegistry returns a registry with Go runtime and process collectors
// and a build info gauge. Application metrics go through OTLP.
func NewPromRegistry(serviceName, version, environment string) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "puravida_build_info",
		Help: "Build metadata of the running service.",
	}, []string{"service", "version", "environment"})
	buildInfo.WithLabelValues(serviceName, version, environment).Set(1)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		buildInfo,
	)
	return reg
}

func PromHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
