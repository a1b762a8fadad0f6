package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SetupPrometheus returns the registry served on the metrics port. Besides the runtime
// collectors it always carries fittrack_build_info{version}, plus any extra collectors
// (e.g. the pgx pool one).
func SetupPrometheus(versionInfo string, extraCollectors ...prometheus.Collector) *prometheus.Registry {
	promRegistry := prometheus.NewRegistry()

	buildInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "fittrack_build_info",
		Help: "Version of the running fittrack service, value is always 1",
	}, []string{"version"})
	if versionInfo == "" {
		versionInfo = "unknown"
	}
	buildInfo.WithLabelValues(versionInfo).Set(1)

	promRegistry.MustRegister(
		buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range extraCollectors {
		promRegistry.MustRegister(c)
	}

	return promRegistry
}
