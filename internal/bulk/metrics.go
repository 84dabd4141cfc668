package bulk

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are owned by one Loader so that several loaders can live in the
// same process without clashing on a global registry.
type metrics struct {
	files        *prometheus.CounterVec
	quads        prometheus.Counter
	parseSeconds prometheus.Histogram
	busyWorkers  prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quadstream",
				Subsystem: "loader",
				Name:      "files_total",
				Help:      "counter for loaded files by result",
			}, []string{"result"}),
		quads: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "quadstream",
				Subsystem: "loader",
				Name:      "quads_total",
				Help:      "counter for quads handed to the destination",
			}),
		parseSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "quadstream",
				Subsystem: "loader",
				Name:      "parse_duration_seconds",
				Help:      "Bucketed histogram of parse time (s) of files",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 20),
			}),
		busyWorkers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "quadstream",
				Subsystem: "loader",
				Name:      "busy_workers",
				Help:      "number of workers currently parsing a file",
			}),
	}
}

func (m *metrics) register(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.files, m.quads, m.parseSeconds, m.busyWorkers} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

const (
	resultOK     = "ok"
	resultFailed = "failed"
)
