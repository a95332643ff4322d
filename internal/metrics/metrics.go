// Package metrics provides Prometheus metrics for sync passes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reposync/pkg/syncer"
)

// Recorder implements syncer.Recorder on top of a Prometheus registry
type Recorder struct {
	gatherer prometheus.Gatherer

	filesTotal   *prometheus.CounterVec
	bytesTotal   *prometheus.CounterVec
	passesTotal  *prometheus.CounterVec
	passDuration *prometheus.HistogramVec
	lastSuccess  *prometheus.GaugeVec
}

// NewRecorder registers the sync metrics on a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewRecorderWith(reg, reg)
}

// NewRecorderWith registers the sync metrics on reg and serves them from
// gatherer
func NewRecorderWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: gatherer,

		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reposync_files_total",
				Help: "Files processed by sync passes",
			},
			[]string{"direction", "status"},
		),

		bytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reposync_bytes_total",
				Help: "Bytes transferred by successful file syncs",
			},
			[]string{"direction"},
		),

		passesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reposync_passes_total",
				Help: "Sync passes by outcome",
			},
			[]string{"direction", "outcome"},
		),

		passDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reposync_pass_duration_seconds",
				Help:    "Sync pass duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"direction"},
		),

		lastSuccess: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reposync_last_success_timestamp_seconds",
				Help: "Unix time of the last pass without failures",
			},
			[]string{"direction"},
		),
	}
}

// ObserveResult records one file outcome
func (r *Recorder) ObserveResult(result syncer.Result) {
	direction := string(result.Direction)
	r.filesTotal.WithLabelValues(direction, string(result.Status)).Inc()
	if result.Status == syncer.StatusSuccess {
		r.bytesTotal.WithLabelValues(direction).Add(float64(result.Bytes))
	}
}

// ObservePass records a finished pass
func (r *Recorder) ObservePass(report *syncer.Report) {
	direction := string(report.Direction)
	r.passesTotal.WithLabelValues(direction, Outcome(report)).Inc()
	r.passDuration.WithLabelValues(direction).Observe(report.Duration.Seconds())
	if !report.Failed() {
		r.lastSuccess.WithLabelValues(direction).Set(float64(report.Started.Add(report.Duration).Unix()))
	}
}

// Outcome labels a pass: ok, failed, aborted or config_error
func Outcome(report *syncer.Report) string {
	switch {
	case report.Err != nil && len(report.Results) == 0:
		return "config_error"
	case report.Aborted:
		return "aborted"
	case report.Failed():
		return "failed"
	default:
		return "ok"
	}
}

// Handler returns the Prometheus metrics HTTP handler
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
