// Package metrics records release train runs as Prometheus metrics.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/grokify/releasetrain/internal/hosting"
)

const namespace = "releasetrain"

// Recorder owns a private registry so concurrent runs and tests never share
// counters.
type Recorder struct {
	registry *prometheus.Registry

	hostingRequests *prometheus.CounterVec
	hostingDuration *prometheus.HistogramVec
	phaseDuration   *prometheus.GaugeVec
	discovered      prometheus.Gauge
	releaseSet      prometheus.Gauge
	scanPasses      prometheus.Gauge
	releasesCreated prometheus.Counter
	lastSuccess     prometheus.Gauge
	lastRun         prometheus.Gauge
}

// NewRecorder creates a recorder with all metrics registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		hostingRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hosting_requests_total",
				Help:      "Number of hosting API calls by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		hostingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hosting_request_duration_seconds",
				Help:      "Time taken by hosting API calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		phaseDuration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Time taken by each phase of the last run.",
			},
			[]string{"phase"},
		),
		discovered: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_packages",
			Help:      "Number of packages in the dependency graph of the last run.",
		}),
		releaseSet: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "release_set_size",
			Help:      "Number of packages planned for release in the last run.",
		}),
		scanPasses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_passes",
			Help:      "Number of discovery passes of the last run.",
		}),
		releasesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_created_total",
			Help:      "Total number of releases published.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run completed without error.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
	}

	r.registry.MustRegister(
		r.hostingRequests,
		r.hostingDuration,
		r.phaseDuration,
		r.discovered,
		r.releaseSet,
		r.scanPasses,
		r.releasesCreated,
		r.lastSuccess,
		r.lastRun,
	)
	return r
}

// Registry exposes the recorder's registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveHosting records one hosting call.
func (r *Recorder) ObserveHosting(op string, d time.Duration, err error) {
	r.hostingRequests.WithLabelValues(op, Outcome(err)).Inc()
	r.hostingDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObservePhase records how long a phase took.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phaseDuration.WithLabelValues(phase).Set(d.Seconds())
}

// SetGraph records the size of the discovered graph.
func (r *Recorder) SetGraph(packages, passes int) {
	r.discovered.Set(float64(packages))
	r.scanPasses.Set(float64(passes))
}

// SetReleaseSet records the number of planned releases.
func (r *Recorder) SetReleaseSet(n int) {
	r.releaseSet.Set(float64(n))
}

// ReleaseCreated counts one published release.
func (r *Recorder) ReleaseCreated() {
	r.releasesCreated.Inc()
}

// Finish records the end of a run.
func (r *Recorder) Finish(at time.Time, err error) {
	if err == nil {
		r.lastSuccess.Set(1)
	} else {
		r.lastSuccess.Set(0)
	}
	r.lastRun.Set(float64(at.Unix()))
}

// WriteTextfile writes all metrics in the node exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// Outcome classifies a hosting error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, hosting.ErrFileNotFound), errors.Is(err, hosting.ErrRefNotFound):
		return "not_found"
	case errors.Is(err, hosting.ErrAlreadyExists):
		return "exists"
	case errors.Is(err, hosting.ErrConflictingHash):
		return "conflict"
	default:
		return "error"
	}
}
