// Package metrics records what a run did in a Prometheus registry that is
// written out as a node-exporter textfile next to the charts.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fcfreview"

// Chart outcomes used as the "outcome" label
const (
	OutcomeWritten = "written"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Recorder holds the collectors for one run. Each run gets its own
// registry so nothing leaks between runs in the same process.
type Recorder struct {
	Registry *prometheus.Registry

	RowsLoaded   prometheus.Counter
	RowsDropped  prometheus.Counter
	ParseErrors  *prometheus.CounterVec
	GapErrors    prometheus.Counter
	Observations *prometheus.GaugeVec
	Charts       *prometheus.CounterVec
	BeamFWHM     *prometheus.GaugeVec
	BeamSkips    *prometheus.CounterVec
	RunDuration  prometheus.Gauge
	LastRun      prometheus.Gauge
}

// NewRecorder creates a Recorder with a fresh registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		Registry: reg,

		RowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_loaded_total",
			Help:      "Data rows read from the catalog, including dropped ones",
		}),
		RowsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_dropped_total",
			Help:      "Rows excluded because a timestamp, band or target could not be read",
		}),
		ParseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_errors_total",
			Help:      "Catalog cells that could not be parsed, by column",
		}, []string{"column"}),
		GapErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gap_errors_total",
			Help:      "Observations outside every epoch interval",
		}),
		Observations: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observations",
			Help:      "Classified observations per band and coarse epoch",
		}, []string{"band", "epoch"}),
		Charts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "charts_total",
			Help:      "Charts by band and outcome",
		}, []string{"band", "outcome"}),
		BeamFWHM: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "beam_fwhm_arcsec",
			Help:      "Empirical beam FWHM from the reference target fit",
		}, []string{"band"}),
		BeamSkips: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "beam_fit_skipped_total",
			Help:      "Beam fits not produced, by band and reason",
		}, []string{"band", "reason"}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// ChartOutcome counts one chart
func (r *Recorder) ChartOutcome(band, outcome string) {
	r.Charts.WithLabelValues(band, outcome).Inc()
}

// Finish records the run duration and completion time
func (r *Recorder) Finish(start, end time.Time) {
	r.RunDuration.Set(end.Sub(start).Seconds())
	r.LastRun.Set(float64(end.Unix()))
}

// WriteTextfile writes the registry in the text exposition format
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
