package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/autobrr/seedgc/pkg/policy"
)

const namespace = "seedgc"

// Run holds the metrics of a single invocation. Each run gets its own registry
// so the textfile only ever contains the last run.
type Run struct {
	registry *prometheus.Registry

	retrieved *prometheus.GaugeVec
	removed   *prometheus.CounterVec
	freed     prometheus.Counter
	failures  prometheus.Counter
	freeSpace prometheus.Gauge
	below     prometheus.Gauge
	duration  prometheus.Gauge
	lastRun   prometheus.Gauge
}

func NewRun(client string) *Run {
	labels := prometheus.Labels{"client": client}

	r := &Run{
		registry: prometheus.NewRegistry(),
		retrieved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "torrents",
			Help:        "Torrents seen by the last run.",
			ConstLabels: labels,
		}, []string{"state"}),
		removed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "removed_torrents_total",
			Help:        "Torrents removed together with their data.",
			ConstLabels: labels,
		}, []string{"reason"}),
		freed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "removed_bytes_total",
			Help:        "Size of the removed torrents.",
			ConstLabels: labels,
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "remote_failures_total",
			Help:        "Stop or remove calls rejected by the client.",
			ConstLabels: labels,
		}),
		freeSpace: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "free_space_gigabytes",
			Help:        "Free space on the mountpoint at the end of the run.",
			ConstLabels: labels,
		}),
		below: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "below_threshold",
			Help:        "1 if free space was still below the threshold when the run ended.",
			ConstLabels: labels,
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "run_duration_seconds",
			Help:        "Wall time of the last run.",
			ConstLabels: labels,
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix time the last run finished.",
			ConstLabels: labels,
		}),
	}

	r.registry.MustRegister(r.retrieved, r.removed, r.freed, r.failures, r.freeSpace, r.below, r.duration, r.lastRun)

	// expose every reason even when nothing was removed for it
	for _, reason := range []policy.Reason{policy.ReasonRatio, policy.ReasonMaxAge, policy.ReasonFreeSpace} {
		r.removed.WithLabelValues(string(reason))
	}

	return r
}

func (r *Run) Registry() *prometheus.Registry {
	return r.registry
}

// Record copies the outcome of a run into the metrics.
func (r *Run) Record(rep *policy.Report) {
	if rep == nil {
		return
	}

	r.retrieved.WithLabelValues("retrieved").Set(float64(rep.Retrieved))
	r.retrieved.WithLabelValues("ignored").Set(float64(rep.Ignored))

	for _, d := range rep.Removed() {
		r.removed.WithLabelValues(string(d.Reason)).Inc()
	}
	r.freed.Add(float64(rep.RemovedBytes()))
	r.failures.Add(float64(len(rep.Failures)))

	r.freeSpace.Set(float64(rep.FreeSpaceGB))
	if rep.BelowThreshold {
		r.below.Set(1)
	} else {
		r.below.Set(0)
	}

	if !rep.Finished.IsZero() {
		r.duration.Set(rep.Finished.Sub(rep.Started).Seconds())
		r.lastRun.Set(float64(rep.Finished.Unix()))
	}
}

// WriteTextfile writes the registry in the node_exporter textfile collector format.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "write metrics textfile %q", path)
	}

	return nil
}
