// Package metrics registers the simulation core's Prometheus
// collectors: queue depth, scheduler task latency, store commit/rewind
// counters, and frame accept/reject/MAC-failure counters.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trillek-sim/corebox/store"
)

// Registry groups every collector corebox exposes. Construct one with
// NewRegistry and hand its StoreMetrics adapter to store.New; there is
// no package-level global registry. The scheduler and transport
// constructors take no registry, so the Scheduler* and transport
// collectors are registered and served but never updated.
type Registry struct {
	reg *prometheus.Registry

	StoreCommits   *prometheus.CounterVec
	StoreRewinds   prometheus.Counter
	StoreRebases   prometheus.Counter
	StorePullWaits prometheus.Counter

	SchedulerTaskLatency prometheus.Histogram
	SchedulerQueueDepth  prometheus.Gauge
	SchedulerSplits      prometheus.Counter
	SchedulerRequeues    prometheus.Counter

	FramesAccepted  *prometheus.CounterVec
	FramesRejected  *prometheus.CounterVec
	MACFailures     prometheus.Counter
	ActiveSessions  prometheus.Gauge
}

// NewRegistry builds and registers every collector against a fresh
// prometheus.Registry.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Registry{
		reg: reg,

		StoreCommits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "store", Name: "commits_total",
			Help: "Number of commits published per component kind.",
		}, []string{"kind"}),
		StoreRewinds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "store", Name: "rewinds_total",
			Help: "Number of checkouts that moved head backward.",
		}),
		StoreRebases: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "store", Name: "rebases_total",
			Help: "Number of non-empty pushes plus pulls that detected a rebase.",
		}),
		StorePullWaits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "store", Name: "pull_waits_total",
			Help: "Number of pull calls that had to wait for a future commit.",
		}),

		SchedulerTaskLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "corebox", Subsystem: "scheduler", Name: "task_latency_seconds",
			Help:    "Time from a task becoming due to it starting execution.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		SchedulerQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "corebox", Subsystem: "scheduler", Name: "queue_depth",
			Help: "Number of task requests currently queued.",
		}),
		SchedulerSplits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "scheduler", Name: "chain_splits_total",
			Help: "Number of SPLIT block outcomes.",
		}),
		SchedulerRequeues: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "scheduler", Name: "chain_requeues_total",
			Help: "Number of REQUEUE block outcomes.",
		}),

		FramesAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "transport", Name: "frames_accepted_total",
			Help: "Number of frames that passed reassembly and integrity checks.",
		}, []string{"major"}),
		FramesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "transport", Name: "frames_rejected_total",
			Help: "Number of frames rejected, by reason.",
		}, []string{"reason"}),
		MACFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "corebox", Subsystem: "transport", Name: "mac_failures_total",
			Help: "Number of frames silently dropped for failing MAC verification.",
		}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "corebox", Subsystem: "transport", Name: "active_sessions",
			Help: "Number of connections currently past AUTHENTICATED.",
		}),
	}
}

// Handler returns the HTTP handler to serve the registry's collectors.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// StoreMetrics adapts a Registry to store.Metrics, so store.New can be
// handed real collectors without the store package importing
// Prometheus itself.
type StoreMetrics struct {
	reg *Registry
}

// StoreMetrics builds the store.Metrics adapter bound to this
// registry's collectors.
func (r *Registry) StoreMetrics() StoreMetrics { return StoreMetrics{reg: r} }

func (m StoreMetrics) CommitObserved(k store.Kind) {
	m.reg.StoreCommits.WithLabelValues(k.String()).Inc()
}
func (m StoreMetrics) RewindObserved()   { m.reg.StoreRewinds.Inc() }
func (m StoreMetrics) RebaseObserved()   { m.reg.StoreRebases.Inc() }
func (m StoreMetrics) PullWaitObserved() { m.reg.StorePullWaits.Inc() }
