package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/stm-go/pkg/stm"
)

const namespace = "stm"

// unlabelled is used for transactions built without Named.
const unlabelled = "unnamed"

// overflowLabel replaces every label seen after MaxLabels distinct ones.
const overflowLabel = "other"

// MaxLabels bounds the distinct transaction labels exported as series.
// Labels should come from a small fixed set such as operation names.
const MaxLabels = 64

// Registry owns a Prometheus registry and the engine metrics in it.
// It implements stm.Observer.
type Registry struct {
	reg *prometheus.Registry

	commits  *prometheus.CounterVec
	retries  *prometheus.CounterVec
	aborts   *prometheus.CounterVec
	cancels  *prometheus.CounterVec
	attempts prometheus.Histogram
	writes   prometheus.Histogram
	duration *prometheus.HistogramVec

	labelsMu sync.Mutex
	labels   map[string]struct{}
}

var _ stm.Observer = (*Registry)(nil)

// NewRegistry creates a registry with the engine metrics and the Go runtime
// and process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg:    prometheus.NewRegistry(),
		labels: make(map[string]struct{}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "commits_total",
			Help:      "Committed transactions.",
		}, []string{"label"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "retries_total",
			Help:      "Attempts rolled back and rerun, by reason.",
		}, []string{"label", "reason"}),
		aborts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "aborts_total",
			Help:      "Transactions aborted because a referenced cell was deleted.",
		}, []string{"label"}),
		cancels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "cancellations_total",
			Help:      "Transactions stopped between attempts by context or shutdown.",
		}, []string{"label"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "attempts",
			Help:      "Attempts needed per committed transaction.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		writes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "write_set_size",
			Help:      "Cells flushed per commit.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "txn",
			Name:      "duration_seconds",
			Help:      "Time from first attempt to terminal state, by outcome.",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 16),
		}, []string{"outcome"}),
	}

	r.reg.MustRegister(
		r.commits, r.retries, r.aborts, r.cancels,
		r.attempts, r.writes, r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// MustRegister adds collectors to the registry.
func (r *Registry) MustRegister(cs ...prometheus.Collector) {
	r.reg.MustRegister(cs...)
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler returns the /metrics HTTP handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

func (r *Registry) OnCommit(e stm.Event) {
	r.commits.WithLabelValues(r.labelOf(e)).Inc()
	r.attempts.Observe(float64(e.Attempt))
	r.writes.Observe(float64(e.Writes))
	r.duration.WithLabelValues("committed").Observe(e.Duration.Seconds())
}

func (r *Registry) OnRetry(e stm.Event) {
	r.retries.WithLabelValues(r.labelOf(e), string(e.Reason)).Inc()
}

func (r *Registry) OnAbort(e stm.Event) {
	r.aborts.WithLabelValues(r.labelOf(e)).Inc()
	r.duration.WithLabelValues("aborted").Observe(e.Duration.Seconds())
}

func (r *Registry) OnCancel(e stm.Event) {
	r.cancels.WithLabelValues(r.labelOf(e)).Inc()
	r.duration.WithLabelValues("cancelled").Observe(e.Duration.Seconds())
}

func (r *Registry) labelOf(e stm.Event) string {
	if e.Label == "" {
		return unlabelled
	}
	r.labelsMu.Lock()
	defer r.labelsMu.Unlock()
	if _, ok := r.labels[e.Label]; ok {
		return e.Label
	}
	if len(r.labels) >= MaxLabels {
		return overflowLabel
	}
	r.labels[e.Label] = struct{}{}
	return e.Label
}
