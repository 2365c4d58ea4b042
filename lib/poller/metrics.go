package poller

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered once per process; every Poller reports into the same series.
var exported = struct {
	SweepDuration prometheus.Histogram
	SweepsTotal   prometheus.Counter
	Indexers      *prometheus.CounterVec
	Items         *prometheus.CounterVec
}{
	SweepDuration: promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "indexwatch_sweep_duration_seconds",
		Help:    "Time spent polling every indexer once",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}),
	SweepsTotal: promauto.NewCounter(prometheus.CounterOpts{
		Name: "indexwatch_sweeps_total",
		Help: "Total number of completed sweeps",
	}),
	Indexers: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexwatch_indexer_polls_total",
		Help: "Indexer polls by result",
	}, []string{"result"}),
	Items: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "indexwatch_items_total",
		Help: "New feed items by delivery result",
	}, []string{"result"}),
}

type sweepMetrics struct {
	polled      int
	unchanged   int
	notified    int
	undelivered int
	errored     int
	disabled    int
	skipped     int
}

func (m *sweepMetrics) Add(other *sweepMetrics) {
	m.polled += other.polled
	m.unchanged += other.unchanged
	m.notified += other.notified
	m.undelivered += other.undelivered
	m.errored += other.errored
	m.disabled += other.disabled
	m.skipped += other.skipped
}

// logArgs returns the non-zero counters as zap key/value pairs.
func (m *sweepMetrics) logArgs() []any {
	args := make([]any, 0)
	for _, kv := range []struct {
		key string
		val int
	}{
		{"unchanged", m.unchanged},
		{"notified", m.notified},
		{"undelivered", m.undelivered},
		{"errored", m.errored},
		{"disabled", m.disabled},
		{"skipped", m.skipped},
	} {
		if kv.val != 0 {
			args = append(args, kv.key, kv.val)
		}
	}
	return args
}

func (m *sweepMetrics) export(elapsed time.Duration) {
	exported.SweepDuration.Observe(elapsed.Seconds())
	exported.SweepsTotal.Inc()

	exported.Indexers.WithLabelValues("unchanged").Add(float64(m.unchanged))
	exported.Indexers.WithLabelValues("errored").Add(float64(m.errored))
	exported.Indexers.WithLabelValues("disabled").Add(float64(m.disabled))
	exported.Indexers.WithLabelValues("skipped").Add(float64(m.skipped))

	exported.Items.WithLabelValues("notified").Add(float64(m.notified))
	exported.Items.WithLabelValues("undelivered").Add(float64(m.undelivered))
}
