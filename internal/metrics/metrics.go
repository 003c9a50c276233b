// Package metrics exposes Prometheus instrumentation for sitemap builds.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sitemapgen"

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	EntriesAdded   *prometheus.CounterVec
	EntriesDropped *prometheus.CounterVec
	BatchesFetched *prometheus.CounterVec
	PressureRelief prometheus.Counter

	Runs          *prometheus.CounterVec
	BuildDuration prometheus.Histogram
	WriteDuration prometheus.Histogram
	PageBytes     prometheus.Histogram
	TotalPages    prometheus.Gauge
	LastSuccess   prometheus.Gauge
}

// New registers the collectors with reg, or the default registerer when nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{}
	m.initBuildMetrics(factory)
	m.initRunMetrics(factory)
	return m
}

func (m *Metrics) initBuildMetrics(factory promauto.Factory) {
	m.EntriesAdded = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "build",
		Name:      "entries_added_total",
		Help:      "Entries accepted into the sitemap, by kind",
	}, []string{"kind"})

	m.EntriesDropped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "build",
		Name:      "entries_dropped_total",
		Help:      "Candidates dropped because they had no URL, by kind",
	}, []string{"kind"})

	m.BatchesFetched = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "build",
		Name:      "batches_fetched_total",
		Help:      "Repository batches fetched, by kind",
	}, []string{"kind"})

	m.PressureRelief = factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "build",
		Name:      "pressure_relief_total",
		Help:      "Forced collections triggered by the heap threshold",
	})
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.Runs = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Generation runs, by status",
	}, []string{"status"})

	m.BuildDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "build_duration_seconds",
		Help:      "Time spent enumerating content",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
	})

	m.WriteDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "write_duration_seconds",
		Help:      "Time spent persisting pages",
		Buckets:   prometheus.DefBuckets,
	})

	m.PageBytes = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "page_bytes",
		Help:      "Serialized size of persisted pages",
		Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
	})

	m.TotalPages = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "total_pages",
		Help:      "Page count of the last successful write",
	})

	m.LastSuccess = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})
}

func (m *Metrics) EntryAdded(kind string) {
	if m == nil {
		return
	}
	m.EntriesAdded.WithLabelValues(kind).Inc()
}

func (m *Metrics) EntryDropped(kind string) {
	if m == nil {
		return
	}
	m.EntriesDropped.WithLabelValues(kind).Inc()
}

func (m *Metrics) BatchFetched(kind string) {
	if m == nil {
		return
	}
	m.BatchesFetched.WithLabelValues(kind).Inc()
}

func (m *Metrics) Relieved() {
	if m == nil {
		return
	}
	m.PressureRelief.Inc()
}

func (m *Metrics) PageWritten(size int) {
	if m == nil {
		return
	}
	m.PageBytes.Observe(float64(size))
}

func (m *Metrics) ObserveBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveWrite(d time.Duration) {
	if m == nil {
		return
	}
	m.WriteDuration.Observe(d.Seconds())
}

// RunFinished records the outcome of a run.
func (m *Metrics) RunFinished(err error, totalPages int, at time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.Runs.WithLabelValues("failed").Inc()
		return
	}
	m.Runs.WithLabelValues("success").Inc()
	m.TotalPages.Set(float64(totalPages))
	m.LastSuccess.Set(float64(at.Unix()))
}
