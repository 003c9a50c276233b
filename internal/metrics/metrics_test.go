package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/romangod6/sitemapgen/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.EntryAdded("post")
	m.EntryAdded("post")
	m.EntryDropped("term")
	m.BatchFetched("author")
	m.Relieved()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EntriesAdded.WithLabelValues("post")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntriesDropped.WithLabelValues("term")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesFetched.WithLabelValues("author")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PressureRelief))
}

func TestMetrics_RunFinished(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	at := time.Unix(1700000000, 0)

	m.RunFinished(nil, 3, at)
	m.RunFinished(errors.New("store down"), 0, at)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TotalPages))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.LastSuccess))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.EntryAdded("post")
		m.EntryDropped("post")
		m.BatchFetched("post")
		m.Relieved()
		m.PageWritten(10)
		m.ObserveBuild(time.Second)
		m.ObserveWrite(time.Second)
		m.RunFinished(nil, 1, time.Now())
	})
}
