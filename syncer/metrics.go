package syncer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the prometheus collectors updated by an Orchestrator.
type Metrics struct {
	Pushes       *prometheus.CounterVec
	PushDuration prometheus.Histogram
	Dirty        prometheus.Gauge
	MergeRecords *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg, if not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Pushes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cj_sync_push_total",
				Help: "Number of pushes to the remote copy by result",
			},
			[]string{"result"},
		),
		PushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cj_sync_push_duration_seconds",
				Help:    "Duration of pushes to the remote copy in seconds, retries included",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
			},
		),
		Dirty: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cj_sync_dirty",
				Help: "1 when local changes have not been pushed yet",
			},
		),
		MergeRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cj_sync_merge_records",
				Help: "Number of records after the last merge, by collection",
			},
			[]string{"collection"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Pushes, m.PushDuration, m.Dirty, m.MergeRecords)
	}
	return m
}

func (m *Metrics) setDirty(dirty bool) {
	if dirty {
		m.Dirty.Set(1)
	} else {
		m.Dirty.Set(0)
	}
}
