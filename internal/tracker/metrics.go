package tracker

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nmt-project/nmt/internal/nmt"
)

// Metrics mirrors the tracker's live state into Prometheus, the way
// the teacher's internal/metricdata layer exposes store-level gauges.
type Metrics struct {
	reserved  *prometheus.GaugeVec
	committed *prometheus.GaugeVec
	dropped   prometheus.Counter
	degraded  prometheus.Gauge
}

// NewMetrics builds and registers the tracker's metric family against
// reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		reserved: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nmt_reserved_bytes",
			Help: "Bytes currently reserved, by tag.",
		}, []string{"tag"}),
		committed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nmt_committed_bytes",
			Help: "Bytes currently committed, by tag.",
		}, []string{"tag"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nmt_dropped_total",
			Help: "Recording calls abandoned due to node allocator exhaustion.",
		}),
		degraded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nmt_degraded",
			Help: "1 if the tracker has observed an invariant violation it could not fully recover from.",
		}),
	}
	reg.MustRegister(m.reserved, m.committed, m.dropped, m.degraded)
	return m
}

func (m *Metrics) refresh(snapshot map[nmt.Tag]nmt.TagDelta, name func(nmt.Tag) string) {
	m.reserved.Reset()
	m.committed.Reset()
	for tag, v := range snapshot {
		label := name(tag)
		m.reserved.WithLabelValues(label).Set(float64(v.Reserve))
		m.committed.WithLabelValues(label).Set(float64(v.Commit))
	}
}

func (m *Metrics) addDropped(n uint64) {
	if n > 0 {
		m.dropped.Add(float64(n))
	}
}

func (m *Metrics) setDegraded(degraded bool) {
	if degraded {
		m.degraded.Set(1)
	} else {
		m.degraded.Set(0)
	}
}
