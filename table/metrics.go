package table

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts block reads. A nil *Metrics records nothing.
type Metrics struct {
	BlocksRead   *prometheus.CounterVec
	BytesDecoded *prometheus.CounterVec
	ReadErrors   *prometheus.CounterVec
	TablesOpen   prometheus.Gauge
}

// NewMetrics creates the table metrics and registers them with reg. A nil
// reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BlocksRead: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sstable_blocks_read_total",
				Help: "Blocks read and decoded, by compression type",
			},
			[]string{"compression"},
		),
		BytesDecoded: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sstable_block_bytes_decoded_total",
				Help: "Decoded block bytes handed to callers, by compression type",
			},
			[]string{"compression"},
		),
		ReadErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sstable_block_read_errors_total",
				Help: "Failed block reads, by error kind",
			},
			[]string{"kind"},
		),
		TablesOpen: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "sstable_tables_open",
				Help: "Tables currently open",
			},
		),
	}
}

func (m *Metrics) blockRead(c CompressionType, n int) {
	if m == nil {
		return
	}
	m.BlocksRead.WithLabelValues(c.String()).Inc()
	m.BytesDecoded.WithLabelValues(c.String()).Add(float64(n))
}

func (m *Metrics) readFailed(kind string) {
	if m == nil {
		return
	}
	m.ReadErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) tableOpened() {
	if m == nil {
		return
	}
	m.TablesOpen.Inc()
}

func (m *Metrics) tableClosed() {
	if m == nil {
		return
	}
	m.TablesOpen.Dec()
}
