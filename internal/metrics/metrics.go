// Package metrics exposes ingestion counters through the prometheus component.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	promcomp "github.com/grand-thief-cash/chaos/app/projects/dataupdate/internal/infra/prometheus"
)

// Metrics is safe to use on a nil receiver: every method is then a no-op.
type Metrics struct {
	dates        *prometheus.CounterVec
	rows         *prometheus.CounterVec
	syncTables   *prometheus.CounterVec
	syncDuration *prometheus.HistogramVec
	syncRows     *prometheus.GaugeVec
}

// New registers the collectors; a nil component yields nil (disabled).
func New(c *promcomp.Component) *Metrics {
	if c == nil {
		return nil
	}
	return &Metrics{
		dates:        c.NewCounter("dates_total", "Processed family dates by outcome.", []string{"family", "status"}),
		rows:         c.NewCounter("rows_written_total", "Rows persisted per family.", []string{"family"}),
		syncTables:   c.NewCounter("sync_tables_total", "Mirrored tables by outcome.", []string{"status"}),
		syncDuration: c.NewHistogram("sync_duration_seconds", "Table mirror duration.", []string{"table"}, nil),
		syncRows:     c.NewGauge("sync_rows", "Rows loaded by the last mirror of a table.", []string{"table"}),
	}
}

func (m *Metrics) ObserveDate(family, status string) {
	if m == nil {
		return
	}
	m.dates.WithLabelValues(family, status).Inc()
}

func (m *Metrics) AddRows(family string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rows.WithLabelValues(family).Add(float64(n))
}

// ObserveSync implements mirror.Recorder.
func (m *Metrics) ObserveSync(table, status string, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.syncTables.WithLabelValues(status).Inc()
	m.syncDuration.WithLabelValues(table).Observe(elapsed.Seconds())
	m.syncRows.WithLabelValues(table).Set(float64(rows))
}
