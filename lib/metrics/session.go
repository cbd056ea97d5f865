package metrics

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	prometheus "github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

type SessionMetrics struct {
	Loads        metrics.Counter
	Saves        metrics.Counter
	Deletes      metrics.Counter
	StaleErrors  metrics.Counter
	Transactions metrics.Counter
	LiveObjects  metrics.Gauge
}

func (m *SessionMetrics) AddLoad(table string) {
	m.Loads.With(TableLabel, table).Add(1)
}

func (m *SessionMetrics) AddSave(table string) {
	m.Saves.With(TableLabel, table).Add(1)
}

func (m *SessionMetrics) AddDelete(table string) {
	m.Deletes.With(TableLabel, table).Add(1)
}

func (m *SessionMetrics) AddStaleError(table string) {
	m.StaleErrors.With(TableLabel, table).Add(1)
}

func (m *SessionMetrics) AddTransaction(success bool) {
	result := ResultRollback
	if success {
		result = ResultCommit
	}
	m.Transactions.With(ResultLabel, result).Add(1)
}

func (m *SessionMetrics) AddLiveObjects(delta int) {
	m.LiveObjects.Add(float64(delta))
}

func PromSessionMetrics() *SessionMetrics {
	return &SessionMetrics{
		Loads: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SessionSubsystem,
			Name:      "loads_total",
			Help:      "Total number of rows loaded into objects.",
		}, []string{TableLabel}),
		Saves: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SessionSubsystem,
			Name:      "saves_total",
			Help:      "Total number of inserted or updated rows.",
		}, []string{TableLabel}),
		Deletes: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SessionSubsystem,
			Name:      "deletes_total",
			Help:      "Total number of deleted rows.",
		}, []string{TableLabel}),
		StaleErrors: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SessionSubsystem,
			Name:      "stale_errors_total",
			Help:      "Total number of version conflicts.",
		}, []string{TableLabel}),
		Transactions: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: SessionSubsystem,
			Name:      "transactions_total",
			Help:      "Total number of finished transactions.",
		}, []string{ResultLabel}),
		LiveObjects: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: SessionSubsystem,
			Name:      "live_objects",
			Help:      "Number of objects held by identity maps.",
		}, []string{}),
	}
}

func NopSessionMetrics() *SessionMetrics {
	return &SessionMetrics{
		Loads:        discard.NewCounter(),
		Saves:        discard.NewCounter(),
		Deletes:      discard.NewCounter(),
		StaleErrors:  discard.NewCounter(),
		Transactions: discard.NewCounter(),
		LiveObjects:  discard.NewGauge(),
	}
}
