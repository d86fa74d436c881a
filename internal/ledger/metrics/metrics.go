package metrics

import (
	"math/big"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"dua/internal/ledger/models"
)

// Metrics provides observability for the ledger module.
type Metrics struct {
	Operations        *prometheus.CounterVec
	Rejections        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TotalSupply       prometheus.Gauge
	Paused            prometheus.Gauge
	KillSwitch        *prometheus.GaugeVec
	JournalSeq        prometheus.Gauge
}

// New registers the ledger metrics with the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the ledger metrics with reg. Tests pass a fresh registry.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dua_ledger_operations_total",
			Help: "Ledger operations by action and outcome",
		}, []string{"action", "outcome"}),
		Rejections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dua_ledger_rejections_total",
			Help: "Rejected ledger operations by reason",
		}, []string{"reason"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dua_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations including journal commit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"action"}),
		TotalSupply: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dua_ledger_total_supply",
			Help: "Total supply in base units (approximate above 2^53)",
		}),
		Paused: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dua_ledger_paused",
			Help: "1 while the ledger is paused",
		}),
		KillSwitch: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dua_ledger_kill_switch_disabled",
			Help: "1 once a feature has been self-destructed",
		}, []string{"feature"}),
		JournalSeq: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dua_ledger_journal_seq",
			Help: "Sequence number of the last committed operation",
		}),
	}
}

// ObserveOperation records one operation outcome. reason is empty when the
// operation was accepted.
func (m *Metrics) ObserveOperation(action, reason string, start time.Time) {
	outcome := "accepted"
	if reason != "" {
		outcome = "rejected"
		m.Rejections.WithLabelValues(reason).Inc()
	}
	m.Operations.WithLabelValues(action, outcome).Inc()
	m.OperationDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

// SetState publishes the ledger-wide gauges from a consistent snapshot.
func (m *Metrics) SetState(info models.LedgerInfo) {
	m.TotalSupply.Set(toFloat(info.TotalSupply))
	m.Paused.Set(boolGauge(info.Paused))
	for f, disabled := range info.KillSwitches {
		m.KillSwitch.WithLabelValues(string(f)).Set(boolGauge(disabled))
	}
	m.JournalSeq.Set(float64(info.Seq))
}

func toFloat(v *uint256.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v.ToBig()).Float64()
	return f
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
