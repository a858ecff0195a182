// Package metrics exposes Prometheus collectors fed from committed events
// and replay progress.
package metrics

import (
	"math/big"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hubswap/internal/model"
	"hubswap/internal/units"
)

const namespace = "hubswap"

// Metrics holds the exchange collectors.
type Metrics struct {
	EventsTotal      *prometheus.CounterVec
	SwapsTotal       *prometheus.CounterVec
	OperationsTotal  *prometheus.CounterVec
	OperationLatency prometheus.Histogram
	LossCoveredTotal prometheus.Counter
	LossShortfall    prometheus.Counter
	NativeReserve    *prometheus.GaugeVec
	ForeignReserve   *prometheus.GaugeVec
	LiquidityUnits   *prometheus.GaugeVec
	ReserveBalance   prometheus.Gauge
	LastCommittedSeq prometheus.Gauge
	ReplayLine       prometheus.Gauge
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Committed events by name",
		}, []string{"event"}),
		SwapsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "swaps_total",
			Help:      "Committed single-leg swaps by direction",
		}, []string{"asset_in", "asset_out"}),
		OperationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "operations_total",
			Help:      "Replayed operations by kind and status",
		}, []string{"op", "status"}),
		OperationLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "operation_duration_seconds",
			Help:      "Time to apply one operation",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		LossCoveredTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reserve",
			Name:      "loss_covered_total",
			Help:      "Native tokens paid as impermanent-loss reimbursement",
		}),
		LossShortfall: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reserve",
			Name:      "loss_shortfall_total",
			Help:      "Reimbursement requested but not paid because the reserve was short",
		}),
		NativeReserve: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "native_reserve",
			Help:      "Native reserve per pair",
		}, []string{"asset"}),
		ForeignReserve: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "foreign_reserve",
			Help:      "Foreign reserve per pair, synth backing included",
		}, []string{"asset"}),
		LiquidityUnits: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pool",
			Name:      "liquidity_units",
			Help:      "Outstanding liquidity units per pair",
		}, []string{"asset"}),
		ReserveBalance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reserve",
			Name:      "balance",
			Help:      "Native balance held by the reserve",
		}),
		LastCommittedSeq: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_event_seq",
			Help:      "Sequence number of the last committed event",
		}),
		ReplayLine: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "line",
			Help:      "Last input line applied",
		}),
	}
}

// Observe records a committed batch of events. It matches state.CommitHook.
func (m *Metrics) Observe(events []model.Event) {
	for _, ev := range events {
		m.EventsTotal.WithLabelValues(ev.Name).Inc()
		m.LastCommittedSeq.Set(float64(ev.Seq))
		switch data := ev.Data.(type) {
		case model.SwapEventData:
			m.SwapsTotal.WithLabelValues(data.AssetIn, data.AssetOut).Inc()
		case model.LossCoveredEventData:
			paid := parse(data.Paid)
			m.LossCoveredTotal.Add(paid)
			if short := parse(data.Requested) - paid; short > 0 {
				m.LossShortfall.Add(short)
			}
		}
	}
}

// ObserveOperation records one replayed operation.
func (m *Metrics) ObserveOperation(op, status string, line uint64, took time.Duration) {
	m.OperationsTotal.WithLabelValues(op, status).Inc()
	m.OperationLatency.Observe(took.Seconds())
	m.ReplayLine.Set(float64(line))
}

// ObservePairs sets reserve gauges from a snapshot. Amounts are internal
// 18-decimal units.
func (m *Metrics) ObservePairs(pairs []model.PairRecord) {
	for _, p := range pairs {
		m.NativeReserve.WithLabelValues(p.Asset).Set(scaled(p.NativeReserve))
		m.ForeignReserve.WithLabelValues(p.Asset).Set(scaled(p.ForeignReserve))
		m.LiquidityUnits.WithLabelValues(p.Asset).Set(scaled(p.TotalUnits))
	}
}

func parse(s string) float64 {
	v, ok := new(big.Float).SetString(s)
	if !ok {
		return 0
	}
	f, _ := v.Float64()
	return f
}

var internalScale = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

func scaled(s string) float64 {
	v, ok := new(big.Float).SetString(s)
	if !ok {
		return 0
	}
	f, _ := v.Quo(v, internalScale).Float64()
	return f
}

// ObserveReserve sets the reserve balance gauge from a native-precision
// amount.
func (m *Metrics) ObserveReserve(balance *big.Int, decimals uint8) {
	m.ReserveBalance.Set(parse(units.Format(balance, decimals)))
}
