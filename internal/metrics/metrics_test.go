package metrics

import (
	"math/big"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"hubswap/internal/model"
)

func TestObserveEvents(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Observe([]model.Event{
		{Seq: 1, Name: model.EventSwap, Data: model.SwapEventData{AssetIn: "A", AssetOut: "B"}},
		{Seq: 2, Name: model.EventSwap, Data: model.SwapEventData{AssetIn: "A", AssetOut: "B"}},
		{Seq: 3, Name: model.EventLossCovered, Data: model.LossCoveredEventData{Requested: "100", Paid: "60"}},
	})

	require.Equal(t, 2.0, testutil.ToFloat64(m.SwapsTotal.WithLabelValues("A", "B")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues(model.EventSwap)))
	require.Equal(t, 60.0, testutil.ToFloat64(m.LossCoveredTotal))
	require.Equal(t, 40.0, testutil.ToFloat64(m.LossShortfall))
	require.Equal(t, 3.0, testutil.ToFloat64(m.LastCommittedSeq))
}

func TestObservePairsAndOperations(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObservePairs([]model.PairRecord{{
		Asset:          "0xabc",
		NativeReserve:  "2500000000000000000",
		ForeignReserve: "1000000000000000000",
		TotalUnits:     "0",
	}})
	require.Equal(t, 2.5, testutil.ToFloat64(m.NativeReserve.WithLabelValues("0xabc")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ForeignReserve.WithLabelValues("0xabc")))

	m.ObserveOperation(model.OpSwapExactIn, model.StatusOK, 7, time.Millisecond)
	require.Equal(t, 1.0, testutil.ToFloat64(m.OperationsTotal.WithLabelValues(model.OpSwapExactIn, model.StatusOK)))
	require.Equal(t, 7.0, testutil.ToFloat64(m.ReplayLine))
}

func TestObserveReserve(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveReserve(big.NewInt(150_000_000), 8)
	require.Equal(t, 1.5, testutil.ToFloat64(m.ReserveBalance))
}
