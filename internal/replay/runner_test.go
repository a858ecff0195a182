package replay

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hubswap/internal/amm"
	"hubswap/internal/metrics"
	"hubswap/internal/model"
	"hubswap/internal/router"
)

type memoryStorage struct {
	logs    []model.LogRecord
	results []model.OpResult
}

func (m *memoryStorage) PutLogBatch(logs []model.LogRecord) error {
	m.logs = append(m.logs, logs...)
	return nil
}

func (m *memoryStorage) PutResults(results []model.OpResult) error {
	m.results = append(m.results, results...)
	return nil
}

type fakeDatabase struct {
	failures  int
	events    int
	pairs     int
	positions int
	saved     []uint64
}

func (f *fakeDatabase) UpsertPairs(_ context.Context, pairs []model.PairRecord) error {
	f.pairs = len(pairs)
	return nil
}

func (f *fakeDatabase) UpsertPositions(_ context.Context, positions []model.PositionRecord) error {
	f.positions = len(positions)
	return nil
}

func (f *fakeDatabase) InsertEvents(_ context.Context, logs []model.LogRecord) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("connection reset")
	}
	f.events += len(logs)
	return nil
}

func (f *fakeDatabase) SaveState(_ context.Context, _ string, line uint64) error {
	f.saved = append(f.saved, line)
	return nil
}

func newSystem(t *testing.T) *amm.System {
	t.Helper()
	sys, err := amm.New(amm.DevGenesis(), nil, zap.NewNop())
	require.NoError(t, err)
	return sys
}

func scenario() []model.Operation {
	return []model.Operation{
		{Timestamp: 1000, Kind: model.OpAddLiquidity, Caller: amm.DevAlice, TokenA: amm.DevNative, TokenB: amm.DevBTC, AmountA: "1000", AmountB: "10"},
		{Timestamp: 1010, Kind: model.OpSwapExactIn, Caller: amm.DevBob, Path: []string{amm.DevNative, amm.DevBTC}, Amount: "10"},
		{Timestamp: 1010, Kind: model.OpSwapExactIn, Caller: amm.DevBob, Path: []string{amm.DevNative, amm.DevBTC}, Amount: "10", Limit: "1000"},
		{Timestamp: 1020, Kind: model.OpRemoveLiquidity, Caller: amm.DevAlice, TokenA: amm.DevNative, TokenB: amm.DevBTC, PositionID: 1},
		{Timestamp: 1030, Kind: "explode", Caller: amm.DevAlice},
	}
}

func TestRunnerAppliesOperations(t *testing.T) {
	sys := newSystem(t)
	sink := &memoryStorage{}
	db := &fakeDatabase{failures: 1}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	runner, err := NewRunner(RunConfig{
		BatchSize:       2,
		MaxRetries:      2,
		RetryBackoff:    1,
		CheckInvariants: true,
	}, sys, sink, db, m, zap.NewNop())
	require.NoError(t, err)

	summary, err := runner.Run(context.Background(), scenario())
	require.NoError(t, err)
	require.Equal(t, 5, summary.Total)
	require.Equal(t, 3, summary.Applied)
	require.Equal(t, 2, summary.Failed)
	require.Zero(t, summary.Replayed)
	require.Equal(t, len(sink.logs), summary.Events)

	require.Len(t, sink.results, 5)
	add := sink.results[0]
	require.Equal(t, model.StatusOK, add.Status)
	require.Equal(t, "1", add.Outputs["position_id"])
	require.Equal(t, uint64(1000), add.Timestamp)
	require.NotEmpty(t, add.Events)
	require.Equal(t, model.EventMint, add.Events[len(add.Events)-1].Name)

	rejected := sink.results[2]
	require.Equal(t, model.StatusFailed, rejected.Status)
	require.Equal(t, router.ErrInsufficientOutput.Codespace(), rejected.Codespace)
	require.Equal(t, router.ErrInsufficientOutput.ABCICode(), rejected.Code)
	require.Empty(t, rejected.Events)
	require.Nil(t, rejected.Outputs)

	unknown := sink.results[4]
	require.Equal(t, model.StatusFailed, unknown.Status)
	require.Contains(t, unknown.Error, "unsupported operation")

	remove := sink.results[3]
	require.Equal(t, model.StatusOK, remove.Status)
	require.Equal(t, "true", remove.Outputs["destroyed"])

	var lastSeq uint64
	for _, l := range sink.logs {
		require.Greater(t, l.Seq, lastSeq)
		lastSeq = l.Seq
		require.NotZero(t, l.Line)
		require.NotEmpty(t, l.Topics)
	}
	require.Equal(t, sys.Machine.Seq(), lastSeq)

	require.Equal(t, []uint64{2, 4, 5}, db.saved)
	require.Equal(t, len(sink.logs), db.events)
	require.Equal(t, 1, db.positions)
	require.Equal(t, 3, db.pairs)

	require.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues(model.OpSwapExactIn, model.StatusOK)))
	require.Equal(t, float64(1), testutil.ToFloat64(m.OperationsTotal.WithLabelValues(model.OpSwapExactIn, model.StatusFailed)))
	require.Equal(t, float64(5), testutil.ToFloat64(m.ReplayLine))
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	dir := t.TempDir()
	cfg := RunConfig{
		BatchSize:         2,
		CheckpointPath:    filepath.Join(dir, "checkpoint.json"),
		CheckpointEnabled: true,
	}
	ops := scenario()[:4]

	first := &memoryStorage{}
	runner, err := NewRunner(cfg, newSystem(t), first, nil, nil, nil)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), ops)
	require.NoError(t, err)
	require.Len(t, first.results, 4)

	cp, ok, err := NewCheckpointStore(cfg.CheckpointPath, true).Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(4), cp.Line)
	lastSeq := first.logs[len(first.logs)-1].Seq
	require.Equal(t, lastSeq, cp.EventSeq)

	more := append(append([]model.Operation(nil), ops...), model.Operation{
		Timestamp: 1040,
		Kind:      model.OpAddLiquidity,
		Caller:    amm.DevBob,
		TokenA:    amm.DevBTC,
		TokenB:    amm.DevNative,
		AmountA:   "1",
		AmountB:   "100",
	})

	second := &memoryStorage{}
	sys := newSystem(t)
	runner, err = NewRunner(cfg, sys, second, nil, nil, nil)
	require.NoError(t, err)
	summary, err := runner.Run(context.Background(), more)
	require.NoError(t, err)
	require.Equal(t, 4, summary.Replayed)
	require.Equal(t, 1, summary.Applied)

	require.Len(t, second.results, 1)
	require.Equal(t, uint64(5), second.results[0].Line)
	require.Equal(t, "2", second.results[0].Outputs["position_id"])
	require.Greater(t, second.logs[0].Seq, lastSeq)
	require.Equal(t, uint64(2), sys.Engine.PositionCount())
}

func TestRunnerDetectsDivergedCheckpoint(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	require.NoError(t, NewCheckpointStore(path, true).Save(2, 999))

	cfg := RunConfig{BatchSize: 2, CheckpointPath: path, CheckpointEnabled: true}
	runner, err := NewRunner(cfg, newSystem(t), &memoryStorage{}, nil, nil, nil)
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), scenario())
	require.ErrorContains(t, err, "replay diverged at line 2")
}

func TestRunnerStopsOnCancelledContext(t *testing.T) {
	runner, err := NewRunner(RunConfig{BatchSize: 1}, newSystem(t), &memoryStorage{}, nil, nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = runner.Run(ctx, scenario())
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRunnerValidates(t *testing.T) {
	_, err := NewRunner(RunConfig{}, newSystem(t), &memoryStorage{}, nil, nil, nil)
	require.Error(t, err)
	_, err = NewRunner(RunConfig{BatchSize: 1}, nil, &memoryStorage{}, nil, nil, nil)
	require.Error(t, err)
	_, err = NewRunner(RunConfig{BatchSize: 1}, newSystem(t), nil, nil, nil, nil)
	require.Error(t, err)
}
