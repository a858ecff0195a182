package replay

import (
	"context"
	"fmt"
	"math/big"
	"time"

	errorsmod "cosmossdk.io/errors"
	"go.uber.org/zap"

	"hubswap/internal/amm"
	"hubswap/internal/dex"
	"hubswap/internal/metrics"
	"hubswap/internal/model"
	"hubswap/internal/storage"
)

// RunConfig holds runtime settings for the replay runner.
type RunConfig struct {
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	StateName         string
	MaxRetries        int
	RetryBackoff      time.Duration
	CheckInvariants   bool
}

// Database mirrors replay output into a queryable store.
type Database interface {
	UpsertPairs(ctx context.Context, pairs []model.PairRecord) error
	UpsertPositions(ctx context.Context, positions []model.PositionRecord) error
	InsertEvents(ctx context.Context, logs []model.LogRecord) error
	SaveState(ctx context.Context, name string, line uint64) error
}

// Summary counts what a run did.
type Summary struct {
	Total    int
	Applied  int
	Failed   int
	Replayed int
	Events   int
}

// Runner applies operations to a system in input order and writes their
// results to storage.
type Runner struct {
	cfg        RunConfig
	system     *amm.System
	applier    *Applier
	encoder    *dex.Encoder
	storage    storage.Storage
	db         Database
	metrics    *metrics.Metrics
	logger     *zap.Logger
	checkpoint *CheckpointStore

	now     uint64
	pending []model.Event
}

// NewRunner builds a Runner with its dependencies. db and m may be nil.
func NewRunner(cfg RunConfig, system *amm.System, sink storage.Storage, db Database, m *metrics.Metrics, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if system == nil {
		return nil, fmt.Errorf("system is nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("storage is nil")
	}
	if cfg.BatchSize == 0 {
		return nil, fmt.Errorf("batch size must be greater than zero")
	}
	if cfg.StateName == "" {
		cfg.StateName = "replay"
	}
	encoder, err := dex.NewEncoder()
	if err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:        cfg,
		system:     system,
		applier:    NewApplier(system),
		encoder:    encoder,
		storage:    sink,
		db:         db,
		metrics:    m,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
	system.Machine.SetClock(r.clock)
	system.Machine.OnCommit(r.capture)
	if m != nil {
		system.Machine.OnCommit(m.Observe)
	}
	return r, nil
}

func (r *Runner) clock() time.Time { return time.Unix(int64(r.now), 0) }

func (r *Runner) capture(events []model.Event) {
	r.pending = append(r.pending, events...)
}

// Run applies ops. Lines at or before the checkpoint are re-executed to
// rebuild state but their output is not written again.
func (r *Runner) Run(ctx context.Context, ops []model.Operation) (Summary, error) {
	summary := Summary{Total: len(ops)}

	var resumeAt uint64
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return summary, err
	}
	if ok {
		resumeAt = cp.Line
		r.logger.Info("resume from checkpoint", zap.Uint64("line", cp.Line), zap.Uint64("event_seq", cp.EventSeq))
	}

	if len(ops) == 0 {
		r.logger.Info("nothing to replay")
		return summary, nil
	}
	if resumeAt > uint64(len(ops)) {
		r.logger.Warn("input shorter than checkpoint", zap.Uint64("checkpoint", resumeAt), zap.Int("lines", len(ops)))
	}

	ranges, err := SplitRange(1, uint64(len(ops)), r.cfg.BatchSize)
	if err != nil {
		return summary, err
	}

	for _, lineRange := range ranges {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		var results []model.OpResult
		var logs []model.LogRecord
		for line := lineRange.From; line <= lineRange.To; line++ {
			result, err := r.apply(line, ops[line-1])
			if err != nil {
				return summary, err
			}
			if line <= resumeAt {
				summary.Replayed++
				if line == resumeAt {
					if err := cp.Verify(r.system.Machine.Seq()); err != nil {
						return summary, err
					}
				}
				continue
			}
			if result.Status == model.StatusOK {
				summary.Applied++
			} else {
				summary.Failed++
			}
			records, err := r.encoder.EncodeAll(result.Events, line)
			if err != nil {
				return summary, fmt.Errorf("encode line %d: %w", line, err)
			}
			summary.Events += len(records)
			results = append(results, result)
			logs = append(logs, records...)
		}

		if len(results) == 0 {
			continue
		}
		if err := r.flush(ctx, lineRange, results, logs); err != nil {
			return summary, err
		}

		r.logger.Info("batch complete",
			zap.Int("operations", len(results)),
			zap.Int("events", len(logs)),
			zap.Uint64("from", lineRange.From),
			zap.Uint64("to", lineRange.To),
		)
	}

	return summary, nil
}

// apply runs one operation. Rejected operations are results, not errors; the
// returned error is reserved for invariant violations, which stop the run.
func (r *Runner) apply(line uint64, op model.Operation) (model.OpResult, error) {
	if op.Timestamp > r.now {
		r.now = op.Timestamp
	}
	r.pending = r.pending[:0]
	start := time.Now()

	outputs, err := r.applier.Apply(op, r.now)
	result := model.OpResult{
		Line:      line,
		Timestamp: r.now,
		Kind:      op.Kind,
		Status:    model.StatusOK,
		Outputs:   outputs,
	}
	if err != nil {
		codespace, code, log := errorsmod.ABCIInfo(err, false)
		result.Status = model.StatusFailed
		result.Codespace = codespace
		result.Code = code
		result.Error = log
		result.Outputs = nil
		r.logger.Warn("operation rejected",
			zap.Uint64("line", line),
			zap.String("op", op.Kind),
			zap.String("codespace", codespace),
			zap.Uint32("code", code),
			zap.Error(err),
		)
	} else if len(r.pending) > 0 {
		result.Events = append([]model.Event(nil), r.pending...)
	}

	if r.metrics != nil {
		r.metrics.ObserveOperation(op.Kind, result.Status, line, time.Since(start))
	}

	if r.cfg.CheckInvariants {
		err := r.system.Machine.View(r.system.Engine.CheckInvariants)
		if err != nil {
			return result, fmt.Errorf("line %d (%s): %w", line, op.Kind, err)
		}
	}
	return result, nil
}

func (r *Runner) flush(ctx context.Context, lineRange LineRange, results []model.OpResult, logs []model.LogRecord) error {
	if err := r.storage.PutLogBatch(logs); err != nil {
		return fmt.Errorf("store logs: %w", err)
	}
	if err := r.storage.PutResults(results); err != nil {
		return fmt.Errorf("store results: %w", err)
	}

	pairs, positions := r.system.Snapshot()
	if r.metrics != nil {
		r.metrics.ObservePairs(pairs)
		decimals, _ := r.system.Ledger.Table().Decimals(r.system.Native)
		r.metrics.ObserveReserve(r.reserveBalance(), decimals)
	}

	if r.db != nil {
		err := withRetry(ctx, r.logger, "postgres", r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
			if err := r.db.InsertEvents(ctx, logs); err != nil {
				return err
			}
			if err := r.db.UpsertPairs(ctx, pairs); err != nil {
				return err
			}
			if err := r.db.UpsertPositions(ctx, positions); err != nil {
				return err
			}
			return r.db.SaveState(ctx, r.cfg.StateName, lineRange.To)
		})
		if err != nil {
			return fmt.Errorf("persist batch %d-%d: %w", lineRange.From, lineRange.To, err)
		}
	}

	return r.checkpoint.Save(lineRange.To, r.system.Machine.Seq())
}

func (r *Runner) reserveBalance() *big.Int {
	var balance *big.Int
	_ = r.system.Machine.View(func() error {
		balance = r.system.Reserve.Reserve()
		return nil
	})
	return balance
}
