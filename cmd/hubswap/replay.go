package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hubswap/internal/amm"
	"hubswap/internal/config"
	"hubswap/internal/metrics"
	"hubswap/internal/replay"
	"hubswap/internal/storage"
	"hubswap/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	ops, err := replay.ReadOperationsFile(cfg.In)
	if err != nil {
		return err
	}

	system, err := amm.New(cfg.Genesis, nil, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db replay.Database
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if line, ok, err := store.LoadState(ctx, cfg.StateName); err != nil {
			return err
		} else if ok {
			logger.Info("database progress", zap.String("state", cfg.StateName), zap.Uint64("last_line", line))
		}
		db = store
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m = metrics.New(registry)
		server := serveMetrics(cfg.MetricsAddr, registry, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	runner, err := replay.NewRunner(replay.RunConfig{
		BatchSize:         uint64(cfg.BatchSize),
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		StateName:         cfg.StateName,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
		CheckInvariants:   cfg.CheckInvariants,
	}, system, storage.NewJsonlStorage(cfg.Out, cfg.Results), db, m, logger)
	if err != nil {
		return err
	}

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.Int("operations", len(ops)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("out", cfg.Out),
		zap.String("results", cfg.Results),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("fee_model", cfg.Genesis.FeeModel),
		zap.String("il_policy", cfg.Genesis.ILPolicy),
	)

	summary, err := runner.Run(ctx, ops)
	logger.Info("replay complete",
		zap.Int("total", summary.Total),
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
		zap.Int("replayed", summary.Replayed),
		zap.Int("events", summary.Events),
		zap.Uint64("last_seq", system.Machine.Seq()),
	)
	return err
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	logger.Info("metrics listening", zap.String("addr", addr))
	return server
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
