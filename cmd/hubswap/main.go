package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"hubswap/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:          "hubswap",
		Short:        "Hub-and-spoke AMM simulator",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply an operation file and journal the committed events",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("out", "./data/logs.jsonl", "output event log JSONL path")
	replayCmd.Flags().String("results", "./data/results.jsonl", "output operation results JSONL path")
	replayCmd.Flags().Int("batch-size", 500, "operations per flush")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().String("state-name", "replay", "progress row name in Postgres")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts for database writes")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN")
	replayCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9100)")
	replayCmd.Flags().Bool("check-invariants", false, "audit pool invariants after every operation")
	addLogFlags(replayCmd)
	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Quote a swap along a path",
		RunE:  runQuote,
	}

	quoteCmd.Flags().StringSlice("path", nil, "asset path (comma-separated)")
	quoteCmd.Flags().String("amount-in", "", "exact input amount")
	quoteCmd.Flags().String("amount-out", "", "exact output amount")
	quoteCmd.Flags().String("ops", "", "operations JSONL applied before quoting")
	addLogFlags(quoteCmd)
	root.AddCommand(quoteCmd)

	decodeCmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode journaled event logs into typed events",
		RunE:  runDecode,
	}

	decodeCmd.Flags().String("rpc", "", "optional RPC URL for token metadata")
	decodeCmd.Flags().String("in", "", "input event log JSONL")
	decodeCmd.Flags().String("out", "./data/typed_events.jsonl", "output typed events JSONL")
	decodeCmd.Flags().String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	decodeCmd.Flags().StringSlice("events", nil, "event names to decode (comma-separated, default all)")
	addLogFlags(decodeCmd)
	root.AddCommand(decodeCmd)

	tokenMetaCmd := &cobra.Command{
		Use:   "token-meta",
		Short: "Fetch ERC20 metadata for genesis authoring",
		RunE:  runTokenMeta,
	}

	tokenMetaCmd.Flags().String("rpc", "", "RPC URL")
	tokenMetaCmd.Flags().StringSlice("address", nil, "token addresses (comma-separated)")
	addLogFlags(tokenMetaCmd)
	root.AddCommand(tokenMetaCmd)

	root.AddCommand(&cobra.Command{
		Use:   "genesis",
		Short: "Print the development genesis as JSON",
		RunE:  runGenesis,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("log-file", "", "also write logs to this file, rotated")
	cmd.Flags().Int("log-max-size", 100, "log file size in MB before rotation")
	cmd.Flags().Int("log-max-backups", 5, "rotated log files to keep")
	cmd.Flags().Int("log-max-age", 30, "days to keep rotated log files")
}

func newLogger(cfg config.Logging) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevel()
	if err := zcfg.Level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, err
	}

	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil || cfg.File == "" {
		return logger, err
	}

	rotated := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
	})
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(zcfg.EncoderConfig), rotated, zcfg.Level)
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}
