package main

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hubswap/internal/amm"
	"hubswap/internal/config"
	"hubswap/internal/replay"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	path, err := replay.ParseAddresses(cfg.Path)
	if err != nil {
		return err
	}

	var now uint64
	system, err := amm.New(cfg.Genesis, func() time.Time { return time.Unix(int64(now), 0) }, logger)
	if err != nil {
		return err
	}
	if cfg.Ops != "" {
		ops, err := replay.ReadOperationsFile(cfg.Ops)
		if err != nil {
			return err
		}
		applier := replay.NewApplier(system)
		for i, op := range ops {
			if op.Timestamp > now {
				now = op.Timestamp
			}
			if _, err := applier.Apply(op, now); err != nil {
				logger.Warn("operation rejected", zap.Int("line", i+1), zap.String("op", op.Kind), zap.Error(err))
			}
		}
		logger.Info("ops applied", zap.Int("operations", len(ops)))
	}

	first, last := path[0], path[len(path)-1]
	if cfg.AmountIn != "" {
		amountIn, err := system.ParseAmount(first, cfg.AmountIn)
		if err != nil {
			return err
		}
		out, err := system.Router.CalculateOutGivenIn(amountIn, path)
		if err != nil {
			return err
		}
		printQuote(cmd, system, first, cfg.AmountIn, last, system.FormatAmount(last, out))
		return nil
	}

	amountOut, err := system.ParseAmount(last, cfg.AmountOut)
	if err != nil {
		return err
	}
	in, err := system.Router.CalculateInGivenOut(amountOut, path)
	if err != nil {
		return err
	}
	printQuote(cmd, system, first, system.FormatAmount(first, in), last, cfg.AmountOut)
	return nil
}

func printQuote(cmd *cobra.Command, system *amm.System, assetIn common.Address, amountIn string, assetOut common.Address, amountOut string) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s %s\n", amountIn, symbol(system, assetIn), amountOut, symbol(system, assetOut))
}

func symbol(system *amm.System, asset common.Address) string {
	if meta, ok := system.Ledger.Meta(asset); ok && meta.Symbol != "" {
		return meta.Symbol
	}
	return asset.Hex()
}
