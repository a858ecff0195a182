package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hubswap/internal/amm"
	"hubswap/internal/chain"
	"hubswap/internal/config"
	"hubswap/internal/dex"
	"hubswap/internal/replay"
)

// runTokenMeta prints one genesis asset entry per address.
func runTokenMeta(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadTokenMeta(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	addresses, err := replay.ParseAddresses(cfg.Addresses)
	if err != nil {
		return err
	}
	if len(addresses) == 0 {
		return fmt.Errorf("address list is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	chainID, err := chainClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id: %w", err)
	}
	logger.Info("token-meta start", zap.String("chain_id", chainID.String()), zap.Int("addresses", len(addresses)))

	specs := make([]amm.AssetSpec, 0, len(addresses))
	for _, address := range addresses {
		meta, err := dex.FetchTokenMeta(ctx, chainClient, address, logger)
		if err != nil {
			return fmt.Errorf("token %s: %w", address.Hex(), err)
		}
		specs = append(specs, amm.AssetSpec{
			Address:  meta.Address,
			Name:     meta.Name,
			Symbol:   meta.Symbol,
			Decimals: meta.Decimals,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(specs)
}

func runGenesis(cmd *cobra.Command, _ []string) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]amm.Genesis{"genesis": amm.DevGenesis()})
}
