package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"hubswap/internal/amm"
)

// QuoteConfig holds configuration for the quote command. Exactly one of
// AmountIn and AmountOut is set.
type QuoteConfig struct {
	Path      []string
	AmountIn  string
	AmountOut string
	Ops       string
	Logging   Logging
	Genesis   amm.Genesis
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, nil)
	if err != nil {
		return QuoteConfig{}, err
	}
	genesis, err := loadGenesis(v)
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		Path:      getStringSlice(v, "path"),
		AmountIn:  v.GetString("amount-in"),
		AmountOut: v.GetString("amount-out"),
		Ops:       v.GetString("ops"),
		Logging:   loadLogging(v),
		Genesis:   genesis,
	}
	if (cfg.AmountIn == "") == (cfg.AmountOut == "") {
		return QuoteConfig{}, fmt.Errorf("exactly one of amount-in and amount-out is required")
	}
	if len(cfg.Path) < 2 {
		return QuoteConfig{}, fmt.Errorf("path needs at least two assets")
	}

	return cfg, nil
}

// TokenMetaConfig holds configuration for the token-meta command.
type TokenMetaConfig struct {
	RPCURL    string
	Addresses []string
	Logging   Logging
}

// LoadTokenMeta merges config file, environment variables, and flags into TokenMetaConfig.
func LoadTokenMeta(cfgFile string, flags *pflag.FlagSet) (TokenMetaConfig, error) {
	v, err := load(cfgFile, flags, nil)
	if err != nil {
		return TokenMetaConfig{}, err
	}

	cfg := TokenMetaConfig{
		RPCURL:    v.GetString("rpc"),
		Addresses: getStringSlice(v, "address"),
		Logging:   loadLogging(v),
	}

	return cfg, nil
}
