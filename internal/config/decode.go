package config

import (
	"github.com/spf13/pflag"

	"hubswap/internal/amm"
)

// DecodeConfig holds configuration for the decode command.
type DecodeConfig struct {
	RPCURL  string
	In      string
	Out     string
	Errors  string
	Events  []string
	Logging Logging
	Genesis amm.Genesis
}

// LoadDecode merges config file, environment variables, and flags into DecodeConfig.
func LoadDecode(cfgFile string, flags *pflag.FlagSet) (DecodeConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"out":    "./data/typed_events.jsonl",
		"errors": "./data/decode_errors.jsonl",
	})
	if err != nil {
		return DecodeConfig{}, err
	}
	genesis, err := loadGenesis(v)
	if err != nil {
		return DecodeConfig{}, err
	}

	cfg := DecodeConfig{
		RPCURL:  v.GetString("rpc"),
		In:      v.GetString("in"),
		Out:     v.GetString("out"),
		Errors:  v.GetString("errors"),
		Events:  getStringSlice(v, "events"),
		Logging: loadLogging(v),
		Genesis: genesis,
	}

	return cfg, nil
}
