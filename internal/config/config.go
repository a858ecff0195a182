package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"hubswap/internal/amm"
)

// Logging configures the process logger. An empty File logs to stderr only.
type Logging struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	In                string
	Out               string
	Results           string
	BatchSize         int
	Checkpoint        string
	CheckpointEnabled bool
	StateName         string
	MaxRetries        int
	RetryBackoff      time.Duration
	PGDSN             string
	MetricsAddr       string
	CheckInvariants   bool
	Logging           Logging
	Genesis           amm.Genesis
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := load(cfgFile, flags, map[string]any{
		"out":                "./data/logs.jsonl",
		"results":            "./data/results.jsonl",
		"batch-size":         500,
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"state-name":         "replay",
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return ReplayConfig{}, err
	}
	genesis, err := loadGenesis(v)
	if err != nil {
		return ReplayConfig{}, err
	}

	cfg := ReplayConfig{
		In:                v.GetString("in"),
		Out:               v.GetString("out"),
		Results:           v.GetString("results"),
		BatchSize:         v.GetInt("batch-size"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		StateName:         v.GetString("state-name"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		PGDSN:             v.GetString("pg-dsn"),
		MetricsAddr:       v.GetString("metrics-addr"),
		CheckInvariants:   v.GetBool("check-invariants"),
		Logging:           loadLogging(v),
		Genesis:           genesis,
	}

	return cfg, nil
}

// load builds a viper instance over defaults, the config file, HUBSWAP_*
// environment variables and flags. Without cfgFile an optional ./config.*
// is read.
func load(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("HUBSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("log-max-size", 100)
	v.SetDefault("log-max-backups", 5)
	v.SetDefault("log-max-age", 30)
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func loadLogging(v *viper.Viper) Logging {
	return Logging{
		Level:      v.GetString("log-level"),
		File:       v.GetString("log-file"),
		MaxSizeMB:  v.GetInt("log-max-size"),
		MaxBackups: v.GetInt("log-max-backups"),
		MaxAgeDays: v.GetInt("log-max-age"),
	}
}

// loadGenesis reads the `genesis` key, falling back to the development
// genesis when the config has none.
func loadGenesis(v *viper.Viper) (amm.Genesis, error) {
	if !v.IsSet("genesis") {
		return amm.DevGenesis(), nil
	}
	var g amm.Genesis
	if err := v.UnmarshalKey("genesis", &g); err != nil {
		return amm.Genesis{}, fmt.Errorf("decode genesis: %w", err)
	}
	return g, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
