package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"hubswap/internal/amm"
)

const genesisYAML = `
log-level: debug
batch-size: 50
genesis:
  native:
    address: "0x1000000000000000000000000000000000000001"
    name: Hub Native
    symbol: HUB
    decimals: 18
  assets:
    - address: "0x2000000000000000000000000000000000000002"
      name: Bitcoin
      symbol: BTC
      decimals: 8
  principals:
    controller: "0xC0ffee0000000000000000000000000000000001"
  fee_model: flat
  fee_bps: 30
  il_policy: strict
  reserve_funding: "250"
  supported:
    - "0x2000000000000000000000000000000000000002"
  balances:
    - holder: "0xA11ce00000000000000000000000000000000001"
      asset: "0x2000000000000000000000000000000000000002"
      amount: "12.5"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// chdir moves into dir so no stray ./config.* is picked up.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadReplayDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := LoadReplay("", nil)
	require.NoError(t, err)
	require.Equal(t, 500, cfg.BatchSize)
	require.Equal(t, "./data/logs.jsonl", cfg.Out)
	require.True(t, cfg.CheckpointEnabled)
	require.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, amm.DevGenesis(), cfg.Genesis)
}

func TestLoadReplayGenesisFromFile(t *testing.T) {
	cfg, err := LoadReplay(writeConfig(t, genesisYAML), nil)
	require.NoError(t, err)

	require.Equal(t, 50, cfg.BatchSize)
	require.Equal(t, "debug", cfg.Logging.Level)

	g := cfg.Genesis
	require.Equal(t, "HUB", g.Native.Symbol)
	require.Len(t, g.Assets, 1)
	require.Equal(t, uint8(8), g.Assets[0].Decimals)
	require.Equal(t, "flat", g.FeeModel)
	require.Equal(t, uint32(30), g.FeeBps)
	require.Equal(t, "strict", g.ILPolicy)
	require.Equal(t, "250", g.ReserveFunding)
	require.Len(t, g.Balances, 1)
	require.Equal(t, "12.5", g.Balances[0].Amount)

	_, err = amm.New(g, nil, nil)
	require.NoError(t, err)
}

func TestLoadReplayPrecedence(t *testing.T) {
	path := writeConfig(t, genesisYAML)
	t.Setenv("HUBSWAP_BATCH_SIZE", "70")
	t.Setenv("HUBSWAP_PG_DSN", "postgres://localhost/hubswap")

	flags := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flags.Int("batch-size", 500, "")
	flags.String("log-level", "info", "")

	cfg, err := LoadReplay(path, flags)
	require.NoError(t, err)
	require.Equal(t, 70, cfg.BatchSize)
	require.Equal(t, "postgres://localhost/hubswap", cfg.PGDSN)

	require.NoError(t, flags.Parse([]string{"--batch-size=9", "--log-level=warn"}))
	cfg, err = LoadReplay(path, flags)
	require.NoError(t, err)
	require.Equal(t, 9, cfg.BatchSize)
	require.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplay(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
}

func TestLoadQuote(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("quote", pflag.ContinueOnError)
	flags.StringSlice("path", nil, "")
	flags.String("amount-in", "", "")
	flags.String("amount-out", "", "")
	require.NoError(t, flags.Parse([]string{"--path", amm.DevBTC + "," + amm.DevNative, "--amount-in", "1"}))

	cfg, err := LoadQuote("", flags)
	require.NoError(t, err)
	require.Equal(t, []string{amm.DevBTC, amm.DevNative}, cfg.Path)
	require.Equal(t, "1", cfg.AmountIn)

	require.NoError(t, flags.Set("amount-out", "2"))
	_, err = LoadQuote("", flags)
	require.Error(t, err)
}

func TestLoadDecodeEvents(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HUBSWAP_EVENTS", "Swap, Mint,,Burn")

	cfg, err := LoadDecode("", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"Swap", "Mint", "Burn"}, cfg.Events)
	require.Equal(t, "./data/decode_errors.jsonl", cfg.Errors)
}
