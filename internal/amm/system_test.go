package amm

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"hubswap/internal/model"
	"hubswap/internal/pool"
	"hubswap/internal/reserve"
)

func TestDevGenesis(t *testing.T) {
	s, err := New(DevGenesis(), func() time.Time { return time.Unix(1_700_000_000, 0) }, nil)
	require.NoError(t, err)

	btc := common.HexToAddress(DevBTC)
	dot := common.HexToAddress(DevDOT)
	alice := common.HexToAddress(DevAlice)

	p, ok := s.Engine.Pair(btc)
	require.True(t, ok)
	require.True(t, p.Supported)
	p, ok = s.Engine.Pair(dot)
	require.True(t, ok)
	require.False(t, p.Supported)

	require.Equal(t, "1000000.00000000", s.FormatAmount(btc, s.Ledger.BalanceOf(btc, alice)))
	require.Equal(t, "100000.000000000000000000", s.FormatAmount(s.Native, s.Reserve.Reserve()))
	require.Equal(t, s.Controller, s.Reserve.Controller().Controller())
	require.Equal(t, s.Router.Address(), s.Reserve.Router())
	require.Equal(t, reserve.PolicyCap, s.Reserve.Policy())
	require.NoError(t, s.Engine.CheckInvariants())

	pairs, positions := s.Snapshot()
	require.Len(t, pairs, 3)
	require.Empty(t, positions)
	require.Equal(t, model.PairRecord{
		Asset:          btc.Hex(),
		NativeReserve:  "0",
		ForeignReserve: "0",
		SynthBacking:   "0",
		TotalUnits:     "0",
		QueuedNative:   "0",
		QueuedForeign:  "0",
		Supported:      true,
	}, pairs[0])
}

func TestGenesisValidation(t *testing.T) {
	g := DevGenesis()
	g.Principals.Controller = ""
	_, err := New(g, nil, nil)
	require.Error(t, err)

	g = DevGenesis()
	g.FeeModel = "curve"
	_, err = New(g, nil, nil)
	require.ErrorIs(t, err, pool.ErrUnknownFeeModel)

	g = DevGenesis()
	g.ILPolicy = "generous"
	_, err = New(g, nil, nil)
	require.ErrorIs(t, err, reserve.ErrUnknownPolicy)

	g = DevGenesis()
	g.Assets = append(g.Assets, g.Assets[0])
	_, err = New(g, nil, nil)
	require.Error(t, err)

	g = DevGenesis()
	g.Balances[0].Amount = "1.123456789012345678901"
	_, err = New(g, nil, nil)
	require.Error(t, err)
}

func TestDefaultPrincipalsAreStable(t *testing.T) {
	require.Equal(t, DefaultPrincipal("pool"), DefaultPrincipal("pool"))
	require.NotEqual(t, DefaultPrincipal("pool"), DefaultPrincipal("router"))

	_, err := ParseAddress("0x0000000000000000000000000000000000000000")
	require.Error(t, err)
	_, err = ParseAddress("not-an-address")
	require.Error(t, err)
}
