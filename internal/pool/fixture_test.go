package pool

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"hubswap/internal/access"
	"hubswap/internal/state"
	"hubswap/internal/token"
	"hubswap/internal/units"
)

var (
	native   = common.HexToAddress("0x1111")
	btc      = common.HexToAddress("0x2222") // 8 decimals
	dot      = common.HexToAddress("0x3333") // 12 decimals
	poolAddr = common.HexToAddress("0x9001")
	router   = common.HexToAddress("0x9002")
	factory  = common.HexToAddress("0x9003")
	wrapper  = common.HexToAddress("0x9004")
	admin    = common.HexToAddress("0x9005")
	issuer   = common.HexToAddress("0x9006")
	synthBTC = common.HexToAddress("0x7001")
	lpBTC    = common.HexToAddress("0x7002")
	alice    = common.HexToAddress("0xa11ce")
	bob      = common.HexToAddress("0xb0b")
)

type fixture struct {
	t      *testing.T
	now    time.Time
	m      *state.Machine
	ledger *token.Ledger
	engine *Engine
}

func newFixture(t *testing.T, model FeeModel, feeBps uint32) *fixture {
	t.Helper()
	f := &fixture{t: t, now: time.Unix(1_700_000_000, 0)}
	f.m = state.New(func() time.Time { return f.now }, nil)
	f.ledger = token.NewLedger(f.m, units.NewTable())
	require.NoError(t, f.ledger.Register(native, "Native", "NAT", 18, issuer))
	require.NoError(t, f.ledger.Register(btc, "Bitcoin", "BTC", 8, issuer))
	require.NoError(t, f.ledger.Register(dot, "Polkadot", "DOT", 12, issuer))

	ctrl := access.NewController(f.m, poolAddr, admin)
	engine, err := New(Config{
		Address:      poolAddr,
		NativeAsset:  native,
		Router:       router,
		SynthFactory: factory,
		Wrapper:      wrapper,
		FeeModel:     model,
		FeeBps:       feeBps,
	}, f.m, f.ledger, ctrl, nil)
	require.NoError(t, err)
	f.engine = engine
	require.NoError(t, engine.RegisterAsset(btc))
	require.NoError(t, engine.RegisterAsset(dot))
	require.NoError(t, engine.SupportAsset(admin, btc, true))

	for _, holder := range []common.Address{alice, bob} {
		f.mint(native, holder, tokens(1_000_000, 18))
		f.mint(btc, holder, tokens(1_000_000, 8))
		f.mint(dot, holder, tokens(1_000_000, 12))
	}
	return f
}

func tokens(n int64, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func (f *fixture) mint(asset, to common.Address, amount *big.Int) {
	f.t.Helper()
	require.NoError(f.t, f.m.Exec(func() error { return f.ledger.Mint(issuer, asset, to, amount) }))
}

func (f *fixture) exec(fn func() error) error { return f.m.Exec(fn) }

func (f *fixture) add(owner, asset common.Address, nativeAmount, foreignAmount *big.Int) Position {
	f.t.Helper()
	var pos Position
	require.NoError(f.t, f.exec(func() error {
		var err error
		pos, err = f.engine.AddLiquidity(router, owner, asset, nativeAmount, foreignAmount, owner)
		return err
	}))
	return pos
}

func (f *fixture) swap(from, assetIn, assetOut common.Address, amountIn *big.Int) (*big.Int, error) {
	var out *big.Int
	err := f.exec(func() error {
		var err error
		out, err = f.engine.Swap(router, from, assetIn, assetOut, amountIn, from)
		return err
	})
	return out, err
}

func (f *fixture) pair(asset common.Address) Pair {
	f.t.Helper()
	p, ok := f.engine.Pair(asset)
	require.True(f.t, ok)
	return p
}

func (f *fixture) requireInvariants() {
	f.t.Helper()
	require.NoError(f.t, f.engine.CheckInvariants())
}

func product(p Pair) *big.Int {
	return new(big.Int).Mul(p.NativeReserve, p.LPForeign())
}
