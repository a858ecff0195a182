package pool

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"hubswap/internal/access"
	"hubswap/internal/token"
)

func TestDeepLiquiditySwap(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.add(alice, btc, tokens(10_000, 18), tokens(10_000, 8))
	before := f.pair(btc)

	out, err := f.swap(bob, native, btc, tokens(100, 18))
	require.NoError(t, err)
	require.True(t, out.Cmp(tokens(90, 8)) >= 0, "out %s", out)

	after := f.pair(btc)
	paidInternal := new(big.Int).Mul(out, big.NewInt(10_000_000_000))
	require.Equal(t, new(big.Int).Sub(before.ForeignReserve, paidInternal).String(), after.ForeignReserve.String())
	require.Equal(t, new(big.Int).Add(before.NativeReserve, tokens(100, 18)).String(), after.NativeReserve.String())
	require.Equal(t, new(big.Int).Add(tokens(1_000_000, 8), out).String(), f.ledger.BalanceOf(btc, bob).String())
	f.requireInvariants()
}

func TestShallowLiquiditySwap(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))

	out, err := f.swap(bob, native, btc, tokens(500, 18))
	require.NoError(t, err)
	require.True(t, out.Cmp(tokens(250, 8)) <= 0, "out %s", out)
	require.True(t, out.Sign() > 0)
}

func TestSwapsNeverDecreaseProduct(t *testing.T) {
	for _, tc := range []struct {
		model FeeModel
		bps   uint32
	}{{FeeSlip, 0}, {FeeFlat, 30}} {
		f := newFixture(t, tc.model, tc.bps)
		f.add(alice, btc, tokens(5_000, 18), tokens(3_000, 8))

		trades := []struct {
			in     common.Address
			out    common.Address
			amount *big.Int
		}{
			{native, btc, tokens(10, 18)},
			{btc, native, tokens(7, 8)},
			{native, btc, tokens(1_200, 18)},
			{btc, native, tokens(900, 8)},
			{btc, native, big.NewInt(12_345)},
		}
		k := product(f.pair(btc))
		for _, trade := range trades {
			_, err := f.swap(bob, trade.in, trade.out, trade.amount)
			require.NoError(t, err)
			next := product(f.pair(btc))
			require.True(t, next.Cmp(k) > 0, "%s: product fell from %s to %s", tc.model, k, next)
			k = next
		}
		f.requireInvariants()
	}
}

func TestSwapGuards(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))
	amount := tokens(1, 18)

	cases := []struct {
		name     string
		caller   common.Address
		in, out  common.Address
		receiver common.Address
		want     error
	}{
		{"not router", alice, native, btc, bob, ErrOnlyRouter},
		{"foreign to foreign", router, btc, dot, bob, ErrOneSidedOnly},
		{"native to native", router, native, native, bob, ErrOneSidedOnly},
		{"receiver is asset", router, native, btc, btc, ErrInvalidReceiver},
		{"receiver is native", router, native, btc, native, ErrInvalidReceiver},
		{"receiver is zero", router, native, btc, common.Address{}, ErrInvalidReceiver},
		{"unsupported", router, native, dot, bob, ErrUnsupportedToken},
	}
	before := f.pair(btc)
	for _, tc := range cases {
		err := f.exec(func() error {
			_, err := f.engine.Swap(tc.caller, bob, tc.in, tc.out, amount, tc.receiver)
			return err
		})
		require.ErrorIs(t, err, tc.want, tc.name)
	}
	require.Equal(t, before, f.pair(btc))
}

func TestSwapRevertsOnShortBalance(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))
	before := f.pair(btc)
	poor := common.HexToAddress("0xdead")

	_, err := f.swap(poor, native, btc, tokens(1, 18))
	require.ErrorIs(t, err, token.ErrInsufficientBalance)
	require.Equal(t, before, f.pair(btc))
	f.requireInvariants()
}

func TestProportionalLiquidity(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	first := f.add(alice, btc, tokens(1_000, 18), tokens(2_000, 8))
	require.Equal(t, tokens(1_000, 18).String(), first.Units.String())

	second := f.add(bob, btc, tokens(500, 18), tokens(1_000, 8))
	require.Equal(t, tokens(500, 18).String(), second.Units.String())
	f.requireInvariants()

	nativeBefore := f.ledger.BalanceOf(native, bob)
	btcBefore := f.ledger.BalanceOf(btc, bob)
	var removal *Removal
	require.NoError(t, f.exec(func() error {
		var err error
		removal, err = f.engine.RemoveLiquidity(router, bob, second.ID, second.Units, bob)
		return err
	}))
	require.True(t, removal.Destroyed)
	require.Equal(t, tokens(500, 18).String(), removal.Native.String())
	require.Equal(t, tokens(1_000, 8).String(), removal.Foreign.String())
	require.Equal(t, new(big.Int).Add(nativeBefore, removal.Native).String(), f.ledger.BalanceOf(native, bob).String())
	require.Equal(t, new(big.Int).Add(btcBefore, removal.Foreign).String(), f.ledger.BalanceOf(btc, bob).String())

	_, ok := f.engine.Position(second.ID)
	require.True(t, ok)
	_, err := f.engine.OwnerOf(second.ID)
	require.ErrorIs(t, err, ErrPositionNotFound)
	require.Empty(t, f.engine.PositionsOf(bob))
	f.requireInvariants()
}

func TestDisproportionateDepositMintsByScarcerSide(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))
	pos := f.add(bob, btc, tokens(1_000, 18), tokens(10, 8))
	require.Equal(t, tokens(10, 18).String(), pos.Units.String())
}

func TestPartialRemoval(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	pos := f.add(alice, btc, tokens(800, 18), tokens(400, 8))
	half := new(big.Int).Quo(pos.Units, big.NewInt(2))

	var removal *Removal
	require.NoError(t, f.exec(func() error {
		var err error
		removal, err = f.engine.RemoveLiquidity(router, alice, pos.ID, half, alice)
		return err
	}))
	require.False(t, removal.Destroyed)
	require.Equal(t, tokens(400, 18).String(), removal.OriginalNative.String())
	require.Equal(t, tokens(200, 18).String(), removal.OriginalForeign.String())

	left, ok := f.engine.Position(pos.ID)
	require.True(t, ok)
	require.Equal(t, half.String(), left.Units.String())
	require.Equal(t, tokens(400, 18).String(), left.OriginalNative.String())
	require.Equal(t, []uint64{pos.ID}, f.engine.PositionsOf(alice))
	f.requireInvariants()

	err := f.exec(func() error {
		_, err := f.engine.RemoveLiquidity(router, alice, pos.ID, pos.Units, alice)
		return err
	})
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestRemoveLiquidityByNonOwnerChangesNothing(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	pos := f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))
	before := f.pair(btc)
	bobNative := f.ledger.BalanceOf(native, bob)

	err := f.exec(func() error {
		_, err := f.engine.RemoveLiquidity(router, bob, pos.ID, pos.Units, bob)
		return err
	})
	require.ErrorIs(t, err, ErrNotOwnerNorApproved)
	require.Equal(t, before, f.pair(btc))
	require.Equal(t, bobNative.String(), f.ledger.BalanceOf(native, bob).String())
	owner, err := f.engine.OwnerOf(pos.ID)
	require.NoError(t, err)
	require.Equal(t, alice, owner)
}

func TestAddLiquidityGuards(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	one := tokens(1, 18)
	cases := []struct {
		name   string
		caller common.Address
		asset  common.Address
		n, fr  *big.Int
		want   error
	}{
		{"not router", alice, btc, one, tokens(1, 8), ErrOnlyRouter},
		{"native as foreign", router, native, one, one, ErrInvalidAsset},
		{"zero native", router, btc, big.NewInt(0), tokens(1, 8), ErrInsufficientInput},
		{"unsupported", router, dot, one, tokens(1, 12), ErrUnsupportedToken},
	}
	for _, tc := range cases {
		err := f.exec(func() error {
			_, err := f.engine.AddLiquidity(tc.caller, alice, tc.asset, tc.n, tc.fr, alice)
			return err
		})
		require.ErrorIs(t, err, tc.want, tc.name)
	}
	require.Zero(t, f.engine.PositionCount())
}

func TestSupportAssetTransitions(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	require.ErrorIs(t, f.engine.SupportAsset(admin, btc, true), ErrAlreadyAtDesiredState)
	require.ErrorIs(t, f.engine.SupportAsset(alice, dot, true), access.ErrNotController)
	require.NoError(t, f.engine.SupportAsset(admin, dot, true))
	require.True(t, f.pair(dot).Supported)
	require.NoError(t, f.engine.SupportAsset(admin, dot, false))
	require.False(t, f.pair(dot).Supported)
}

func TestQueueModeActivatesPendingPositions(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	require.NoError(t, f.engine.ToggleQueueMode(admin))
	require.True(t, f.engine.QueueMode())

	first := f.add(alice, dot, tokens(100, 18), tokens(50, 12))
	second := f.add(bob, dot, tokens(10, 18), tokens(5, 12))
	require.True(t, first.Pending)
	require.Zero(t, first.Units.Sign())
	require.Equal(t, tokens(110, 18).String(), f.pair(dot).QueuedNative.String())
	f.requireInvariants()

	require.NoError(t, f.engine.SupportAsset(admin, dot, true))
	p := f.pair(dot)
	require.Zero(t, p.QueuedNative.Sign())
	require.Equal(t, tokens(110, 18).String(), p.NativeReserve.String())
	require.Equal(t, tokens(55, 18).String(), p.ForeignReserve.String())

	a, _ := f.engine.Position(first.ID)
	b, _ := f.engine.Position(second.ID)
	require.False(t, a.Pending)
	require.Equal(t, tokens(100, 18).String(), a.Units.String())
	require.Equal(t, tokens(10, 18).String(), b.Units.String())
	f.requireInvariants()
}

func TestPendingPositionCancelRefunds(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	require.NoError(t, f.engine.ToggleQueueMode(admin))
	nativeBefore := f.ledger.BalanceOf(native, alice)
	dotBefore := f.ledger.BalanceOf(dot, alice)

	pos := f.add(alice, dot, tokens(100, 18), tokens(50, 12))
	var removal *Removal
	require.NoError(t, f.exec(func() error {
		var err error
		removal, err = f.engine.RemoveLiquidity(router, alice, pos.ID, nil, alice)
		return err
	}))
	require.True(t, removal.Pending)
	require.Zero(t, removal.ImpermanentLoss(f.engine.machine.Now(), 0).Sign())
	require.Equal(t, nativeBefore.String(), f.ledger.BalanceOf(native, alice).String())
	require.Equal(t, dotBefore.String(), f.ledger.BalanceOf(dot, alice).String())
	require.Zero(t, f.pair(dot).QueuedForeign.Sign())
	f.requireInvariants()

	require.NoError(t, f.engine.ToggleQueueMode(admin))
	require.False(t, f.engine.QueueMode())
}

func TestPositionTransferAndApproval(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	pos := f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))

	require.ErrorIs(t, f.engine.TransferPosition(bob, pos.ID, bob), ErrNotOwnerNorApproved)
	require.NoError(t, f.engine.TransferPosition(alice, pos.ID, bob))
	require.Empty(t, f.engine.PositionsOf(alice))
	require.Equal(t, []uint64{pos.ID}, f.engine.PositionsOf(bob))

	moved, _ := f.engine.Position(pos.ID)
	require.Equal(t, pos.Units.String(), moved.Units.String())
	require.Equal(t, pos.OriginalNative.String(), moved.OriginalNative.String())

	require.NoError(t, f.engine.Approve(bob, alice, pos.ID))
	require.Equal(t, alice, f.engine.GetApproved(pos.ID))
	require.NoError(t, f.exec(func() error {
		_, err := f.engine.RemoveLiquidity(router, alice, pos.ID, big.NewInt(1_000), alice)
		return err
	}))

	operator := common.HexToAddress("0x0909")
	require.NoError(t, f.engine.SetApprovalForAll(bob, operator, true))
	require.True(t, f.engine.IsApprovedForAll(bob, operator))
	require.NoError(t, f.engine.TransferPosition(operator, pos.ID, alice))
	require.Equal(t, common.Address{}, f.engine.GetApproved(pos.ID))
	f.requireInvariants()
}

func TestSynthRoundTrip(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))
	require.NoError(t, f.ledger.Register(synthBTC, "BTC - vSynth", "BTC.s", 18, poolAddr))
	require.NoError(t, f.exec(func() error { return f.engine.RegisterSynth(factory, btc, synthBTC) }))
	require.ErrorIs(t, f.exec(func() error { return f.engine.RegisterSynth(factory, btc, synthBTC) }), ErrSynthExists)

	before := f.pair(btc)
	amount := tokens(3, 8)
	var units *big.Int
	require.NoError(t, f.exec(func() error {
		var err error
		units, err = f.engine.MintSynth(factory, bob, btc, amount, bob)
		return err
	}))
	require.Equal(t, tokens(3, 18).String(), units.String())
	mid := f.pair(btc)
	require.Equal(t, before.NativeReserve.String(), mid.NativeReserve.String())
	require.Equal(t, before.LPForeign().String(), mid.LPForeign().String())
	f.requireInvariants()

	var back *big.Int
	require.NoError(t, f.exec(func() error {
		var err error
		back, err = f.engine.BurnSynth(factory, bob, btc, units, bob)
		return err
	}))
	require.Equal(t, amount.String(), back.String())
	after := f.pair(btc)
	require.Equal(t, before.ForeignReserve.String(), after.ForeignReserve.String())
	require.Equal(t, before.NativeReserve.String(), after.NativeReserve.String())
	require.Zero(t, f.ledger.TotalSupply(synthBTC).Sign())
	f.requireInvariants()
}

func TestSynthGuards(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))

	err := f.exec(func() error {
		_, err := f.engine.MintSynth(factory, bob, btc, tokens(1, 8), bob)
		return err
	})
	require.ErrorIs(t, err, ErrInexistentSynth)

	require.NoError(t, f.ledger.Register(synthBTC, "BTC - vSynth", "BTC.s", 18, poolAddr))
	require.NoError(t, f.exec(func() error { return f.engine.RegisterSynth(factory, btc, synthBTC) }))
	err = f.exec(func() error {
		_, err := f.engine.MintSynth(router, bob, btc, tokens(1, 8), bob)
		return err
	})
	require.ErrorIs(t, err, ErrOnlySynthFactory)

	var units *big.Int
	require.NoError(t, f.exec(func() error {
		var err error
		units, err = f.engine.MintSynth(factory, bob, btc, tokens(1, 8), bob)
		return err
	}))

	for _, amount := range []*big.Int{big.NewInt(0), new(big.Int).Add(units, big.NewInt(1))} {
		err = f.exec(func() error {
			_, err := f.engine.BurnSynth(factory, bob, btc, amount, bob)
			return err
		})
		require.ErrorIs(t, err, ErrInsufficientSynth)
	}

	before := f.pair(btc)
	err = f.exec(func() error {
		_, err := f.engine.BurnSynth(factory, bob, btc, units, common.Address{})
		return err
	})
	require.ErrorIs(t, err, token.ErrTransferToZero)
	require.Equal(t, before, f.pair(btc))
	require.Equal(t, units.String(), f.ledger.BalanceOf(synthBTC, bob).String())
}

func TestSynthBurnFeeStaysInBacking(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	f.engine.cfg.SynthBurnFeeBps = 100
	f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))
	require.NoError(t, f.ledger.Register(synthBTC, "BTC - vSynth", "BTC.s", 18, poolAddr))
	require.NoError(t, f.exec(func() error { return f.engine.RegisterSynth(factory, btc, synthBTC) }))

	var units, back *big.Int
	require.NoError(t, f.exec(func() error {
		var err error
		units, err = f.engine.MintSynth(factory, bob, btc, tokens(10, 8), bob)
		return err
	}))
	require.NoError(t, f.exec(func() error {
		var err error
		back, err = f.engine.BurnSynth(factory, bob, btc, units, bob)
		return err
	}))
	require.Equal(t, new(big.Int).Sub(tokens(10, 8), tokens(1, 7)).String(), back.String())
	require.Equal(t, tokens(1, 17).String(), f.pair(btc).SynthBacking.String())
	f.requireInvariants()
}

func TestFungibleLeavesSynthBalances(t *testing.T) {
	f := newFixture(t, FeeSlip, 0)
	pos := f.add(alice, btc, tokens(1_000, 18), tokens(1_000, 8))
	require.NoError(t, f.ledger.Register(synthBTC, "BTC - vSynth", "BTC.s", 18, poolAddr))
	require.NoError(t, f.ledger.Register(lpBTC, "BTC - vLP", "BTC.lp", 18, poolAddr))
	require.NoError(t, f.exec(func() error { return f.engine.RegisterSynth(factory, btc, synthBTC) }))
	require.NoError(t, f.exec(func() error { return f.engine.EnableFungible(wrapper, btc, lpBTC) }))
	require.ErrorIs(t, f.exec(func() error { return f.engine.EnableFungible(wrapper, btc, lpBTC) }), ErrFungibleExists)
	require.NoError(t, f.exec(func() error {
		_, err := f.engine.MintSynth(factory, alice, btc, tokens(2, 8), alice)
		return err
	}))
	synthBalance := f.ledger.BalanceOf(synthBTC, alice)
	synthSupply := f.ledger.TotalSupply(synthBTC)

	half := new(big.Int).Quo(pos.Units, big.NewInt(2))
	require.NoError(t, f.exec(func() error {
		_, err := f.engine.MintFungible(wrapper, alice, pos.ID, half, alice)
		return err
	}))
	require.Equal(t, half.String(), f.ledger.BalanceOf(lpBTC, alice).String())
	require.Equal(t, synthBalance.String(), f.ledger.BalanceOf(synthBTC, alice).String())
	f.requireInvariants()

	quarter := new(big.Int).Quo(half, big.NewInt(2))
	require.NoError(t, f.exec(func() error { return f.ledger.Transfer(lpBTC, alice, bob, quarter) }))
	var fresh Position
	require.NoError(t, f.exec(func() error {
		var err error
		fresh, err = f.engine.BurnFungible(wrapper, bob, btc, quarter, bob)
		return err
	}))
	require.Equal(t, bob, fresh.Owner)
	require.Equal(t, quarter.String(), fresh.Units.String())
	require.Zero(t, f.ledger.BalanceOf(lpBTC, bob).Sign())
	require.Equal(t, synthBalance.String(), f.ledger.BalanceOf(synthBTC, alice).String())
	require.Equal(t, synthSupply.String(), f.ledger.TotalSupply(synthBTC).String())
	f.requireInvariants()

	require.NoError(t, f.exec(func() error {
		_, err := f.engine.BurnFungible(wrapper, alice, btc, new(big.Int).Sub(half, quarter), alice)
		return err
	}))
	require.Zero(t, f.pair(btc).WrapperPosition)
	f.requireInvariants()
}

func TestImpermanentLoss(t *testing.T) {
	r := &Removal{
		OriginalNative:  big.NewInt(100),
		OriginalForeign: big.NewInt(100),
		NativeInternal:  big.NewInt(200),
		ForeignInternal: big.NewInt(50),
		CreatedAt:       1_000,
	}
	require.Equal(t, "100", r.ImpermanentLoss(5_000, 0).String())
	require.Equal(t, "50", r.ImpermanentLoss(1_500, 1_000).String())
	require.Equal(t, "100", r.ImpermanentLoss(9_000, 1_000).String())
	require.Equal(t, "0", r.ImpermanentLoss(500, 1_000).String())

	flat := &Removal{
		OriginalNative:  big.NewInt(100),
		OriginalForeign: big.NewInt(100),
		NativeInternal:  big.NewInt(100),
		ForeignInternal: big.NewInt(100),
	}
	require.Zero(t, flat.ImpermanentLoss(10, 0).Sign())
}
