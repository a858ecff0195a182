package token

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"hubswap/internal/state"
	"hubswap/internal/units"
)

var (
	issuer = common.HexToAddress("0x1550")
	alice  = common.HexToAddress("0xa11ce")
	bob    = common.HexToAddress("0xb0b")
	usdc   = common.HexToAddress("0x05dc")
)

func newLedger(t *testing.T) (*state.Machine, *Ledger) {
	t.Helper()
	m := state.New(nil, nil)
	l := NewLedger(m, units.NewTable())
	require.NoError(t, l.Register(usdc, "USD Coin", "USDC", 6, issuer))
	return m, l
}

func TestMintTransferBurn(t *testing.T) {
	m, l := newLedger(t)
	require.NoError(t, m.Exec(func() error {
		if err := l.Mint(issuer, usdc, alice, big.NewInt(1_000)); err != nil {
			return err
		}
		if err := l.Transfer(usdc, alice, bob, big.NewInt(400)); err != nil {
			return err
		}
		return l.Burn(issuer, usdc, bob, big.NewInt(100))
	}))
	require.Equal(t, "600", l.BalanceOf(usdc, alice).String())
	require.Equal(t, "300", l.BalanceOf(usdc, bob).String())
	require.Equal(t, "900", l.TotalSupply(usdc).String())

	decimals, ok := l.Table().Decimals(usdc)
	require.True(t, ok)
	require.Equal(t, uint8(6), decimals)
}

func TestLedgerErrors(t *testing.T) {
	m, l := newLedger(t)
	require.ErrorIs(t, m.Exec(func() error { return l.Mint(alice, usdc, alice, big.NewInt(1)) }), ErrNotMinter)
	require.ErrorIs(t, m.Exec(func() error { return l.Transfer(usdc, alice, bob, big.NewInt(1)) }), ErrInsufficientBalance)
	require.ErrorIs(t, m.Exec(func() error { return l.Transfer(usdc, alice, common.Address{}, big.NewInt(0)) }), ErrTransferToZero)
	require.ErrorIs(t, m.Exec(func() error { return l.Transfer(bob, alice, bob, big.NewInt(0)) }), ErrUnknownAsset)
	require.ErrorIs(t, l.Register(usdc, "USD Coin", "USDC", 6, issuer), ErrAssetExists)
}

func TestRegisterRevertsDecimals(t *testing.T) {
	m, l := newLedger(t)
	dai := common.HexToAddress("0xda1")
	err := m.Exec(func() error {
		if err := l.Register(dai, "Dai", "DAI", 18, issuer); err != nil {
			return err
		}
		return ErrInvalidAmount
	})
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, ok := l.Meta(dai)
	require.False(t, ok)
	_, ok = l.Table().Decimals(dai)
	require.False(t, ok)

	_, ok = l.Table().Decimals(usdc)
	require.True(t, ok)
}

func TestLedgerRevert(t *testing.T) {
	m, l := newLedger(t)
	require.NoError(t, m.Exec(func() error { return l.Mint(issuer, usdc, alice, big.NewInt(50)) }))

	err := m.Exec(func() error {
		if err := l.Transfer(usdc, alice, bob, big.NewInt(50)); err != nil {
			return err
		}
		return l.Transfer(usdc, bob, alice, big.NewInt(51))
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, "50", l.BalanceOf(usdc, alice).String())
	require.Zero(t, l.BalanceOf(usdc, bob).Sign())
}
