package pool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAmountOutModels(t *testing.T) {
	x, X, Y := big.NewInt(500), big.NewInt(1000), big.NewInt(1000)

	out, err := AmountOut(FeeSlip, 0, x, X, Y)
	require.NoError(t, err)
	require.Equal(t, "222", out.String())

	out, err = AmountOut(FeeFlat, 30, big.NewInt(100), big.NewInt(10_000), big.NewInt(10_000))
	require.NoError(t, err)
	// 10000*100*9970 / (10000*10000 + 100*9970)
	require.Equal(t, "98", out.String())

	_, err = AmountOut(FeeSlip, 0, big.NewInt(0), X, Y)
	require.ErrorIs(t, err, ErrInsufficientInput)
	_, err = AmountOut(FeeSlip, 0, x, big.NewInt(0), Y)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
	_, err = AmountOut(FeeSlip, 0, big.NewInt(1), big.NewInt(1_000_000), big.NewInt(10))
	require.ErrorIs(t, err, ErrUnfavourableTrade)
	_, err = AmountOut(FeeModel("curve"), 0, x, X, Y)
	require.ErrorIs(t, err, ErrUnknownFeeModel)
}

func TestAmountInInvertsAmountOut(t *testing.T) {
	reserveIn, _ := new(big.Int).SetString("10000000000000000000000", 10)
	reserveOut, _ := new(big.Int).SetString("25000000000000000000000", 10)
	targets := []string{"1", "1000", "123456789012345", "1000000000000000000", "5000000000000000000000"}

	for _, model := range []FeeModel{FeeSlip, FeeFlat} {
		for _, raw := range targets {
			want, _ := new(big.Int).SetString(raw, 10)
			in, err := AmountIn(model, 30, want, reserveIn, reserveOut)
			require.NoError(t, err, "%s %s", model, raw)
			got, err := AmountOut(model, 30, in, reserveIn, reserveOut)
			require.NoError(t, err)
			require.True(t, got.Cmp(want) >= 0, "%s: in %s yields %s < %s", model, in, got, want)

			if model == FeeSlip && in.Cmp(bigOne) > 0 {
				less, err := AmountOut(model, 30, new(big.Int).Sub(in, bigOne), reserveIn, reserveOut)
				if err == nil {
					require.True(t, less.Cmp(want) < 0, "slip input %s is not minimal", in)
				}
			}
		}
	}
}

func TestSlipAmountInCeiling(t *testing.T) {
	reserve := big.NewInt(1_000_000)
	_, err := AmountIn(FeeSlip, 0, big.NewInt(250_001), reserve, reserve)
	require.ErrorIs(t, err, ErrUnfavourableTrade)

	in, err := AmountIn(FeeSlip, 0, big.NewInt(250_000), reserve, reserve)
	require.NoError(t, err)
	require.Equal(t, reserve.String(), in.String())

	_, err = AmountIn(FeeFlat, 30, reserve, reserve, reserve)
	require.ErrorIs(t, err, ErrUnfavourableTrade)
}

func TestFeeModelValidate(t *testing.T) {
	require.NoError(t, FeeSlip.Validate(0))
	require.NoError(t, FeeFlat.Validate(30))
	require.ErrorIs(t, FeeFlat.Validate(10_000), ErrUnknownFeeModel)
	require.ErrorIs(t, FeeModel("x").Validate(0), ErrUnknownFeeModel)
}
