package pool

import (
	"math/big"
)

// FeeModel selects how the swap fee is charged.
type FeeModel string

const (
	// FeeSlip charges the slip fraction amountIn/(amountIn+reserveIn) of
	// the constant-product output, so deeper trades pay proportionally more.
	FeeSlip FeeModel = "slip"
	// FeeFlat charges FeeBps of the input before constant-product pricing.
	FeeFlat FeeModel = "flat"
)

const bpsDenominator = 10_000

var (
	bigOne  = big.NewInt(1)
	bigFour = big.NewInt(4)
	bigBps  = big.NewInt(bpsDenominator)
)

func (m FeeModel) Validate(feeBps uint32) error {
	switch m {
	case FeeSlip:
		return nil
	case FeeFlat:
		if feeBps >= bpsDenominator {
			return ErrUnknownFeeModel.Wrapf("flat fee %d bps", feeBps)
		}
		return nil
	default:
		return ErrUnknownFeeModel.Wrap(string(m))
	}
}

// AmountOut prices amountIn against the given reserves.
func AmountOut(model FeeModel, feeBps uint32, amountIn, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if !positive(amountIn) {
		return nil, ErrInsufficientInput
	}
	if !positive(reserveIn) || !positive(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	var out *big.Int
	switch model {
	case FeeSlip:
		out = slipOut(amountIn, reserveIn, reserveOut)
	case FeeFlat:
		withFee := new(big.Int).Mul(amountIn, big.NewInt(int64(bpsDenominator-feeBps)))
		num := new(big.Int).Mul(reserveOut, withFee)
		den := new(big.Int).Mul(reserveIn, bigBps)
		den.Add(den, withFee)
		out = num.Quo(num, den)
	default:
		return nil, ErrUnknownFeeModel.Wrap(string(model))
	}
	if out.Sign() == 0 || out.Cmp(reserveOut) >= 0 {
		return nil, ErrUnfavourableTrade.Wrapf("in %s against %s/%s", amountIn, reserveIn, reserveOut)
	}
	return out, nil
}

// AmountIn returns the smallest input whose AmountOut is at least
// amountOut.
func AmountIn(model FeeModel, feeBps uint32, amountOut, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if !positive(amountOut) {
		return nil, ErrInsufficientInput
	}
	if !positive(reserveIn) || !positive(reserveOut) {
		return nil, ErrInsufficientLiquidity
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrUnfavourableTrade.Wrapf("out %s exceeds reserve %s", amountOut, reserveOut)
	}
	switch model {
	case FeeSlip:
		return slipIn(amountOut, reserveIn, reserveOut)
	case FeeFlat:
		num := new(big.Int).Mul(reserveIn, amountOut)
		num.Mul(num, bigBps)
		den := new(big.Int).Sub(reserveOut, amountOut)
		den.Mul(den, big.NewInt(int64(bpsDenominator-feeBps)))
		in := num.Quo(num, den)
		return in.Add(in, bigOne), nil
	default:
		return nil, ErrUnknownFeeModel.Wrap(string(model))
	}
}

// slipOut is x*X*Y / (x+X)^2.
func slipOut(x, reserveIn, reserveOut *big.Int) *big.Int {
	num := new(big.Int).Mul(x, reserveIn)
	num.Mul(num, reserveOut)
	den := new(big.Int).Add(x, reserveIn)
	den.Mul(den, den)
	return num.Quo(num, den)
}

// slipIn inverts slipOut. Output peaks at Y/4 when x == X, so larger
// requests cannot be filled. The minimum input is found by bisection over
// the increasing half of the curve.
func slipIn(y, reserveIn, reserveOut *big.Int) (*big.Int, error) {
	if new(big.Int).Mul(y, bigFour).Cmp(reserveOut) > 0 {
		return nil, ErrUnfavourableTrade.Wrapf("out %s above maximum %s", y, new(big.Int).Quo(reserveOut, bigFour))
	}
	lo, hi := big.NewInt(1), new(big.Int).Set(reserveIn)
	if slipOut(hi, reserveIn, reserveOut).Cmp(y) < 0 {
		return nil, ErrUnfavourableTrade.Wrapf("out %s not reachable", y)
	}
	for lo.Cmp(hi) < 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Rsh(mid, 1)
		if slipOut(mid, reserveIn, reserveOut).Cmp(y) >= 0 {
			hi = mid
		} else {
			lo = mid.Add(mid, bigOne)
		}
	}
	return lo, nil
}
