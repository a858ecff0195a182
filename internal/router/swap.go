package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// validatePath accepts [A, B] with exactly one native leg, or
// [A, native, B] with two distinct foreign ends.
func (r *Router) validatePath(path []common.Address) error {
	if len(path) != 2 && len(path) != 3 {
		return ErrIncorrectPathLength.Wrapf("%d", len(path))
	}
	for _, hop := range path {
		if hop == (common.Address{}) {
			return ErrIncorrectPath.Wrap("zero address")
		}
	}
	if len(path) == 2 {
		if path[0] == path[1] || (path[0] == r.native) == (path[1] == r.native) {
			return ErrIncorrectPath.Wrap("direct path must pair a foreign asset with the native asset")
		}
		return nil
	}
	if path[1] != r.native || path[0] == r.native || path[2] == r.native || path[0] == path[2] {
		return ErrIncorrectPath.Wrap("double hop must route foreign -> native -> foreign")
	}
	return nil
}

// SwapExactTokensForTokens sells amountIn of path[0] for at least
// amountOutMin of the last path asset.
func (r *Router) SwapExactTokensForTokens(caller common.Address, amountIn, amountOutMin *big.Int, path []common.Address, to common.Address, deadline uint64) (*big.Int, error) {
	var out *big.Int
	err := r.machine.Exec(func() error {
		if err := r.ensure(deadline); err != nil {
			return err
		}
		if err := r.validatePath(path); err != nil {
			return err
		}
		var err error
		out, err = r.execute(caller, amountIn, path, to)
		if err != nil {
			return err
		}
		if amountOutMin != nil && out.Cmp(amountOutMin) < 0 {
			return ErrInsufficientOutput.Wrapf("%s < %s", out, amountOutMin)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SwapTokensForExactTokens buys amountOut of the last path asset spending at
// most amountInMax of path[0]. It returns the input spent.
func (r *Router) SwapTokensForExactTokens(caller common.Address, amountOut, amountInMax *big.Int, path []common.Address, to common.Address, deadline uint64) (*big.Int, error) {
	var in *big.Int
	err := r.machine.Exec(func() error {
		if err := r.ensure(deadline); err != nil {
			return err
		}
		if err := r.validatePath(path); err != nil {
			return err
		}
		var err error
		in, err = r.quoteIn(amountOut, path)
		if err != nil {
			return err
		}
		if amountInMax != nil && in.Cmp(amountInMax) > 0 {
			return ErrLargeTradeInput.Wrapf("%s > %s", in, amountInMax)
		}
		out, err := r.execute(caller, in, path, to)
		if err != nil {
			return err
		}
		if out.Cmp(amountOut) < 0 {
			return ErrInsufficientOutput.Wrapf("%s < %s", out, amountOut)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

// execute runs one or two engine swaps. The first leg of a double hop pays
// the router, which spends all of it on the second leg.
func (r *Router) execute(caller common.Address, amountIn *big.Int, path []common.Address, to common.Address) (*big.Int, error) {
	if len(path) == 2 {
		return r.engine.Swap(r.cfg.Address, caller, path[0], path[1], amountIn, to)
	}
	mid, err := r.engine.Swap(r.cfg.Address, caller, path[0], r.native, amountIn, r.cfg.Address)
	if err != nil {
		return nil, err
	}
	return r.engine.Swap(r.cfg.Address, r.cfg.Address, r.native, path[2], mid, to)
}

// CalculateOutGivenIn quotes the output of selling amountIn along path.
func (r *Router) CalculateOutGivenIn(amountIn *big.Int, path []common.Address) (*big.Int, error) {
	var out *big.Int
	err := r.machine.View(func() error {
		if err := r.validatePath(path); err != nil {
			return err
		}
		var err error
		out, err = r.quoteOut(amountIn, path)
		return err
	})
	return out, err
}

// CalculateInGivenOut quotes the input needed to buy amountOut along path.
func (r *Router) CalculateInGivenOut(amountOut *big.Int, path []common.Address) (*big.Int, error) {
	var in *big.Int
	err := r.machine.View(func() error {
		if err := r.validatePath(path); err != nil {
			return err
		}
		var err error
		in, err = r.quoteIn(amountOut, path)
		return err
	})
	return in, err
}

func (r *Router) quoteOut(amountIn *big.Int, path []common.Address) (*big.Int, error) {
	amount := amountIn
	for i := 0; i+1 < len(path); i++ {
		next, err := r.engine.QuoteOut(path[i], path[i+1], amount)
		if err != nil {
			return nil, err
		}
		amount = next
	}
	return amount, nil
}

func (r *Router) quoteIn(amountOut *big.Int, path []common.Address) (*big.Int, error) {
	amount := amountOut
	for i := len(path) - 1; i > 0; i-- {
		prev, err := r.engine.QuoteIn(path[i-1], path[i], amount)
		if err != nil {
			return nil, err
		}
		amount = prev
	}
	return amount, nil
}
