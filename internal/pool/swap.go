package pool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/model"
)

// leg resolves a single-hop swap direction to its foreign pair.
func (e *Engine) leg(assetIn, assetOut common.Address) (*Pair, bool, error) {
	native := e.cfg.NativeAsset
	if assetIn == assetOut || (assetIn == native) == (assetOut == native) {
		return nil, false, ErrOneSidedOnly.Wrapf("%s -> %s", assetIn.Hex(), assetOut.Hex())
	}
	foreign, nativeIn := assetOut, true
	if assetOut == native {
		foreign, nativeIn = assetIn, false
	}
	pair, ok := e.pairs[foreign]
	if !ok || !pair.Supported {
		return nil, false, ErrUnsupportedToken.Wrap(foreign.Hex())
	}
	return pair, nativeIn, nil
}

func reservesFor(pair *Pair, nativeIn bool) (reserveIn, reserveOut *big.Int) {
	if nativeIn {
		return pair.NativeReserve, pair.LPForeign()
	}
	return pair.LPForeign(), pair.NativeReserve
}

// QuoteOut returns the output, in assetOut precision, of swapping amountIn
// of assetIn on current reserves.
func (e *Engine) QuoteOut(assetIn, assetOut common.Address, amountIn *big.Int) (*big.Int, error) {
	pair, nativeIn, err := e.leg(assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	x, err := e.table.ToInternal(assetIn, amountIn)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut := reservesFor(pair, nativeIn)
	out, err := AmountOut(e.cfg.FeeModel, e.cfg.FeeBps, x, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	paid, err := e.table.FromInternal(assetOut, out)
	if err != nil {
		return nil, err
	}
	if paid.Sign() == 0 {
		return nil, ErrUnfavourableTrade.Wrap("output rounds to zero")
	}
	return paid, nil
}

// QuoteIn returns the input, in assetIn precision and rounded up, required
// for a swap to yield at least amountOut of assetOut.
func (e *Engine) QuoteIn(assetIn, assetOut common.Address, amountOut *big.Int) (*big.Int, error) {
	pair, nativeIn, err := e.leg(assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	y, err := e.table.ToInternal(assetOut, amountOut)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut := reservesFor(pair, nativeIn)
	in, err := AmountIn(e.cfg.FeeModel, e.cfg.FeeBps, y, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	return e.table.FromInternalUp(assetIn, in)
}

// Swap trades amountIn of assetIn, pulled from `from`, for assetOut paid to
// to. Exactly one side must be the native asset.
func (e *Engine) Swap(caller, from, assetIn, assetOut common.Address, amountIn *big.Int, to common.Address) (*big.Int, error) {
	if err := e.requireRouter(caller); err != nil {
		return nil, err
	}
	if !positive(amountIn) {
		return nil, ErrInsufficientInput
	}
	pair, nativeIn, err := e.leg(assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	if to == (common.Address{}) || to == assetIn || to == assetOut || to == e.cfg.NativeAsset {
		return nil, ErrInvalidReceiver.Wrap(to.Hex())
	}

	x, err := e.table.ToInternal(assetIn, amountIn)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut := reservesFor(pair, nativeIn)
	out, err := AmountOut(e.cfg.FeeModel, e.cfg.FeeBps, x, reserveIn, reserveOut)
	if err != nil {
		return nil, err
	}
	paid, exact, err := e.table.Settle(assetOut, out)
	if err != nil {
		return nil, err
	}
	if paid.Sign() == 0 {
		return nil, ErrUnfavourableTrade.Wrap("output rounds to zero")
	}

	next := pair.clone()
	if nativeIn {
		next.NativeReserve = add(pair.NativeReserve, x)
		next.ForeignReserve = sub(pair.ForeignReserve, exact)
	} else {
		next.ForeignReserve = add(pair.ForeignReserve, x)
		next.NativeReserve = sub(pair.NativeReserve, exact)
	}
	e.putPair(next)

	if err := e.ledger.Transfer(assetIn, from, e.cfg.Address, amountIn); err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(assetOut, e.cfg.Address, to, paid); err != nil {
		return nil, err
	}

	e.machine.Emit(e.cfg.Address, model.SwapEventData{
		Sender:    from.Hex(),
		Recipient: to.Hex(),
		AssetIn:   assetIn.Hex(),
		AssetOut:  assetOut.Hex(),
		AmountIn:  amountIn.String(),
		AmountOut: paid.String(),
	})
	e.logger.Debug("swap",
		zap.String("in", assetIn.Hex()),
		zap.String("out", assetOut.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", paid.String()),
	)
	return paid, nil
}
