// Package router is the public entry point for liquidity and swaps. Every
// mutating call runs as one state transaction: it either settles completely
// or leaves no trace.
package router

import (
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/pool"
	"hubswap/internal/reserve"
	"hubswap/internal/state"
)

const codespace = "router"

var (
	ErrExpired             = errorsmod.Register(codespace, 2, "expired")
	ErrUnsupportedAssets   = errorsmod.Register(codespace, 3, "unsupported assets specified")
	ErrIncorrectAddresses  = errorsmod.Register(codespace, 4, "incorrect addresses specified")
	ErrInsufficientAAmount = errorsmod.Register(codespace, 5, "INSUFFICIENT_A_AMOUNT")
	ErrInsufficientBAmount = errorsmod.Register(codespace, 6, "INSUFFICIENT_B_AMOUNT")
	ErrIncorrectPathLength = errorsmod.Register(codespace, 7, "incorrect path length")
	ErrIncorrectPath       = errorsmod.Register(codespace, 8, "incorrect path")
	ErrInsufficientOutput  = errorsmod.Register(codespace, 9, "insufficient trade output")
	ErrLargeTradeInput     = errorsmod.Register(codespace, 10, "large trade input")
)

// DefaultILVesting is the position age at which impermanent loss is fully
// reimbursable.
const DefaultILVesting uint64 = 365 * 24 * 60 * 60

type Config struct {
	Address   common.Address
	ILVesting uint64
}

type Router struct {
	cfg     Config
	engine  *pool.Engine
	reserve *reserve.Reserve
	machine *state.Machine
	native  common.Address
	logger  *zap.Logger
}

// New wires the router. A nil reserve disables loss reimbursement.
func New(cfg Config, engine *pool.Engine, res *reserve.Reserve, logger *zap.Logger) (*Router, error) {
	if cfg.Address == (common.Address{}) || cfg.Address != engine.Config().Router {
		return nil, ErrIncorrectAddresses.Wrapf("router address %s", cfg.Address.Hex())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		cfg:     cfg,
		engine:  engine,
		reserve: res,
		machine: engine.Machine(),
		native:  engine.NativeAsset(),
		logger:  logger,
	}, nil
}

func (r *Router) Address() common.Address { return r.cfg.Address }

// ensure fails once the host clock has passed deadline.
func (r *Router) ensure(deadline uint64) error {
	if now := r.machine.Now(); now > deadline {
		return ErrExpired.Wrapf("now %d deadline %d", now, deadline)
	}
	return nil
}

// AddLiquidity deposits a native/foreign pair from caller. The native asset
// may be given in either slot.
func (r *Router) AddLiquidity(caller, tokenA, tokenB common.Address, amountA, amountB *big.Int, to common.Address, deadline uint64) (pool.Position, error) {
	var pos pool.Position
	err := r.machine.Exec(func() error {
		if err := r.ensure(deadline); err != nil {
			return err
		}
		foreign, nativeAmount, foreignAmount, ok := r.orient(tokenA, tokenB, amountA, amountB)
		if !ok {
			return ErrUnsupportedAssets.Wrapf("%s/%s", tokenA.Hex(), tokenB.Hex())
		}
		pair, exists := r.engine.Pair(foreign)
		if !(exists && pair.Supported) && !r.engine.QueueMode() {
			return ErrUnsupportedAssets.Wrapf("%s is not supported", foreign.Hex())
		}
		var err error
		pos, err = r.engine.AddLiquidity(r.cfg.Address, caller, foreign, nativeAmount, foreignAmount, to)
		return err
	})
	if err != nil {
		return pool.Position{}, err
	}
	return pos, nil
}

// Removal is the outcome of RemoveLiquidity, with amounts in the caller's
// tokenA/tokenB order.
type Removal struct {
	*pool.Removal
	AmountA    *big.Int
	AmountB    *big.Int
	Reimbursed *big.Int
}

// RemoveLiquidity burns units of position id (zero or nil means all of it)
// and pays both legs to to, then asks the reserve to cover any vested
// impermanent loss.
func (r *Router) RemoveLiquidity(caller, tokenA, tokenB common.Address, id uint64, units, amountAMin, amountBMin *big.Int, to common.Address, deadline uint64) (*Removal, error) {
	var out *Removal
	err := r.machine.Exec(func() error {
		if err := r.ensure(deadline); err != nil {
			return err
		}
		if !r.validPairAddresses(tokenA, tokenB) {
			return ErrIncorrectAddresses.Wrapf("%s/%s", tokenA.Hex(), tokenB.Hex())
		}
		pos, ok := r.engine.Position(id)
		if !ok || pos.Burned {
			return pool.ErrPositionNotFound.Wrapf("id %d", id)
		}
		foreign := tokenB
		if tokenB == r.native {
			foreign = tokenA
		}
		if pos.Asset != foreign {
			return ErrIncorrectAddresses.Wrapf("position %d holds %s", id, pos.Asset.Hex())
		}
		if units == nil || units.Sign() == 0 {
			units = pos.Units
		}

		removal, err := r.engine.RemoveLiquidity(r.cfg.Address, caller, id, units, to)
		if err != nil {
			return err
		}
		amountA, amountB := removal.Native, removal.Foreign
		if tokenA != r.native {
			amountA, amountB = removal.Foreign, removal.Native
		}
		if amountAMin != nil && amountA.Cmp(amountAMin) < 0 {
			return ErrInsufficientAAmount.Wrapf("%s < %s", amountA, amountAMin)
		}
		if amountBMin != nil && amountB.Cmp(amountBMin) < 0 {
			return ErrInsufficientBAmount.Wrapf("%s < %s", amountB, amountBMin)
		}

		reimbursed, err := r.reimburse(removal, to)
		if err != nil {
			return err
		}
		out = &Removal{Removal: removal, AmountA: amountA, AmountB: amountB, Reimbursed: reimbursed}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Router) reimburse(removal *pool.Removal, to common.Address) (*big.Int, error) {
	if r.reserve == nil {
		return new(big.Int), nil
	}
	loss := removal.ImpermanentLoss(r.machine.Now(), r.cfg.ILVesting)
	if loss.Sign() == 0 {
		return new(big.Int), nil
	}
	amount, err := r.engine.Ledger().Table().FromInternal(r.native, loss)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return new(big.Int), nil
	}
	paid, err := r.reserve.ReimburseImpermanentLoss(r.cfg.Address, to, amount)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("impermanent loss reimbursed",
		zap.Uint64("position", removal.PositionID),
		zap.String("owed", amount.String()),
		zap.String("paid", paid.String()),
	)
	return paid, nil
}

func (r *Router) orient(tokenA, tokenB common.Address, amountA, amountB *big.Int) (foreign common.Address, nativeAmount, foreignAmount *big.Int, ok bool) {
	switch {
	case tokenA == r.native && tokenB != r.native && tokenB != (common.Address{}):
		return tokenB, amountA, amountB, true
	case tokenB == r.native && tokenA != r.native && tokenA != (common.Address{}):
		return tokenA, amountB, amountA, true
	default:
		return common.Address{}, nil, nil, false
	}
}

func (r *Router) validPairAddresses(tokenA, tokenB common.Address) bool {
	zero := common.Address{}
	if tokenA == zero || tokenB == zero || tokenA == tokenB {
		return false
	}
	if tokenA == r.cfg.Address || tokenB == r.cfg.Address {
		return false
	}
	return tokenA == r.native || tokenB == r.native
}
