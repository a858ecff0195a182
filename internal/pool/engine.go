// Package pool is the accounting and pricing engine: per-asset reserve pairs
// against the native asset, the position arena, synth backing and the
// fungible-wrapper bookkeeping.
//
// Mutating methods restricted to the router, synth factory or wrapper run
// inside the caller's state.Machine transaction. Administrative and position
// NFT methods open their own. Getters do not lock; wrap them in
// Machine.View when writers may be running.
package pool

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"hubswap/internal/access"
	"hubswap/internal/state"
	"hubswap/internal/token"
	"hubswap/internal/units"
)

// Config fixes the engine's principals and pricing parameters.
type Config struct {
	// Pool custody account; also the minter of synth and LP tokens.
	Address      common.Address
	NativeAsset  common.Address
	Router       common.Address
	SynthFactory common.Address
	Wrapper      common.Address

	FeeModel        FeeModel
	FeeBps          uint32
	SynthBurnFeeBps uint32
}

type Engine struct {
	cfg     Config
	machine *state.Machine
	ledger  *token.Ledger
	table   *units.Table
	access  *access.Controller
	logger  *zap.Logger

	pairs  map[common.Address]*Pair
	assets []common.Address

	positions []*Position
	owned     map[common.Address]map[uint64]struct{}
	approvals map[uint64]common.Address
	operators map[common.Address]map[common.Address]bool

	queue bool
}

func New(cfg Config, machine *state.Machine, ledger *token.Ledger, ctrl *access.Controller, logger *zap.Logger) (*Engine, error) {
	if cfg.FeeModel == "" {
		cfg.FeeModel = FeeSlip
	}
	if err := cfg.FeeModel.Validate(cfg.FeeBps); err != nil {
		return nil, err
	}
	if cfg.SynthBurnFeeBps >= bpsDenominator {
		return nil, ErrUnknownFeeModel.Wrapf("synth burn fee %d bps", cfg.SynthBurnFeeBps)
	}
	if _, ok := ledger.Table().Decimals(cfg.NativeAsset); !ok {
		return nil, ErrInvalidAsset.Wrapf("native asset %s not registered", cfg.NativeAsset.Hex())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		machine:   machine,
		ledger:    ledger,
		table:     ledger.Table(),
		access:    ctrl,
		logger:    logger,
		pairs:     make(map[common.Address]*Pair),
		owned:     make(map[common.Address]map[uint64]struct{}),
		approvals: make(map[uint64]common.Address),
		operators: make(map[common.Address]map[common.Address]bool),
	}, nil
}

func (e *Engine) Config() Config                 { return e.cfg }
func (e *Engine) Address() common.Address        { return e.cfg.Address }
func (e *Engine) NativeAsset() common.Address    { return e.cfg.NativeAsset }
func (e *Engine) Machine() *state.Machine        { return e.machine }
func (e *Engine) Ledger() *token.Ledger          { return e.ledger }
func (e *Engine) Controller() *access.Controller { return e.access }
func (e *Engine) QueueMode() bool                { return e.queue }

// Pair returns a copy of the pair state for asset.
func (e *Engine) Pair(asset common.Address) (Pair, bool) {
	p, ok := e.pairs[asset]
	if !ok {
		return Pair{}, false
	}
	return *p, true
}

// Assets lists foreign assets in registration order.
func (e *Engine) Assets() []common.Address {
	return append([]common.Address(nil), e.assets...)
}

// Position returns a copy of a live or destroyed position record.
func (e *Engine) Position(id uint64) (Position, bool) {
	p, ok := e.position(id)
	if !ok {
		return Position{}, false
	}
	return *p, true
}

// OwnerOf returns the owner of a live position.
func (e *Engine) OwnerOf(id uint64) (common.Address, error) {
	p, err := e.livePosition(id)
	if err != nil {
		return common.Address{}, err
	}
	return p.Owner, nil
}

// PositionsOf lists the live position ids held by owner, ascending.
func (e *Engine) PositionsOf(owner common.Address) []uint64 {
	set := e.owned[owner]
	out := make([]uint64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PositionCount is the number of ids ever assigned.
func (e *Engine) PositionCount() uint64 { return uint64(len(e.positions)) }

// RegisterAsset creates an unsupported pair for a foreign asset already
// known to the ledger. It is used at genesis and by SupportAsset.
func (e *Engine) RegisterAsset(asset common.Address) error {
	_, err := e.ensurePair(asset)
	return err
}

func (e *Engine) ensurePair(asset common.Address) (*Pair, error) {
	if p, ok := e.pairs[asset]; ok {
		return p, nil
	}
	if asset == (common.Address{}) || asset == e.cfg.NativeAsset {
		return nil, ErrInvalidAsset.Wrap(asset.Hex())
	}
	if _, ok := e.ledger.Meta(asset); !ok {
		return nil, ErrUnsupportedToken.Wrapf("%s not registered", asset.Hex())
	}
	p := newPair(asset)
	e.pairs[asset] = p
	e.assets = append(e.assets, asset)
	e.machine.Record(func() {
		delete(e.pairs, asset)
		e.assets = e.assets[:len(e.assets)-1]
	})
	return p, nil
}

func (e *Engine) putPair(p *Pair) {
	prev := e.pairs[p.Asset]
	e.pairs[p.Asset] = p
	e.machine.Record(func() { e.pairs[p.Asset] = prev })
}

func (e *Engine) position(id uint64) (*Position, bool) {
	if id == 0 || id > uint64(len(e.positions)) {
		return nil, false
	}
	return e.positions[id-1], true
}

func (e *Engine) livePosition(id uint64) (*Position, error) {
	p, ok := e.position(id)
	if !ok || p.Burned {
		return nil, ErrPositionNotFound.Wrapf("id %d", id)
	}
	return p, nil
}

func (e *Engine) appendPosition(p *Position) uint64 {
	p.ID = uint64(len(e.positions)) + 1
	e.positions = append(e.positions, p)
	e.machine.Record(func() { e.positions = e.positions[:len(e.positions)-1] })
	e.setOwned(p.Owner, p.ID, true)
	return p.ID
}

func (e *Engine) putPosition(p *Position) {
	idx := p.ID - 1
	prev := e.positions[idx]
	e.positions[idx] = p
	e.machine.Record(func() { e.positions[idx] = prev })
}

// destroy zeroes a position and revokes its ownership. The id is never
// reused.
func (e *Engine) destroy(p *Position) {
	burned := p.clone()
	burned.Units = new(big.Int)
	burned.OriginalNative = new(big.Int)
	burned.OriginalForeign = new(big.Int)
	burned.Burned = true
	burned.Pending = false
	e.setOwned(p.Owner, p.ID, false)
	e.setApproval(p.ID, common.Address{})
	burned.Owner = common.Address{}
	e.putPosition(burned)
}

func (e *Engine) setOwned(owner common.Address, id uint64, held bool) {
	set, ok := e.owned[owner]
	if !ok {
		if !held {
			return
		}
		set = make(map[uint64]struct{})
		e.owned[owner] = set
	}
	_, had := set[id]
	if had == held {
		return
	}
	if held {
		set[id] = struct{}{}
	} else {
		delete(set, id)
	}
	e.machine.Record(func() {
		if had {
			set[id] = struct{}{}
		} else {
			delete(set, id)
		}
	})
}

func (e *Engine) setApproval(id uint64, spender common.Address) {
	prev, had := e.approvals[id]
	if spender == (common.Address{}) {
		delete(e.approvals, id)
	} else {
		e.approvals[id] = spender
	}
	e.machine.Record(func() {
		if had {
			e.approvals[id] = prev
		} else {
			delete(e.approvals, id)
		}
	})
}

func (e *Engine) requireRouter(caller common.Address) error {
	if caller != e.cfg.Router || caller == (common.Address{}) {
		return ErrOnlyRouter.Wrapf("%s", caller.Hex())
	}
	return nil
}

// pull moves a deposit from a user into pool custody and returns its
// internal-unit value.
func (e *Engine) pull(asset, from common.Address, amount *big.Int) (*big.Int, error) {
	internal, err := e.table.ToInternal(asset, amount)
	if err != nil {
		return nil, err
	}
	if err := e.ledger.Transfer(asset, from, e.cfg.Address, amount); err != nil {
		return nil, err
	}
	return internal, nil
}

func positive(v *big.Int) bool { return v != nil && v.Sign() > 0 }

// mulDiv returns a*b/c rounded down.
func mulDiv(a, b, c *big.Int) *big.Int {
	out := new(big.Int).Mul(a, b)
	return out.Quo(out, c)
}

func add(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }
func sub(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }
